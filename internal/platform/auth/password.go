package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestPassword returns the hex SHA-256 digest stored for a credential.
func DigestPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword reports whether password hashes to digest. The comparison
// is byte-exact and constant-time.
func VerifyPassword(password, digest string) bool {
	got := DigestPassword(password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(digest)) == 1
}
