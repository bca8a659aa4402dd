// Package session maps opaque cookie tokens to authenticated identities.
//
// The cookie value is an HS256 JWT whose jti is a 32-byte random token. The
// signature lets forged cookies be rejected without a store lookup; the
// store remains the source of truth so logout takes effect immediately.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/ehr/portal/internal/platform/auth"
)

// DefaultTTL is used when no lifetime is configured.
const DefaultTTL = 12 * time.Hour

const tokenBytes = 32

// Session is one authenticated login.
type Session struct {
	Token      string    `json:"-"`
	IdentityID string    `json:"identity_id"`
	Role       auth.Role `json:"role"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Registry creates, resolves and destroys sessions.
type Registry struct {
	store  Store
	key    []byte
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

func NewRegistry(store Store, signingKey []byte, ttl time.Duration, logger zerolog.Logger) (*Registry, error) {
	if len(signingKey) < 32 {
		return nil, errors.New("session signing key must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		store:  store,
		key:    signingKey,
		ttl:    ttl,
		logger: logger.With().Str("component", "session").Logger(),
		now:    time.Now,
	}, nil
}

// TTL is the lifetime of newly created sessions.
func (r *Registry) TTL() time.Duration {
	return r.ttl
}

// Create starts a session for identityID and returns the cookie value.
func (r *Registry) Create(ctx context.Context, identityID string, role auth.Role) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := r.now()
	sess := Session{
		Token:      token,
		IdentityID: identityID,
		Role:       role,
		IssuedAt:   now,
		ExpiresAt:  now.Add(r.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        token,
		Subject:   identityID,
		IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}

	if err := r.store.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// Resolve maps a cookie value to its principal. Unknown, expired and
// tampered values resolve to nothing; store failures are logged and treated
// the same way.
func (r *Registry) Resolve(ctx context.Context, cookie string) (auth.Principal, bool) {
	claims, ok := r.parse(cookie)
	if !ok {
		return auth.Principal{}, false
	}

	sess, found, err := r.store.Get(ctx, claims.ID)
	if err != nil {
		r.logger.Error().Err(err).Msg("session lookup failed")
		return auth.Principal{}, false
	}
	if !found || sess.IdentityID != claims.Subject || !r.now().Before(sess.ExpiresAt) {
		return auth.Principal{}, false
	}
	return auth.Principal{IdentityID: sess.IdentityID, Role: sess.Role}, true
}

// Destroy ends the session behind cookie. Destroying an unknown or invalid
// session is not an error.
func (r *Registry) Destroy(ctx context.Context, cookie string) error {
	claims, ok := r.parse(cookie)
	if !ok {
		return nil
	}
	if err := r.store.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// DestroyAll ends every session held by identityID.
func (r *Registry) DestroyAll(ctx context.Context, identityID string) (int, error) {
	n, err := r.store.DeleteAll(ctx, identityID)
	if err != nil {
		return 0, fmt.Errorf("destroy sessions: %w", err)
	}
	return n, nil
}

func (r *Registry) parse(cookie string) (*jwt.RegisteredClaims, bool) {
	if cookie == "" {
		return nil, false
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie, claims, func(t *jwt.Token) (interface{}, error) {
		return r.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(r.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, false
	}
	return claims, true
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ResolveSigningKey decodes a hex signing key. An empty value yields a
// random key and generated=true; sessions signed with it do not survive a
// restart.
func ResolveSigningKey(hexKey string) (key []byte, generated bool, err error) {
	if hexKey != "" {
		decoded, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, false, fmt.Errorf("invalid SESSION_SIGNING_KEY hex value: %w", err)
		}
		return decoded, false, nil
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate session signing key: %w", err)
	}
	return key, true, nil
}
