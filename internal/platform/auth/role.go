package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Role is the single role an identity holds.
type Role string

const (
	RolePatient   Role = "patient"
	RoleClinician Role = "clinician"
)

// idWidth is the width identifiers are left-padded to before the role
// prefix is inspected.
const idWidth = 10

const (
	clinicianIDMin = 1_000_000_000
	clinicianIDMax = 1_999_999_999
	patientIDMin   = 2_000_000_000
	patientIDMax   = 9_999_999_999
)

// DeriveRole maps an identifier to its role: the decimal form padded with
// zeros to ten digits starts with 1 for clinicians. Longer identifiers are
// not truncated.
func DeriveRole(id string) Role {
	if len(id) < idWidth {
		id = strings.Repeat("0", idWidth-len(id)) + id
	}
	if id[0] == '1' {
		return RoleClinician
	}
	return RolePatient
}

// RoleOf is DeriveRole for numeric identifiers.
func RoleOf(id uint64) Role {
	return DeriveRole(strconv.FormatUint(id, 10))
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleClinician:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleClinician
}

// NewIdentityID allocates a random identifier whose derived role is r.
func NewIdentityID(r Role) (string, error) {
	lo, hi := int64(patientIDMin), int64(patientIDMax)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", r)
	}
	if r == RoleClinician {
		lo, hi = clinicianIDMin, clinicianIDMax
	}

	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo+1))
	if err != nil {
		return "", fmt.Errorf("generate identity id: %w", err)
	}
	return strconv.FormatInt(lo+n.Int64(), 10), nil
}
