package identity

import (
	"time"

	"github.com/ehr/portal/internal/platform/auth"
)

// Identity is a login. Its role is derived from the id once, at creation,
// and stored alongside it.
type Identity struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	PasswordDigest string    `db:"password_digest" json:"-"`
	Role           auth.Role `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Contact is the public view of an identity shown in contact lists.
type Contact struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Role     auth.Role `json:"role"`
}

func (i *Identity) Contact() Contact {
	return Contact{ID: i.ID, Username: i.Username, Role: i.Role}
}

// Opposite returns the role a viewer is allowed to contact.
func Opposite(r auth.Role) auth.Role {
	if r == auth.RoleClinician {
		return auth.RolePatient
	}
	return auth.RoleClinician
}
