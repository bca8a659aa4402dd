package identity

import (
	"context"

	"github.com/ehr/portal/internal/platform/auth"
)

type Repository interface {
	// Create inserts an identity. It fails with ErrUsernameTaken when the
	// username exists and errIDCollision when the generated id does.
	Create(ctx context.Context, i *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByUsername(ctx context.Context, username string) (*Identity, error)
	// ListByRole returns identities holding role, ordered by username,
	// excluding excludeID.
	ListByRole(ctx context.Context, role auth.Role, excludeID string) ([]*Identity, error)
}
