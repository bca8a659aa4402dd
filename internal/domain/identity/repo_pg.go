package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/db"
)

var errIDCollision = errors.New("identity id collision")

type repoPG struct{ q db.Querier }

func NewRepoPG(q db.Querier) Repository {
	return &repoPG{q: q}
}

const identityCols = `id, username, password_digest, role, created_at`

func scanIdentity(row pgx.Row) (*Identity, error) {
	var i Identity
	var role string
	if err := row.Scan(&i.ID, &i.Username, &i.PasswordDigest, &role, &i.CreatedAt); err != nil {
		return nil, err
	}
	r, err := auth.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", i.ID, err)
	}
	i.Role = r
	return &i, nil
}

func (r *repoPG) Create(ctx context.Context, i *Identity) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO identity (id, username, password_digest, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		[]interface{}{i.ID, i.Username, i.PasswordDigest, i.Role},
		func(row pgx.Row) error { return row.Scan(&i.CreatedAt) })

	if constraint, ok := db.ViolatedConstraint(err); ok {
		if constraint == "identity_username_key" {
			return ErrUsernameTaken
		}
		return errIDCollision
	}
	return err
}

func (r *repoPG) get(ctx context.Context, where string, arg interface{}) (*Identity, error) {
	var out *Identity
	err := r.q.QueryRow(ctx, `SELECT `+identityCols+` FROM identity WHERE `+where+` = $1`,
		[]interface{}{arg},
		func(row pgx.Row) error {
			i, err := scanIdentity(row)
			out = i
			return err
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*Identity, error) {
	return r.get(ctx, "id", id)
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*Identity, error) {
	return r.get(ctx, "username", username)
}

func (r *repoPG) ListByRole(ctx context.Context, role auth.Role, excludeID string) ([]*Identity, error) {
	var out []*Identity
	err := r.q.Query(ctx, `
		SELECT `+identityCols+` FROM identity
		WHERE role = $1 AND id <> $2
		ORDER BY username`,
		[]interface{}{role, excludeID},
		func(rows pgx.Rows) error {
			i, err := scanIdentity(rows)
			if err != nil {
				return err
			}
			out = append(out, i)
			return nil
		})
	return out, err
}
