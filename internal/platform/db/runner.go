package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/portal/internal/platform/apperr"
)

// DefaultQueryTimeout bounds every persistence call when no timeout is configured.
const DefaultQueryTimeout = 10 * time.Second

const uniqueViolationCode = "23505"

var (
	// ErrNotFound is the kind reported for queries that match no row.
	ErrNotFound = apperr.ErrNotFound

	// ErrPersistence is returned for timeouts, lost connections and any other
	// driver failure. Callers surface it as a generic message.
	ErrPersistence = errors.New("persistence failure")

	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
)

// Querier is the narrow persistence contract consumed by repositories:
// positional parameters in, rows out, one fixed timeout per call.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (int64, error)
	QueryRow(ctx context.Context, sql string, args []interface{}, scan func(pgx.Row) error) error
	Query(ctx context.Context, sql string, args []interface{}, scan func(pgx.Rows) error) error
}

// Runner implements Querier on top of a pgx connection pool.
type Runner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewRunner(pool *pgxpool.Pool, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Runner{pool: pool, timeout: timeout}
}

// Exec runs a write statement and returns the number of affected rows.
func (r *Runner) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

// QueryRow runs a single-row query. A missing row is reported as apperr.ErrNotFound.
func (r *Runner) QueryRow(ctx context.Context, sql string, args []interface{}, scan func(pgx.Row) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return classify(scan(r.pool.QueryRow(ctx, sql, args...)))
}

// Query runs a multi-row query and calls scan once per row.
func (r *Runner) Query(ctx context.Context, sql string, args []interface{}, scan func(pgx.Rows) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return classify(err)
		}
	}
	return classify(rows.Err())
}

// classify maps driver errors onto the portal's error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", apperr.NotFound("Record not found"), err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return &DuplicateError{Constraint: pgErr.ConstraintName}
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

// DuplicateError names the unique constraint an insert collided with.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return ErrDuplicate.Error() + ": " + e.Constraint
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// ViolatedConstraint returns the constraint behind a unique violation.
func ViolatedConstraint(err error) (string, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Constraint, true
	}
	return "", false
}
