package incident

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, i *Incident) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Incident, error)
	ListPending(ctx context.Context) ([]*Incident, error)
	// Respond records the outcome of a pending incident and returns the
	// number of rows changed; answered incidents are left alone.
	Respond(ctx context.Context, id uuid.UUID, clinicianID string, resolved bool) (int64, error)
}
