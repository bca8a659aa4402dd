package medication

import (
	"context"

	"github.com/google/uuid"
)

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Prescription, error)
	// ListPendingByDoctor returns prescriptions of doctorID with an
	// unanswered refill request, oldest request first.
	ListPendingByDoctor(ctx context.Context, doctorID string) ([]*Prescription, error)
	// RequestRefill arms a refill on a prescription owned by patientID and
	// returns the number of rows changed.
	RequestRefill(ctx context.Context, id uuid.UUID, patientID, reason string) (int64, error)
	// RespondRefill answers a pending refill owned by doctorID. It changes
	// nothing unless the refill is still pending.
	RespondRefill(ctx context.Context, id uuid.UUID, doctorID string, approve bool) (int64, error)
}
