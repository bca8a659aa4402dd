package scheduling

import "context"

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	// ListByDoctor returns doctorID's appointments ordered by scheduled time.
	ListByDoctor(ctx context.Context, doctorID string) ([]*Appointment, error)
}
