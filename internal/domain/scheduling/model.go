package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/ehr/portal/internal/domain/identity"
)

type Appointment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	PatientName string    `db:"patient_name" json:"patient_name,omitempty"`
	DoctorID    string    `db:"doctor_id" json:"doctor_id"`
	DoctorName  string    `db:"doctor_name" json:"doctor_name,omitempty"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Reason      string    `db:"reason" json:"reason"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// BookingPage lists the clinicians an appointment can be made with.
type BookingPage struct {
	Page       string             `json:"page"`
	Auth       string             `json:"auth"`
	Clinicians []identity.Contact `json:"clinicians"`
	Message    string             `json:"message,omitempty"`
}

// AgendaPage is a clinician's appointments in time order.
type AgendaPage struct {
	Page         string         `json:"page"`
	Auth         string         `json:"auth"`
	Appointments []*Appointment `json:"appointments"`
	Message      string         `json:"message,omitempty"`
}
