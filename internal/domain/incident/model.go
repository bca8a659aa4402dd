package incident

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StatePending  State = "pending"
	StateResolved State = "resolved"
	StateRejected State = "rejected"
)

// Outcome is the value of the `resolve` form field.
type Outcome string

const (
	OutcomeResolve Outcome = "resolve"
	OutcomeReject  Outcome = "reject"
)

// Incident is a patient-filed report. IsResolved is nil until a clinician
// answers it, after which it never changes.
type Incident struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   string     `db:"patient_id" json:"patient_id"`
	PatientName string     `db:"patient_name" json:"patient_name,omitempty"`
	OccurredAt  time.Time  `db:"occurred_at" json:"occurred_at"`
	Content     string     `db:"content" json:"content"`
	IsResolved  *bool      `db:"is_resolved" json:"is_resolved"`
	RespondedBy *string    `db:"responded_by" json:"responded_by,omitempty"`
	RespondedAt *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

func (i *Incident) State() State {
	switch {
	case i.IsResolved == nil:
		return StatePending
	case *i.IsResolved:
		return StateResolved
	default:
		return StateRejected
	}
}

type View struct {
	*Incident
	State State `json:"state"`
}

func views(in []*Incident) []View {
	out := make([]View, 0, len(in))
	for _, i := range in {
		out = append(out, View{Incident: i, State: i.State()})
	}
	return out
}

// FormPage is the patient's incident list with the filing form.
type FormPage struct {
	Page      string `json:"page"`
	Auth      string `json:"auth"`
	Incidents []View `json:"incidents"`
	Message   string `json:"message,omitempty"`
}

// ResponsePage lists incidents awaiting any clinician.
type ResponsePage struct {
	Page    string `json:"page"`
	Auth    string `json:"auth"`
	Pending []View `json:"pending"`
	Message string `json:"message,omitempty"`
}
