package medication

import (
	"time"

	"github.com/google/uuid"
)

// RefillState is derived from needs_refill and refill_approved.
type RefillState string

const (
	RefillNone     RefillState = "none"
	RefillPending  RefillState = "pending"
	RefillApproved RefillState = "approved"
	RefillRejected RefillState = "rejected"
)

// Decision is a clinician's answer to a pending refill.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

type Prescription struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         string     `db:"patient_id" json:"patient_id"`
	PatientName       string     `db:"patient_name" json:"patient_name,omitempty"`
	DoctorID          string     `db:"doctor_id" json:"doctor_id"`
	DoctorName        string     `db:"doctor_name" json:"doctor_name,omitempty"`
	Medication        string     `db:"medication" json:"medication"`
	Dosage            *string    `db:"dosage" json:"dosage,omitempty"`
	RefillReason      *string    `db:"refill_reason" json:"refill_reason,omitempty"`
	NeedsRefill       bool       `db:"needs_refill" json:"needs_refill"`
	RefillApproved    *bool      `db:"refill_approved" json:"refill_approved"`
	RefillRequestedAt *time.Time `db:"refill_requested_at" json:"refill_requested_at,omitempty"`
	RefillRespondedAt *time.Time `db:"refill_responded_at" json:"refill_responded_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

func (p *Prescription) RefillState() RefillState {
	switch {
	case p.RefillApproved != nil && *p.RefillApproved:
		return RefillApproved
	case p.RefillApproved != nil:
		return RefillRejected
	case p.NeedsRefill:
		return RefillPending
	default:
		return RefillNone
	}
}

// PrescriptionView is a prescription with its derived refill state.
type PrescriptionView struct {
	*Prescription
	State RefillState `json:"refill_state"`
}

func views(ps []*Prescription) []PrescriptionView {
	out := make([]PrescriptionView, 0, len(ps))
	for _, p := range ps {
		out = append(out, PrescriptionView{Prescription: p, State: p.RefillState()})
	}
	return out
}

// RequestRefillPage lists a patient's prescriptions.
type RequestRefillPage struct {
	Page          string             `json:"page"`
	Auth          string             `json:"auth"`
	Prescriptions []PrescriptionView `json:"prescriptions"`
	Message       string             `json:"message,omitempty"`
}

// RefillAckPage lists refills waiting on a clinician.
type RefillAckPage struct {
	Page    string             `json:"page"`
	Auth    string             `json:"auth"`
	Pending []PrescriptionView `json:"pending"`
	Message string             `json:"message,omitempty"`
}
