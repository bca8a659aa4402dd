package medication

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ehr/portal/internal/domain/identity"
	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/events"
)

const (
	maxReasonLen     = 1000
	maxMedicationLen = 200
)

var (
	ErrPrescriptionNotFound = apperr.NotFound("Prescription not found")
	ErrNotYourPatient       = apperr.Auth("prescription belongs to another clinician")
	ErrNoPendingRefill      = apperr.Conflict("This refill request has already been answered")
	ErrEmptyReason          = apperr.Validation("invalid_input", "Please give a reason for the refill")
	ErrLongReason           = apperr.Validation("invalid_input", "Refill reasons are limited to 1000 characters")
	ErrInvalidMedication    = apperr.Validation("invalid_input", "Medication name is required")
	ErrNotAPatient          = apperr.Validation("invalid_input", "Prescriptions can only be written for patients")
)

// IdentityLookup resolves identities referenced by a prescription.
type IdentityLookup interface {
	Get(ctx context.Context, id string) (*identity.Identity, error)
}

type Service struct {
	repo       PrescriptionRepository
	identities IdentityLookup
	events     events.Publisher
}

func NewService(repo PrescriptionRepository, identities IdentityLookup, pub events.Publisher) *Service {
	return &Service{repo: repo, identities: identities, events: pub}
}

// Prescribe records a new prescription written by doctor for patientID.
func (s *Service) Prescribe(ctx context.Context, doctor auth.Principal, patientID, medication, dosage string) (*Prescription, error) {
	if doctor.Role != auth.RoleClinician {
		return nil, apperr.Auth("only clinicians prescribe")
	}
	medication = strings.TrimSpace(medication)
	if medication == "" || utf8.RuneCountInString(medication) > maxMedicationLen {
		return nil, ErrInvalidMedication
	}
	patient, err := s.identities.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient.Role != auth.RolePatient {
		return nil, ErrNotAPatient
	}

	p := &Prescription{PatientID: patientID, DoctorID: doctor.IdentityID, Medication: medication}
	if d := strings.TrimSpace(dosage); d != "" {
		p.Dosage = &d
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ForPatient(ctx context.Context, patientID string) ([]PrescriptionView, error) {
	ps, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return views(ps), nil
}

func (s *Service) PendingFor(ctx context.Context, doctorID string) ([]PrescriptionView, error) {
	ps, err := s.repo.ListPendingByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return views(ps), nil
}

// RequestRefill arms a refill on one of patient's prescriptions. Asking
// again while a request is pending replaces the reason.
func (s *Service) RequestRefill(ctx context.Context, patient auth.Principal, prescriptionID, reason string) error {
	id, err := uuid.Parse(prescriptionID)
	if err != nil {
		return ErrPrescriptionNotFound
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}
	if utf8.RuneCountInString(reason) > maxReasonLen {
		return ErrLongReason
	}

	n, err := s.repo.RequestRefill(ctx, id, patient.IdentityID, reason)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPrescriptionNotFound
	}

	s.events.Publish(ctx, events.Event{
		Type:      events.RefillRequested,
		SubjectID: id.String(),
		ActorID:   patient.IdentityID,
	})
	return nil
}

// RespondRefill applies doctor's decision to a pending refill. It reports
// false without touching anything when decision is not accept or reject.
func (s *Service) RespondRefill(ctx context.Context, doctor auth.Principal, prescriptionID string, decision Decision) (bool, error) {
	var approve bool
	switch decision {
	case DecisionAccept:
		approve = true
	case DecisionReject:
	default:
		return false, nil
	}

	id, err := uuid.Parse(prescriptionID)
	if err != nil {
		return false, ErrPrescriptionNotFound
	}
	n, err := s.repo.RespondRefill(ctx, id, doctor.IdentityID, approve)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, s.explainMiss(ctx, id, doctor.IdentityID)
	}

	typ := events.RefillRejected
	if approve {
		typ = events.RefillApproved
	}
	s.events.Publish(ctx, events.Event{Type: typ, SubjectID: id.String(), ActorID: doctor.IdentityID})
	return true, nil
}

// explainMiss works out why a conditional respond changed nothing.
func (s *Service) explainMiss(ctx context.Context, id uuid.UUID, doctorID string) error {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrPrescriptionNotFound
	}
	if err != nil {
		return err
	}
	if p.DoctorID != doctorID {
		return ErrNotYourPatient
	}
	return ErrNoPendingRefill
}
