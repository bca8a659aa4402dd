package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ehr/portal/internal/domain/identity"
	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/events"
)

const maxReasonLen = 1000

var timeLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339}

var (
	ErrNotAClinician   = apperr.Validation("invalid_input", "Appointments can only be made with a clinician")
	ErrNotAPatient     = apperr.Validation("invalid_input", "Appointments must be for a patient")
	ErrPastTime        = apperr.Validation("invalid_input", "Appointments must be in the future")
	ErrBadTime         = apperr.Validation("invalid_input", "Please give a valid date and time")
	ErrEmptyReason     = apperr.Validation("invalid_input", "Please give a reason for the appointment")
	ErrLongReason      = apperr.Validation("invalid_input", "Reasons are limited to 1000 characters")
	ErrSelfAppointment = apperr.Validation("invalid_input", "You cannot book an appointment with yourself")
)

// Directory looks up identities taking part in an appointment.
type Directory interface {
	Get(ctx context.Context, id string) (*identity.Identity, error)
	ListClinicians(ctx context.Context) ([]identity.Contact, error)
}

type Service struct {
	repo   AppointmentRepository
	dir    Directory
	events events.Publisher
	now    func() time.Time
}

func NewService(repo AppointmentRepository, dir Directory, pub events.Publisher) *Service {
	return &Service{repo: repo, dir: dir, events: pub, now: time.Now}
}

// ParseScheduledAt reads a form timestamp. Values without a zone are UTC.
func ParseScheduledAt(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrBadTime
}

func (s *Service) ListClinicians(ctx context.Context) ([]identity.Contact, error) {
	return s.dir.ListClinicians(ctx)
}

// Book creates an appointment between patientID and doctorID. Patients
// always book for themselves; clinicians book on behalf of a patient.
func (s *Service) Book(ctx context.Context, viewer auth.Principal, patientID, doctorID string, at time.Time, reason string) (*Appointment, error) {
	if viewer.Role == auth.RolePatient {
		patientID = viewer.IdentityID
	}
	reason = strings.TrimSpace(reason)
	switch {
	case reason == "":
		return nil, ErrEmptyReason
	case utf8.RuneCountInString(reason) > maxReasonLen:
		return nil, ErrLongReason
	case at.IsZero():
		return nil, ErrBadTime
	case !at.After(s.now()):
		return nil, ErrPastTime
	case patientID == doctorID:
		return nil, ErrSelfAppointment
	}

	if err := s.checkRole(ctx, doctorID, auth.RoleClinician, ErrNotAClinician); err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, patientID, auth.RolePatient, ErrNotAPatient); err != nil {
		return nil, err
	}

	a := &Appointment{PatientID: patientID, DoctorID: doctorID, ScheduledAt: at.UTC(), Reason: reason}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.Event{
		Type:      events.AppointmentCreated,
		SubjectID: a.ID.String(),
		ActorID:   viewer.IdentityID,
		Data: map[string]string{
			"doctor_id":    doctorID,
			"patient_id":   patientID,
			"scheduled_at": a.ScheduledAt.Format(time.RFC3339),
		},
	})
	return a, nil
}

func (s *Service) checkRole(ctx context.Context, id string, want auth.Role, wrong error) error {
	i, err := s.dir.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return wrong
	}
	if err != nil {
		return err
	}
	if i.Role != want {
		return wrong
	}
	return nil
}

func (s *Service) Agenda(ctx context.Context, doctorID string) ([]*Appointment, error) {
	out, err := s.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*Appointment{}
	}
	return out, nil
}
