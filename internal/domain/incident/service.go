package incident

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/events"
)

const (
	maxContentLen = 5000
	// clockSkew tolerates browsers whose clock runs slightly ahead.
	clockSkew = 5 * time.Minute
)

// Accepted layouts for occurred_at. The first is what an HTML
// datetime-local input submits.
var timeLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", time.RFC3339}

var (
	ErrIncidentNotFound = apperr.NotFound("Incident not found")
	ErrAlreadyAnswered  = apperr.Conflict("This incident has already been answered")
	ErrEmptyContent     = apperr.Validation("invalid_input", "Please describe the incident")
	ErrLongContent      = apperr.Validation("invalid_input", "Incident reports are limited to 5000 characters")
	ErrBadOccurredAt    = apperr.Validation("invalid_input", "Please give a valid date and time for the incident")
	ErrFutureOccurredAt = apperr.Validation("invalid_input", "Incidents cannot be in the future")
	ErrBadOutcome       = apperr.Validation("invalid_input", "Choose resolve or reject")
)

type Service struct {
	repo   Repository
	events events.Publisher
	now    func() time.Time
}

func NewService(repo Repository, pub events.Publisher) *Service {
	return &Service{repo: repo, events: pub, now: time.Now}
}

// ParseOccurredAt reads a form timestamp. Values without a zone are UTC. A
// blank value yields the zero time, which File takes to mean "now".
func ParseOccurredAt(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrBadOccurredAt
}

// File records a new pending incident for patient. A zero occurredAt is
// filed as the current time.
func (s *Service) File(ctx context.Context, patient auth.Principal, occurredAt time.Time, content string) (*Incident, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return nil, ErrLongContent
	}
	if occurredAt.IsZero() {
		occurredAt = s.now().UTC()
	}
	if occurredAt.After(s.now().Add(clockSkew)) {
		return nil, ErrFutureOccurredAt
	}

	i := &Incident{PatientID: patient.IdentityID, OccurredAt: occurredAt, Content: content}
	if err := s.repo.Create(ctx, i); err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.Event{
		Type:      events.IncidentFiled,
		SubjectID: i.ID.String(),
		ActorID:   patient.IdentityID,
	})
	return i, nil
}

func (s *Service) ForPatient(ctx context.Context, patientID string) ([]View, error) {
	in, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return views(in), nil
}

func (s *Service) Pending(ctx context.Context) ([]View, error) {
	in, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return views(in), nil
}

// Respond answers a pending incident. Any clinician may respond, once.
func (s *Service) Respond(ctx context.Context, clinician auth.Principal, incidentID string, outcome Outcome) error {
	var resolved bool
	switch outcome {
	case OutcomeResolve:
		resolved = true
	case OutcomeReject:
	default:
		return ErrBadOutcome
	}
	id, err := uuid.Parse(incidentID)
	if err != nil {
		return ErrIncidentNotFound
	}

	n, err := s.repo.Respond(ctx, id, clinician.IdentityID, resolved)
	if err != nil {
		return err
	}
	if n == 0 {
		ok, err := s.repo.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrIncidentNotFound
		}
		return ErrAlreadyAnswered
	}

	typ := events.IncidentRejected
	if resolved {
		typ = events.IncidentResolved
	}
	s.events.Publish(ctx, events.Event{Type: typ, SubjectID: id.String(), ActorID: clinician.IdentityID})
	return nil
}
