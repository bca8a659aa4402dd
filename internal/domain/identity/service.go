package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/events"
)

var (
	ErrUsernameTaken      = apperr.Validation("username_taken", "This username is taken")
	ErrInvalidCredentials = apperr.Validation("invalid_credentials", "Incorrect username and/or password")
	ErrInvalidUsername    = apperr.Validation("invalid_input", "Usernames are 3 to 32 letters, digits or underscores")
	ErrInvalidPassword    = apperr.Validation("invalid_input", "Passwords are 1 to 128 characters")
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	maxPasswordLen = 128
	maxIDAttempts  = 5
)

// dummyDigest keeps unknown-username logins as slow as wrong-password ones.
var dummyDigest = auth.DigestPassword("unknown-user")

type Service struct {
	repo   Repository
	events events.Publisher
	logger zerolog.Logger
	newID  func(auth.Role) (string, error)
}

func NewService(repo Repository, pub events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: pub,
		logger: logger.With().Str("component", "identity").Logger(),
		newID:  auth.NewIdentityID,
	}
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) == 0 || len(password) > maxPasswordLen {
		return ErrInvalidPassword
	}
	return nil
}

// Register creates a patient login. Clinicians are provisioned out of band
// with ProvisionClinician.
func (s *Service) Register(ctx context.Context, username, password string) (*Identity, error) {
	return s.create(ctx, username, password, auth.RolePatient)
}

// ProvisionClinician creates a clinician login.
func (s *Service) ProvisionClinician(ctx context.Context, username, password string) (*Identity, error) {
	return s.create(ctx, username, password, auth.RoleClinician)
}

func (s *Service) create(ctx context.Context, username, password string, role auth.Role) (*Identity, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID(role)
		if err != nil {
			return nil, err
		}

		i := &Identity{
			ID:             id,
			Username:       username,
			PasswordDigest: auth.DigestPassword(password),
			Role:           auth.DeriveRole(id),
		}
		if i.Role != role {
			return nil, fmt.Errorf("generated id %s derives role %s, want %s", id, i.Role, role)
		}

		err = s.repo.Create(ctx, i)
		if errors.Is(err, errIDCollision) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.events.Publish(ctx, events.Event{
			Type:      events.IdentityRegistered,
			SubjectID: i.ID,
			ActorID:   i.ID,
			Data:      map[string]string{"role": string(i.Role)},
		})
		return i, nil
	}
	return nil, fmt.Errorf("allocate identity id: %d collisions", maxIDAttempts)
}

// Authenticate verifies a username and password. Unknown usernames and
// wrong passwords fail identically.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	i, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		auth.VerifyPassword(password, dummyDigest)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !auth.VerifyPassword(password, i.PasswordDigest) {
		s.logger.Info().Str("identity_id", i.ID).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}
	return i, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Identity, error) {
	i, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	return i, err
}

// Contacts lists the identities viewer may message: everyone holding the
// opposite role.
func (s *Service) Contacts(ctx context.Context, viewer auth.Principal) ([]Contact, error) {
	ids, err := s.repo.ListByRole(ctx, Opposite(viewer.Role), viewer.IdentityID)
	if err != nil {
		return nil, err
	}
	out := make([]Contact, 0, len(ids))
	for _, i := range ids {
		out = append(out, i.Contact())
	}
	return out, nil
}

// IsContact reports whether other is someone viewer may message.
func (s *Service) IsContact(ctx context.Context, viewer auth.Principal, otherID string) (*Identity, bool, error) {
	if otherID == viewer.IdentityID {
		return nil, false, nil
	}
	other, err := s.repo.GetByID(ctx, otherID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return other, other.Role == Opposite(viewer.Role), nil
}

// ListClinicians returns every clinician, for appointment booking.
func (s *Service) ListClinicians(ctx context.Context) ([]Contact, error) {
	ids, err := s.repo.ListByRole(ctx, auth.RoleClinician, "")
	if err != nil {
		return nil, err
	}
	out := make([]Contact, 0, len(ids))
	for _, i := range ids {
		out = append(out, i.Contact())
	}
	return out, nil
}
