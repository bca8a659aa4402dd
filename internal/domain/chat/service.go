package chat

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ehr/portal/internal/domain/identity"
	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/events"
)

const maxContentLen = 2000

var (
	ErrUnknownContact = apperr.NotFound("User not found")
	ErrEmptyMessage   = apperr.Validation("invalid_input", "Message cannot be empty")
	ErrLongMessage    = apperr.Validation("invalid_input", "Messages are limited to 2000 characters")
)

// Directory answers who may talk to whom.
type Directory interface {
	Contacts(ctx context.Context, viewer auth.Principal) ([]identity.Contact, error)
	IsContact(ctx context.Context, viewer auth.Principal, otherID string) (*identity.Identity, bool, error)
}

type Service struct {
	repo   Repository
	dir    Directory
	events events.Publisher
}

func NewService(repo Repository, dir Directory, pub events.Publisher) *Service {
	return &Service{repo: repo, dir: dir, events: pub}
}

func (s *Service) Contacts(ctx context.Context, viewer auth.Principal) ([]identity.Contact, error) {
	return s.dir.Contacts(ctx, viewer)
}

// Conversation returns the history between viewer and otherID. The result
// is the same whichever side asks.
func (s *Service) Conversation(ctx context.Context, viewer auth.Principal, otherID string) (identity.Contact, []*Message, error) {
	other, err := s.contact(ctx, viewer, otherID)
	if err != nil {
		return identity.Contact{}, nil, err
	}
	msgs, err := s.repo.Conversation(ctx, viewer.IdentityID, otherID)
	if err != nil {
		return identity.Contact{}, nil, err
	}
	return other.Contact(), msgs, nil
}

// Send stores a message from viewer to a contact.
func (s *Service) Send(ctx context.Context, viewer auth.Principal, toID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return nil, ErrLongMessage
	}
	if _, err := s.contact(ctx, viewer, toID); err != nil {
		return nil, err
	}

	m := &Message{FromID: viewer.IdentityID, ToID: toID, Content: content}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.Event{
		Type:      events.MessageSent,
		SubjectID: m.ID.String(),
		ActorID:   viewer.IdentityID,
		Data:      map[string]string{"to_id": toID},
	})
	return m, nil
}

func (s *Service) contact(ctx context.Context, viewer auth.Principal, otherID string) (*identity.Identity, error) {
	other, ok, err := s.dir.IsContact(ctx, viewer, otherID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownContact
	}
	return other, nil
}
