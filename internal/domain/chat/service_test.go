package chat

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/portal/internal/domain/identity"
	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/events"
)

// -- Mocks --

type mockRepo struct {
	msgs  []*Message
	names map[string]string
	clock time.Time
}

func newMockRepo(names map[string]string) *mockRepo {
	return &mockRepo{names: names, clock: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *mockRepo) Create(_ context.Context, msg *Message) error {
	msg.ID = uuid.New()
	m.clock = m.clock.Add(time.Second)
	msg.SentAt = m.clock
	stored := *msg
	m.msgs = append(m.msgs, &stored)
	return nil
}

func (m *mockRepo) Conversation(_ context.Context, a, b string) ([]*Message, error) {
	var out []*Message
	for _, msg := range m.msgs {
		if (msg.FromID == a && msg.ToID == b) || (msg.FromID == b && msg.ToID == a) {
			cp := *msg
			cp.Sender = m.names[msg.FromID]
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

type mockDirectory struct {
	people map[string]*identity.Identity
}

func (d *mockDirectory) Contacts(_ context.Context, viewer auth.Principal) ([]identity.Contact, error) {
	var out []identity.Contact
	for _, p := range d.people {
		if p.ID != viewer.IdentityID && p.Role == identity.Opposite(viewer.Role) {
			out = append(out, p.Contact())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (d *mockDirectory) IsContact(_ context.Context, viewer auth.Principal, otherID string) (*identity.Identity, bool, error) {
	p, ok := d.people[otherID]
	if !ok || otherID == viewer.IdentityID {
		return nil, false, nil
	}
	return p, p.Role == identity.Opposite(viewer.Role), nil
}

type recordingPublisher struct{ events []events.Event }

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.events = append(p.events, e)
}

var (
	alice   = auth.Principal{IdentityID: "2000000001", Role: auth.RolePatient}
	bob     = auth.Principal{IdentityID: "2000000002", Role: auth.RolePatient}
	drSmith = auth.Principal{IdentityID: "1000000001", Role: auth.RoleClinician}
)

func newTestService() (*Service, *mockRepo, *recordingPublisher) {
	dir := &mockDirectory{people: map[string]*identity.Identity{
		alice.IdentityID:   {ID: alice.IdentityID, Username: "alice", Role: auth.RolePatient},
		bob.IdentityID:     {ID: bob.IdentityID, Username: "bob", Role: auth.RolePatient},
		drSmith.IdentityID: {ID: drSmith.IdentityID, Username: "dr_smith", Role: auth.RoleClinician},
	}}
	names := map[string]string{}
	for id, p := range dir.people {
		names[id] = p.Username
	}
	repo := newMockRepo(names)
	pub := &recordingPublisher{}
	return NewService(repo, dir, pub), repo, pub
}

func TestSend_AndConversationSymmetric(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()

	_, err := svc.Send(ctx, alice, drSmith.IdentityID, "I feel dizzy")
	require.NoError(t, err)
	_, err = svc.Send(ctx, drSmith, alice.IdentityID, "Please come in tomorrow")
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice, drSmith.IdentityID, "  Thanks  ")
	require.NoError(t, err)

	withA, fromPatient, err := svc.Conversation(ctx, alice, drSmith.IdentityID)
	require.NoError(t, err)
	_, fromClinician, err := svc.Conversation(ctx, drSmith, alice.IdentityID)
	require.NoError(t, err)

	assert.Equal(t, "dr_smith", withA.Username)
	require.Len(t, fromPatient, 3)
	assert.Equal(t, fromPatient, fromClinician)
	assert.Equal(t, "alice", fromPatient[0].Sender)
	assert.Equal(t, "dr_smith", fromPatient[1].Sender)
	assert.Equal(t, "Thanks", fromPatient[2].Content)

	for i := 1; i < len(fromPatient); i++ {
		assert.False(t, fromPatient[i].SentAt.Before(fromPatient[i-1].SentAt))
	}
	assert.Len(t, pub.events, 3)
	assert.Equal(t, events.MessageSent, pub.events[0].Type)
}

func TestConversation_Empty(t *testing.T) {
	svc, _, _ := newTestService()

	_, msgs, err := svc.Conversation(context.Background(), alice, drSmith.IdentityID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestConversation_NonContact(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.Conversation(ctx, alice, bob.IdentityID)
	assert.ErrorIs(t, err, ErrUnknownContact)

	_, _, err = svc.Conversation(ctx, alice, "9999999999")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSend_Validation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Send(ctx, alice, drSmith.IdentityID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.Send(ctx, alice, drSmith.IdentityID, strings.Repeat("x", maxContentLen+1))
	assert.ErrorIs(t, err, ErrLongMessage)

	_, err = svc.Send(ctx, alice, drSmith.IdentityID, strings.Repeat("é", maxContentLen))
	assert.NoError(t, err, "limit counts characters, not bytes")

	_, err = svc.Send(ctx, alice, bob.IdentityID, "hi")
	assert.ErrorIs(t, err, ErrUnknownContact)

	assert.Len(t, repo.msgs, 1)
}

func TestContacts(t *testing.T) {
	svc, _, _ := newTestService()

	contacts, err := svc.Contacts(context.Background(), drSmith)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "alice", contacts[0].Username)
	assert.Equal(t, "bob", contacts[1].Username)
}
