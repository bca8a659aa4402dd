package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/portal/internal/platform/apperr"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/events"
)

// -- Mock Repository --

type mockRepo struct {
	mu    sync.Mutex
	byID  map[string]*Identity
	names map[string]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[string]*Identity), names: make(map[string]string)}
}

func (m *mockRepo) Create(_ context.Context, i *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.names[i.Username]; ok {
		return ErrUsernameTaken
	}
	if _, ok := m.byID[i.ID]; ok {
		return errIDCollision
	}
	i.CreatedAt = time.Now()
	m.byID[i.ID] = i
	m.names[i.Username] = i.ID
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("Record not found")
	}
	return i, nil
}

func (m *mockRepo) GetByUsername(_ context.Context, username string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.names[username]
	if !ok {
		return nil, apperr.NotFound("Record not found")
	}
	return m.byID[id], nil
}

func (m *mockRepo) ListByRole(_ context.Context, role auth.Role, excludeID string) ([]*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Identity
	for _, i := range m.byID {
		if i.Role == role && i.ID != excludeID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Username < out[b].Username })
	return out, nil
}

type recordingPublisher struct{ events []events.Event }

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.events = append(p.events, e)
}

func newTestService() (*Service, *mockRepo, *recordingPublisher) {
	repo := newMockRepo()
	pub := &recordingPublisher{}
	return NewService(repo, pub, zerolog.Nop()), repo, pub
}

func TestRegister_CreatesPatient(t *testing.T) {
	svc, repo, pub := newTestService()

	i, err := svc.Register(context.Background(), "alice", "pw")
	require.NoError(t, err)

	assert.Equal(t, auth.RolePatient, i.Role)
	assert.Equal(t, auth.RolePatient, auth.DeriveRole(i.ID))
	assert.Equal(t, auth.DigestPassword("pw"), i.PasswordDigest)
	assert.Len(t, repo.byID, 1)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.IdentityRegistered, pub.events[0].Type)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, repo.byID, 1, "duplicate registration must not create a row")
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	svc, repo, _ := newTestService()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for n := 0; n < 10; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "bob", "pw")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrUsernameTaken)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, repo.byID, 1)
}

func TestRegister_RetriesIDCollision(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.byID["2000000001"] = &Identity{ID: "2000000001", Username: "taken_id", Role: auth.RolePatient}

	ids := []string{"2000000001", "2000000002"}
	svc.newID = func(auth.Role) (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	i, err := svc.Register(context.Background(), "carol", "pw")
	require.NoError(t, err)
	assert.Equal(t, "2000000002", i.ID)
}

func TestRegister_Validation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "al", "pw"},
		{"long username", strings.Repeat("a", 33), "pw"},
		{"bad characters", "alice!", "pw"},
		{"empty password", "alice", ""},
		{"long password", "alice", strings.Repeat("p", 129)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Empty(t, repo.byID)
}

func TestProvisionClinician(t *testing.T) {
	svc, _, _ := newTestService()

	i, err := svc.ProvisionClinician(context.Background(), "dr_who", "pw")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleClinician, i.Role)
	assert.True(t, strings.HasPrefix(i.ID, "1"))
	assert.Len(t, i.ID, 10)
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice", "PW")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestContacts_OppositeRoleOnly(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	alice, _ := svc.Register(ctx, "alice", "pw")
	_, _ = svc.Register(ctx, "bob", "pw")
	drA, _ := svc.ProvisionClinician(ctx, "dr_a", "pw")
	_, _ = svc.ProvisionClinician(ctx, "dr_b", "pw")

	patientView, err := svc.Contacts(ctx, auth.Principal{IdentityID: alice.ID, Role: auth.RolePatient})
	require.NoError(t, err)
	require.Len(t, patientView, 2)
	assert.Equal(t, "dr_a", patientView[0].Username)
	for _, c := range patientView {
		assert.Equal(t, auth.RoleClinician, c.Role)
	}

	clinicianView, err := svc.Contacts(ctx, auth.Principal{IdentityID: drA.ID, Role: auth.RoleClinician})
	require.NoError(t, err)
	require.Len(t, clinicianView, 2)
	for _, c := range clinicianView {
		assert.Equal(t, auth.RolePatient, c.Role)
		assert.NotEqual(t, drA.ID, c.ID)
	}
}

func TestIsContact(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	alice, _ := svc.Register(ctx, "alice", "pw")
	bob, _ := svc.Register(ctx, "bob", "pw")
	dr, _ := svc.ProvisionClinician(ctx, "dr_a", "pw")
	viewer := auth.Principal{IdentityID: alice.ID, Role: auth.RolePatient}

	_, ok, err := svc.IsContact(ctx, viewer, dr.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, _ = svc.IsContact(ctx, viewer, bob.ID)
	assert.False(t, ok, "patients cannot message patients")

	_, ok, _ = svc.IsContact(ctx, viewer, alice.ID)
	assert.False(t, ok)

	_, ok, err = svc.IsContact(ctx, viewer, "9999999999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Get(context.Background(), "2000000009")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListClinicians(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.Register(ctx, "alice", "pw")
	_, _ = svc.ProvisionClinician(ctx, "dr_b", "pw")
	_, _ = svc.ProvisionClinician(ctx, "dr_a", "pw")

	list, err := svc.ListClinicians(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dr_a", list[0].Username)
}
