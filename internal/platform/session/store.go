package session

import (
	"context"
	"sync"
	"time"
)

// Store persists sessions keyed by their random token.
type Store interface {
	Save(ctx context.Context, s Session) error
	// Get reports ok=false for unknown or expired tokens.
	Get(ctx context.Context, token string) (Session, bool, error)
	Delete(ctx context.Context, token string) error
	// DeleteAll removes every session of an identity and returns how many
	// were removed.
	DeleteAll(ctx context.Context, identityID string) (int, error)
}

// MemoryStore keeps sessions in process memory. Expired entries are
// dropped by a background loop started in NewMemoryStore.
type MemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]Session  // token -> session
	byIdentity map[string][]string // identityID -> tokens
	now        func() time.Time
	done       chan struct{}
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions:   make(map[string]Session),
		byIdentity: make(map[string][]string),
		now:        time.Now,
		done:       make(chan struct{}),
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	go s.cleanupLoop(cleanupInterval)
	return s
}

func (s *MemoryStore) Save(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.Token]; !exists {
		s.byIdentity[sess.IdentityID] = append(s.byIdentity[sess.IdentityID], sess.Token)
	}
	s.sessions[sess.Token] = sess
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok || !s.now().Before(sess.ExpiresAt) {
		return Session{}, false, nil
	}
	return sess, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(token)
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, identityID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := s.byIdentity[identityID]
	for _, token := range tokens {
		delete(s.sessions, token)
	}
	delete(s.byIdentity, identityID)
	return len(tokens), nil
}

// Count returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *MemoryStore) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for token, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			s.remove(token)
		}
	}
}

// remove deletes token and its identity index entry. Caller holds mu.
func (s *MemoryStore) remove(token string) {
	sess, ok := s.sessions[token]
	if !ok {
		return
	}
	delete(s.sessions, token)

	tokens := s.byIdentity[sess.IdentityID]
	for i, t := range tokens {
		if t == token {
			s.byIdentity[sess.IdentityID] = append(tokens[:i], tokens[i+1:]...)
			break
		}
	}
	if len(s.byIdentity[sess.IdentityID]) == 0 {
		delete(s.byIdentity, sess.IdentityID)
	}
}
