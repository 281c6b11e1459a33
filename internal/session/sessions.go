package session

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"classhub/internal/models"
)

// Store is the pluggable session registry: opaque token in, identity
// out. The memory implementation is the default; a redis-backed one
// exists for deployments that must survive restarts.
type Store interface {
	// Create issues a token for the given username.
	Create(ctx context.Context, username string) (models.Session, error)
	// Validate resolves a token. It returns nil for unknown or expired
	// tokens and lazily deletes expired entries.
	Validate(ctx context.Context, token string) (*models.Session, error)
	// Revoke removes a token unconditionally. Idempotent.
	Revoke(ctx context.Context, token string) error
	// Sweep removes every expired entry and returns how many it
	// removed. Backends with native expiry may return 0.
	Sweep(ctx context.Context) (int, error)
}

// newToken generates a session token. KSUIDs carry a timestamp plus
// 128 bits of entropy, which replaces the guessable random-fragment
// scheme of the first dashboard build.
func newToken() string {
	return ksuid.New().String()
}

// expired reports whether a session created at createdAt has outlived
// ttl. A session aged exactly ttl is still valid.
func expired(createdAt time.Time, ttl time.Duration, now time.Time) bool {
	return now.Sub(createdAt) > ttl
}

// MemoryStore keeps sessions in-process. Sessions do not survive a
// restart, matching the original dashboard behavior.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates an empty in-process registry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, username string) (models.Session, error) {
	sess := models.Session{
		Token:     newToken(),
		Username:  username,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *MemoryStore) Validate(_ context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}

	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if expired(sess.CreatedAt, s.ttl, s.now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, nil
	}
	return &sess, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, sess := range s.sessions {
		if expired(sess.CreatedAt, s.ttl, now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of live entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
