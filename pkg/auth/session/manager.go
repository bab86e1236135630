package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrInvalidSession is returned when a token's session is missing or revoked.
var ErrInvalidSession = errors.New("invalid admin session")

// Store persists live admin token ids. *redis.Client satisfies it.
type Store interface {
	StoreAdminSession(ctx context.Context, jti string, ttl time.Duration) error
	HasAdminSession(ctx context.Context, jti string) (bool, error)
	RevokeAdminSession(ctx context.Context, jti string) error
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	HasSession(ctx context.Context, jti string) (bool, error)
}

// Manager tracks which admin tokens are still live so logout can revoke a
// token before it expires.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager builds a manager; ttl should match the admin token lifetime.
func NewManager(store Store, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Start records jti as live.
func (m *Manager) Start(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("jti is required")
	}
	return m.store.StoreAdminSession(ctx, jti, m.ttl)
}

// HasSession reports whether jti is still live.
func (m *Manager) HasSession(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, fmt.Errorf("jti is required")
	}
	return m.store.HasAdminSession(ctx, jti)
}

// Revoke ends the session for jti.
func (m *Manager) Revoke(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("jti is required")
	}
	return m.store.RevokeAdminSession(ctx, jti)
}

// MemoryStore keeps sessions in process for installs without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{sessions: make(map[string]time.Time), now: now}
}

func (s *MemoryStore) StoreAdminSession(_ context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.sessions[jti] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) HasAdminSession(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires, ok := s.sessions[jti]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expires) {
		delete(s.sessions, jti)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) RevokeAdminSession(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, jti)
	return nil
}

// prune drops expired entries; callers hold mu.
func (s *MemoryStore) prune() {
	now := s.now()
	for jti, expires := range s.sessions {
		if !now.Before(expires) {
			delete(s.sessions, jti)
		}
	}
}
