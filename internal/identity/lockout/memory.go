package lockout

import (
	"context"
	"sync"
	"time"
)

type failureWindow struct {
	count     int
	expiresAt time.Time
}

// InMemory keeps lockout state in process memory. Suitable for development
// and tests; production uses the redis store so lockouts survive restarts.
type InMemory struct {
	mu       sync.Mutex
	failures map[string]failureWindow
	locks    map[string]time.Time
	now      func() time.Time
}

// NewInMemory creates an empty in-memory lockout store.
func NewInMemory() *InMemory {
	return &InMemory{
		failures: make(map[string]failureWindow),
		locks:    make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *InMemory) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.failures[key]
	if !ok || now.After(w.expiresAt) {
		w = failureWindow{expiresAt: now.Add(window)}
	}
	w.count++
	s.failures[key] = w
	return w.count, nil
}

func (s *InMemory) Lock(_ context.Context, key string, lockFor time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[key] = s.now().Add(lockFor)
	return nil
}

func (s *InMemory) LockedUntil(_ context.Context, key string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.locks[key]
	if !ok {
		return nil, nil
	}
	if s.now().After(until) {
		delete(s.locks, key)
		return nil, nil
	}
	return &until, nil
}

func (s *InMemory) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, key)
	delete(s.locks, key)
	return nil
}
