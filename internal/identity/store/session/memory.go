// Package session persists login sessions. The redis store is the production
// path so that revocation takes effect across instances immediately; the
// in-memory store backs unit tests and single-node setups.
package session

import (
	"context"
	"sync"
	"time"

	"odontoforense/internal/identity/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[id.SessionID]*models.Session)}
}

func (s *InMemory) Create(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

func (s *InMemory) Find(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

func (s *InMemory) Revoke(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// IsActive reports whether the session exists and has not expired.
func (s *InMemory) IsActive(_ context.Context, sessionID id.SessionID, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return false, nil
	}
	return sess.Active(now), nil
}
