// Package user persists identities. The in-memory store backs unit tests and
// local development; the postgres store is the production path.
package user

import (
	"context"
	"sort"
	"strings"
	"sync"

	"odontoforense/internal/identity/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.UserID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	out := *u
	return &out
}

func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return sentinel.ErrAlreadyExists
		}
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// SearchEligible returns team-eligible identities whose name or email
// contains the query, case-insensitively. An empty query returns all of them.
func (s *InMemory) SearchEligible(_ context.Context, query string) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query = strings.ToLower(query)
	var out []*models.User
	for _, u := range s.users {
		if !u.Role.TeamEligible() {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(u.Name), query) &&
			!strings.Contains(u.Email, query) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
