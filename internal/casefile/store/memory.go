package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"odontoforense/internal/casefile/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
)

// InMemory keeps cases in process. Used by unit tests and local runs without
// a database.
type InMemory struct {
	mu    sync.RWMutex
	cases map[id.CaseID]*models.Case
}

func NewInMemory() *InMemory {
	return &InMemory{cases: make(map[id.CaseID]*models.Case)}
}

func cloneCase(c *models.Case) *models.Case {
	cp := *c
	cp.Team = append([]id.UserID{}, c.Team...)
	return &cp
}

func (s *InMemory) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.cases[c.ID] = cloneCase(c)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCase(c), nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Case
	for _, c := range s.cases {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.NameContains != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.NameContains)) {
			continue
		}
		out = append(out, cloneCase(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update persists the case iff the stored version matches the version the
// caller's copy was read at. On success the version is bumped on both the
// stored and the caller's copy.
func (s *InMemory) Update(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != c.Version {
		return sentinel.ErrConflict
	}
	c.Version++
	s.cases[c.ID] = cloneCase(c)
	return nil
}

// Execute atomically validates and mutates one case while holding the store
// lock, then bumps the version. Mirrors the postgres FOR UPDATE flow.
func (s *InMemory) Execute(_ context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	work := cloneCase(current)
	if err := validate(work); err != nil {
		return nil, err
	}
	mutate(work)
	work.Version++
	s.cases[caseID] = cloneCase(work)
	return work, nil
}

func (s *InMemory) Delete(_ context.Context, caseID id.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[caseID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cases, caseID)
	return nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cases), nil
}
