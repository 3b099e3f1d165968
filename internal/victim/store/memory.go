// Package store persists victims. The in-memory store backs unit tests and
// local development; the postgres store is the production path.
package store

import (
	"context"
	"sort"
	"sync"

	"odontoforense/internal/victim/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	victims map[id.VictimID]*models.Victim
}

func NewInMemory() *InMemory {
	return &InMemory{victims: make(map[id.VictimID]*models.Victim)}
}

func cloneVictim(v *models.Victim) *models.Victim {
	out := *v
	if v.PostMortemOdontogram != nil {
		ref := *v.PostMortemOdontogram
		out.PostMortemOdontogram = &ref
	}
	return &out
}

func (s *InMemory) Create(_ context.Context, v *models.Victim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.victims[v.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	for _, existing := range s.victims {
		if existing.CaseID == v.CaseID && existing.VictimCode == v.VictimCode {
			return sentinel.ErrAlreadyExists
		}
	}
	s.victims[v.ID] = cloneVictim(v)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, victimID id.VictimID) (*models.Victim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.victims[victimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneVictim(v), nil
}

func (s *InMemory) ListByCase(_ context.Context, caseID id.CaseID) ([]*models.Victim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Victim
	for _, v := range s.victims {
		if v.CaseID == caseID {
			out = append(out, cloneVictim(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// CaseOf resolves a victim to its owning case.
func (s *InMemory) CaseOf(_ context.Context, victimID id.VictimID) (id.CaseID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.victims[victimID]
	if !ok {
		return id.CaseID{}, sentinel.ErrNotFound
	}
	return v.CaseID, nil
}

func (s *InMemory) Update(_ context.Context, v *models.Victim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.victims[v.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.victims {
		if existing.ID != v.ID && existing.CaseID == v.CaseID && existing.VictimCode == v.VictimCode {
			return sentinel.ErrAlreadyExists
		}
	}
	s.victims[v.ID] = cloneVictim(v)
	return nil
}

func (s *InMemory) Delete(_ context.Context, victimID id.VictimID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.victims[victimID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.victims, victimID)
	return nil
}

// DeleteByCase removes every victim of a case; part of the case delete
// cascade.
func (s *InMemory) DeleteByCase(_ context.Context, caseID id.CaseID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for victimID, v := range s.victims {
		if v.CaseID == caseID {
			delete(s.victims, victimID)
			n++
		}
	}
	return n, nil
}
