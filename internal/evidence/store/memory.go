// Package store persists evidence items. The in-memory store backs unit
// tests and local development; the postgres store is the production path.
package store

import (
	"context"
	"sort"
	"sync"

	"odontoforense/internal/evidence/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	items map[id.EvidenceID]*models.Evidence
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[id.EvidenceID]*models.Evidence)}
}

func cloneEvidence(e *models.Evidence) *models.Evidence {
	out := *e
	if e.Location != nil {
		loc := *e.Location
		out.Location = &loc
	}
	return &out
}

func (s *InMemory) Create(_ context.Context, e *models.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[e.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	s.items[e.ID] = cloneEvidence(e)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, evidenceID id.EvidenceID) (*models.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[evidenceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEvidence(e), nil
}

func (s *InMemory) FindByIDs(_ context.Context, ids []id.EvidenceID) ([]*models.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Evidence
	for _, evidenceID := range ids {
		e, ok := s.items[evidenceID]
		if !ok {
			return nil, sentinel.ErrNotFound
		}
		out = append(out, cloneEvidence(e))
	}
	return out, nil
}

func (s *InMemory) ListByCase(_ context.Context, caseID id.CaseID) ([]*models.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Evidence
	for _, e := range s.items {
		if e.CaseID == caseID {
			out = append(out, cloneEvidence(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, e *models.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.items[e.ID] = cloneEvidence(e)
	return nil
}

func (s *InMemory) Delete(_ context.Context, evidenceID id.EvidenceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[evidenceID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.items, evidenceID)
	return nil
}

// DeleteByCase removes every evidence item of a case; part of the case delete
// cascade.
func (s *InMemory) DeleteByCase(_ context.Context, caseID id.CaseID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for evidenceID, e := range s.items {
		if e.CaseID == caseID {
			delete(s.items, evidenceID)
			n++
		}
	}
	return n, nil
}
