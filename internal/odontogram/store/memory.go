// Package store persists odontograms. The post-mortem-per-victim uniqueness
// lives here: the memory store checks under its lock, the postgres store
// relies on a partial unique index.
package store

import (
	"context"
	"sort"
	"sync"

	"odontoforense/internal/odontogram/models"
	id "odontoforense/pkg/domain"
	"odontoforense/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	charts map[id.OdontogramID]*models.Odontogram
}

func NewInMemory() *InMemory {
	return &InMemory{charts: make(map[id.OdontogramID]*models.Odontogram)}
}

func cloneChart(o *models.Odontogram) *models.Odontogram {
	out := *o
	out.Teeth = make(map[string]models.ToothRecord, len(o.Teeth))
	for fdi, record := range o.Teeth {
		out.Teeth[fdi] = record
	}
	return &out
}

func (s *InMemory) Create(_ context.Context, o *models.Odontogram) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.charts[o.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	if o.Type == models.TypePostMortem {
		for _, existing := range s.charts {
			if existing.VictimID == o.VictimID && existing.Type == models.TypePostMortem {
				return sentinel.ErrAlreadyExists
			}
		}
	}
	s.charts[o.ID] = cloneChart(o)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, chartID id.OdontogramID) (*models.Odontogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.charts[chartID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneChart(o), nil
}

func (s *InMemory) ListByVictim(_ context.Context, victimID id.VictimID) ([]*models.Odontogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Odontogram
	for _, o := range s.charts {
		if o.VictimID == victimID {
			out = append(out, cloneChart(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// PostMortemOf returns the victim's post-mortem chart reference, or nil when
// none exists.
func (s *InMemory) PostMortemOf(_ context.Context, victimID id.VictimID) (*id.OdontogramID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.charts {
		if o.VictimID == victimID && o.Type == models.TypePostMortem {
			ref := o.ID
			return &ref, nil
		}
	}
	return nil, nil
}

// Update persists the chart iff the stored version matches the version the
// caller's copy was read at. On success the version is bumped on both copies.
func (s *InMemory) Update(_ context.Context, o *models.Odontogram) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.charts[o.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != o.Version {
		return sentinel.ErrConflict
	}
	o.Version++
	s.charts[o.ID] = cloneChart(o)
	return nil
}

func (s *InMemory) Delete(_ context.Context, chartID id.OdontogramID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.charts[chartID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.charts, chartID)
	return nil
}

// DeleteByVictim removes all of a victim's charts; part of the victim delete
// cascade.
func (s *InMemory) DeleteByVictim(_ context.Context, victimID id.VictimID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for chartID, o := range s.charts {
		if o.VictimID == victimID {
			delete(s.charts, chartID)
			n++
		}
	}
	return n, nil
}

// DeleteByCase removes every chart under a case; part of the case delete
// cascade.
func (s *InMemory) DeleteByCase(_ context.Context, caseID id.CaseID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for chartID, o := range s.charts {
		if o.CaseID == caseID {
			delete(s.charts, chartID)
			n++
		}
	}
	return n, nil
}
