// Package store persists custody-check runs.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"jailcheck/internal/custody/models"
	"jailcheck/pkg/platform/sentinel"
)

// MemoryStore keeps runs in process memory. It is the default for CLI runs
// and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[uuid.UUID]*models.Run
	order []uuid.UUID
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{runs: make(map[uuid.UUID]*models.Run)}
}

// Save stores run, replacing any run with the same ID.
func (s *MemoryStore) Save(_ context.Context, run *models.Run) error {
	if run == nil {
		return errRunRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

// Find returns the run with id or sentinel.ErrNotFound.
func (s *MemoryStore) Find(_ context.Context, id uuid.UUID) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

// List returns up to limit runs, most recently started first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Run, 0, len(s.runs))
	for _, id := range s.order {
		cp := *s.runs[id]
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, newestFirst)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// newestFirst orders by start time descending; ties keep save order.
func newestFirst(a, b *models.Run) int {
	return b.StartedAt.Compare(a.StartedAt)
}
