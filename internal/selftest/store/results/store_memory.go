// Package results provides self-test result store implementations.
package results

import (
	"context"
	"slices"
	"sync"
	"time"

	"grantgate/internal/selftest/models"
)

// MemoryStore keeps self-test results in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	results []models.Result
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AppendBatch(_ context.Context, results []models.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, results...)
	return nil
}

func (s *MemoryStore) ListBetween(_ context.Context, start, end time.Time) ([]models.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Result
	for _, r := range s.results {
		if r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b models.Result) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, nil
}
