// Package events provides audit event store implementations.
package events

import (
	"context"
	"slices"
	"sync"
	"time"

	"grantgate/internal/audit/models"
)

// MemoryStore is an in-memory audit event store for tests and development.
// Events are held in submission order; reads sort newest first.
type MemoryStore struct {
	mu     sync.RWMutex
	events []models.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, filter models.Filter, page, pageSize int) ([]models.Event, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Event
	for _, e := range s.events {
		if filter.Matches(e) {
			matched = append(matched, e)
		}
	}

	// Newest first; the stable sort keeps submission order for equal
	// timestamps.
	slices.SortStableFunc(matched, func(a, b models.Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	total := len(matched)

	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := min(start+pageSize, total)
	return slices.Clone(matched[start:end]), total, nil
}

func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	deleted := 0
	for _, e := range s.events {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}
