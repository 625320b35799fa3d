// Package counter provides fixed-window counter store implementations.
package counter

import (
	"context"
	"sync"
	"time"

	"grantgate/pkg/requestcontext"
)

type windowCounter struct {
	count       int
	windowStart time.Time
}

// MemoryStore keeps fixed-window counters in a process-local map. State is
// lost on restart and not shared across instances; deployments with more
// than one replica should use the redis store.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*windowCounter),
	}
}

// Incr bumps the counter for key within the current fixed window. Entries
// whose window has elapsed are evicted lazily while we hold the lock, so
// idle identifiers do not accumulate.
func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := requestcontext.Now(ctx)
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, c := range s.counters {
		if c.windowStart.Before(cutoff) {
			delete(s.counters, k)
		}
	}

	c, ok := s.counters[key]
	if !ok {
		c = &windowCounter{windowStart: now}
		s.counters[key] = c
	}
	c.count++
	return c.count, c.windowStart, nil
}

// Len reports the number of live counters. Test hook.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
