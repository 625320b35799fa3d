// Package userdata provides the prunable boundary stores the retention
// sweeper deletes from: stale personal information and old documents. The
// rest of the application owns these records; retention only ever deletes.
package userdata

import (
	"context"
	"sync"
	"time"
)

// MemoryPersonalInfoStore tracks per-user last activity in memory.
type MemoryPersonalInfoStore struct {
	mu           sync.Mutex
	lastActivity map[string]time.Time
}

func NewMemoryPersonalInfoStore() *MemoryPersonalInfoStore {
	return &MemoryPersonalInfoStore{lastActivity: make(map[string]time.Time)}
}

// Touch records activity for a user. Test and seed hook.
func (s *MemoryPersonalInfoStore) Touch(userID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity[userID] = at
}

func (s *MemoryPersonalInfoStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for userID, at := range s.lastActivity {
		if at.Before(cutoff) {
			delete(s.lastActivity, userID)
			deleted++
		}
	}
	return deleted, nil
}

// Len reports the number of retained users. Test hook.
func (s *MemoryPersonalInfoStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lastActivity)
}

// MemoryDocumentStore tracks document creation times in memory.
type MemoryDocumentStore struct {
	mu        sync.Mutex
	createdAt map[string]time.Time
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{createdAt: make(map[string]time.Time)}
}

// Add records a document. Test and seed hook.
func (s *MemoryDocumentStore) Add(docID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createdAt[docID] = at
}

func (s *MemoryDocumentStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for docID, at := range s.createdAt {
		if at.Before(cutoff) {
			delete(s.createdAt, docID)
			deleted++
		}
	}
	return deleted, nil
}

// Len reports the number of retained documents. Test hook.
func (s *MemoryDocumentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.createdAt)
}
