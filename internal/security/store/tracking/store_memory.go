// Package tracking provides stores for failed logins, account locks,
// security alerts, and the activity log.
package tracking

import (
	"context"
	"slices"
	"sync"
	"time"

	"grantgate/internal/security/models"
)

// MemoryFailedLoginStore keeps authentication failures in memory.
type MemoryFailedLoginStore struct {
	mu       sync.RWMutex
	failures []models.FailedLoginRecord
}

func NewMemoryFailedLoginStore() *MemoryFailedLoginStore {
	return &MemoryFailedLoginStore{}
}

func (s *MemoryFailedLoginStore) Append(_ context.Context, record models.FailedLoginRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, record)
	return nil
}

func (s *MemoryFailedLoginStore) CountSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, f := range s.failures {
		if f.UserID == userID && !f.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryFailedLoginStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.failures[:0]
	deleted := 0
	for _, f := range s.failures {
		if f.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, f)
	}
	s.failures = kept
	return deleted, nil
}

// MemoryLockStore keeps account lock state in memory.
type MemoryLockStore struct {
	mu    sync.RWMutex
	locks map[string]models.AccountLockState
}

func NewMemoryLockStore() *MemoryLockStore {
	return &MemoryLockStore{locks: make(map[string]models.AccountLockState)}
}

func (s *MemoryLockStore) Get(_ context.Context, userID string) (models.AccountLockState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.locks[userID]; ok {
		return state, nil
	}
	return models.AccountLockState{UserID: userID}, nil
}

func (s *MemoryLockStore) Lock(_ context.Context, userID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.locks[userID]; ok && state.Locked {
		return false, nil
	}
	s.locks[userID] = models.AccountLockState{UserID: userID, Locked: true, LockedAt: at}
	return true, nil
}

// MemoryAlertStore keeps security alerts in memory.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts []models.SecurityAlert
}

func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{}
}

func (s *MemoryAlertStore) Append(_ context.Context, alert models.SecurityAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *MemoryAlertStore) CountSince(_ context.Context, userID string, alertType models.AlertType, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.alerts {
		if a.UserID == userID && a.Type == alertType && !a.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryAlertStore) List(_ context.Context, limit int) ([]models.SecurityAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.alerts)
	slices.SortStableFunc(out, func(a, b models.SecurityAlert) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryActivityStore keeps the activity log in memory.
type MemoryActivityStore struct {
	mu      sync.RWMutex
	entries []models.ActivityEntry
}

func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{}
}

func (s *MemoryActivityStore) Append(_ context.Context, entry models.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryActivityStore) CountSince(_ context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, e := range s.entries {
		if e.UserID == userID && !e.Timestamp.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryActivityStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	deleted := 0
	for _, e := range s.entries {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return deleted, nil
}
