// Package models defines the records kept by the failed-login tracker and
// the activity monitor.
package models

import (
	"time"

	"github.com/google/uuid"
)

// FailedLoginRecord is one authentication failure. Append-only; counted
// within a rolling window to decide lockout.
type FailedLoginRecord struct {
	UserID    string
	IP        string
	Timestamp time.Time
}

// AccountLockState tracks whether an account is locked out. Locking is
// monotonic; unlocking happens outside this pipeline.
type AccountLockState struct {
	UserID   string
	Locked   bool
	LockedAt time.Time
}

// AlertType classifies security alerts.
type AlertType string

const (
	AlertUnusualActivity AlertType = "unusual_activity"
	AlertAccountLocked   AlertType = "account_locked"
)

// SecurityAlert is emitted when a tracker threshold is crossed. Read-only
// after creation.
type SecurityAlert struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"userId"`
	Type      AlertType      `json:"type"`
	Details   map[string]any `json:"details"`
	Timestamp time.Time      `json:"timestamp"`
}

// ActivityEntry is one user-initiated action observed by the monitor.
type ActivityEntry struct {
	ID        uuid.UUID
	UserID    string
	Action    string
	Metadata  map[string]any
	Timestamp time.Time
}
