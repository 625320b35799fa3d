// Package ports defines shared interfaces for the security module.
package ports

import (
	"context"
	"time"

	"grantgate/internal/security/models"
)

// FailedLoginStore persists authentication failures.
type FailedLoginStore interface {
	Append(ctx context.Context, record models.FailedLoginRecord) error

	// CountSince returns the number of failures for userID with a timestamp
	// at or after since.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)

	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// LockStore tracks account lock state.
type LockStore interface {
	// Get returns the lock state for userID; an unknown user is unlocked.
	Get(ctx context.Context, userID string) (models.AccountLockState, error)

	// Lock marks userID locked at the given instant and reports whether
	// this call performed the transition. Locking an already locked account
	// is a no-op returning false; the check and the write are atomic so
	// concurrent callers see exactly one true.
	Lock(ctx context.Context, userID string, at time.Time) (bool, error)
}

// AlertStore persists security alerts.
type AlertStore interface {
	Append(ctx context.Context, alert models.SecurityAlert) error

	// CountSince returns how many alerts of the given type exist for userID
	// at or after since. Used to deduplicate alerts within a window.
	CountSince(ctx context.Context, userID string, alertType models.AlertType, since time.Time) (int, error)

	// List returns alerts newest first, at most limit.
	List(ctx context.Context, limit int) ([]models.SecurityAlert, error)
}

// ActivityStore persists the activity log.
type ActivityStore interface {
	Append(ctx context.Context, entry models.ActivityEntry) error
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}
