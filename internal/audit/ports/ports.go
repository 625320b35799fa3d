// Package ports defines shared interfaces for the audit module.
package ports

import (
	"context"
	"time"

	"grantgate/internal/audit/models"
)

// Store persists audit events.
type Store interface {
	// Append writes one event. Events are immutable once written.
	Append(ctx context.Context, event models.Event) error

	// Query returns the page of matching events ordered by timestamp
	// descending, plus the total count of the filtered set.
	Query(ctx context.Context, filter models.Filter, page, pageSize int) ([]models.Event, int, error)

	// DeleteBefore removes events with a timestamp strictly before cutoff
	// and returns the number deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}
