// Package ports defines shared interfaces for the ratelimit module.
package ports

import (
	"context"
	"time"

	auditmodels "grantgate/internal/audit/models"
)

// CounterStore increments fixed-window request counters. Incr returns the
// count within the current window including this call; a missing or
// rolled-over counter restarts at 1. Increment-and-read is atomic per key.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, windowStart time.Time, err error)
}

// AuditRecorder lets the limiter emit audit events without depending on the
// audit service directly.
type AuditRecorder interface {
	Append(ctx context.Context, event auditmodels.Event) error
}
