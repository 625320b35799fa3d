// Package models defines rate limiter result types.
package models

import "time"

// Result describes the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is how long a rejected caller should wait. Zero when
	// Allowed.
	RetryAfter time.Duration
}
