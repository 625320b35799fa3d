// Package middleware feeds authenticated requests into the activity monitor.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"grantgate/pkg/requestcontext"
)

// Recorder is the activity monitor surface the middleware needs.
type Recorder interface {
	Record(ctx context.Context, userID, action string, metadata map[string]any) error
}

// ActivityTracker records one activity entry per authenticated request after
// the response is written. Requests rejected by the rate limiter are skipped
// unless countRateLimited is set.
type ActivityTracker struct {
	recorder         Recorder
	countRateLimited bool
	logger           *slog.Logger
}

func NewActivityTracker(recorder Recorder, countRateLimited bool, logger *slog.Logger) *ActivityTracker {
	return &ActivityTracker{
		recorder:         recorder,
		countRateLimited: countRateLimited,
		logger:           logger,
	}
}

// Track wraps next and records the request against the caller's activity
// window. Recording never fails the request; the response has already been
// written by the time the monitor runs.
func (t *ActivityTracker) Track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ctx := r.Context()
		if rec.status == http.StatusTooManyRequests && !t.countRateLimited {
			return
		}
		userID := requestcontext.UserID(ctx)
		if userID == "" {
			return
		}

		action := r.Method + " " + r.URL.Path
		err := t.recorder.Record(ctx, userID, action, map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": rec.status,
		})
		if err != nil {
			t.logger.WarnContext(ctx, "activity recording failed",
				"user_id", userID,
				"action", action,
				"error", err,
			)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
