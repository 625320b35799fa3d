// Package middleware gates HTTP traffic through the rate limiter.
package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	auditmodels "grantgate/internal/audit/models"
	"grantgate/internal/ratelimit/models"
	"grantgate/internal/ratelimit/ports"
	"grantgate/pkg/platform/httputil"
	"grantgate/pkg/requestcontext"
)

// Limiter is the slice of the rate limit service the middleware needs.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (models.Result, error)
}

type Middleware struct {
	limiter Limiter
	audit   ports.AuditRecorder
	logger  *slog.Logger
}

func New(limiter Limiter, audit ports.AuditRecorder, logger *slog.Logger) *Middleware {
	return &Middleware{
		limiter: limiter,
		audit:   audit,
		logger:  logger,
	}
}

// RateLimit rejects requests that exceed the caller's fixed-window budget.
// The identifier is ip:route so one noisy client cannot starve a whole
// route for everyone.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		identifier := requestcontext.ClientIP(ctx) + ":" + r.URL.Path

		result, _ := m.limiter.Allow(ctx, identifier)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			m.recordRejection(ctx, r)
			writeRateLimitExceeded(w, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recordRejection emits a failure audit event for the rejected request.
// Emission is fail-open: a broken audit store must not turn a 429 into a 500.
func (m *Middleware) recordRejection(ctx context.Context, r *http.Request) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		userID = "anonymous"
	}

	event := auditmodels.Event{
		UserID:   userID,
		Action:   auditmodels.ActionRead,
		Resource: auditmodels.Resource{Type: "rate_limit", ID: r.URL.Path},
		Status:   auditmodels.StatusFailure,
		Metadata: auditmodels.Metadata{
			IP:        requestcontext.ClientIP(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
			RequestID: requestcontext.RequestID(ctx),
			Changes:   map[string]any{"method": r.Method, "path": r.URL.Path},
		},
	}
	if m.audit == nil {
		return
	}
	if err := m.audit.Append(ctx, event); err != nil {
		m.logger.WarnContext(ctx, "failed to audit rate limit rejection",
			"path", r.URL.Path, "error", err)
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, result models.Result) {
	retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":      "Too many requests",
		"retryAfter": retryAfter,
	})
}
