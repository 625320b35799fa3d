// Package service implements fixed-window request rate limiting.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"grantgate/internal/platform/config"
	"grantgate/internal/ratelimit/metrics"
	"grantgate/internal/ratelimit/models"
	"grantgate/internal/ratelimit/ports"
)

type Service struct {
	store   ports.CounterStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     config.RateLimitConfig
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg config.RateLimitConfig) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

func New(store ports.CounterStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}

	svc := &Service{
		store: store,
		cfg: config.RateLimitConfig{
			Window:      time.Minute,
			MaxRequests: 100,
			FailOpen:    true,
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Allow decides whether one more request for identifier fits in the current
// fixed window. This is a fixed window, not a sliding one: bursts straddling
// a window boundary can momentarily exceed the intended rate.
func (s *Service) Allow(ctx context.Context, identifier string) (models.Result, error) {
	count, windowStart, err := s.store.Incr(ctx, identifier, s.cfg.Window)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementStoreFailures()
		}
		if !s.cfg.FailOpen {
			s.logger.ErrorContext(ctx, "rate limit check failed, denying",
				"identifier", identifier, "error", err)
			return models.Result{Allowed: false, Limit: s.cfg.MaxRequests, RetryAfter: s.cfg.Window}, err
		}
		s.logger.WarnContext(ctx, "rate limit check failed, allowing",
			"identifier", identifier, "error", err)
		return models.Result{Allowed: true, Limit: s.cfg.MaxRequests}, nil
	}

	resetAt := windowStart.Add(s.cfg.Window)
	result := models.Result{
		Limit:   s.cfg.MaxRequests,
		ResetAt: resetAt,
	}
	if count <= s.cfg.MaxRequests {
		result.Allowed = true
		result.Remaining = s.cfg.MaxRequests - count
		if s.metrics != nil {
			s.metrics.IncrementChecks("allowed")
		}
		return result, nil
	}

	// Rejected callers are told to come back after one full window.
	result.RetryAfter = s.cfg.Window
	if s.metrics != nil {
		s.metrics.IncrementChecks("denied")
	}
	return result, nil
}

// Window exposes the configured window for callers building responses.
func (s *Service) Window() time.Duration {
	return s.cfg.Window
}
