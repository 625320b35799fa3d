// Package logins tracks authentication failures and locks accounts that
// cross the failure threshold.
package logins

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"grantgate/internal/security/metrics"
	"grantgate/internal/security/models"
	"grantgate/internal/security/ports"
	dErrors "grantgate/pkg/domain-errors"
	"grantgate/pkg/requestcontext"
)

type Config struct {
	Threshold int
	Window    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Threshold: 5,
		Window:    30 * time.Minute,
	}
}

type Service struct {
	failures ports.FailedLoginStore
	locks    ports.LockStore
	alerts   ports.AlertStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cfg      Config
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

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

func New(failures ports.FailedLoginStore, locks ports.LockStore, alerts ports.AlertStore, opts ...Option) (*Service, error) {
	if failures == nil || locks == nil || alerts == nil {
		return nil, errors.New("failed login, lock, and alert stores are required")
	}

	svc := &Service{
		failures: failures,
		locks:    locks,
		alerts:   alerts,
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// RecordFailure appends one authentication failure and reports whether this
// failure caused a lockout. The lockout transition is monotonic: an account
// that is already locked never re-alerts, and later failures return false.
func (s *Service) RecordFailure(ctx context.Context, userID, ip string) (bool, error) {
	if userID == "" {
		return false, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}

	now := requestcontext.Now(ctx)
	record := models.FailedLoginRecord{UserID: userID, IP: ip, Timestamp: now}
	if err := s.failures.Append(ctx, record); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "record login failure")
	}
	if s.metrics != nil {
		s.metrics.IncrementFailedLogins()
	}

	count, err := s.failures.CountSince(ctx, userID, now.Add(-s.cfg.Window))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "count login failures")
	}
	if count < s.cfg.Threshold {
		return false, nil
	}

	// The store decides the transition atomically; of any number of
	// concurrent threshold-crossing reports, exactly one sees true here.
	transitioned, err := s.locks.Lock(ctx, userID, now)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "lock account")
	}
	if !transitioned {
		return false, nil
	}
	if s.metrics != nil {
		s.metrics.IncrementLockouts()
	}
	s.logger.WarnContext(ctx, "account locked",
		"user_id", userID,
		"failed_attempts", count,
		"event", "account_locked",
		"log_type", "audit",
	)

	alert := models.SecurityAlert{
		ID:     uuid.New(),
		UserID: userID,
		Type:   models.AlertAccountLocked,
		Details: map[string]any{
			"failedAttempts": count,
			"ip":             ip,
		},
		Timestamp: now,
	}
	if err := s.alerts.Append(ctx, alert); err != nil {
		// The lock already happened; a broken alert store must not undo it.
		s.logger.ErrorContext(ctx, "failed to persist lockout alert",
			"user_id", userID, "error", err)
	} else if s.metrics != nil {
		s.metrics.IncrementAlerts(string(models.AlertAccountLocked))
	}

	return true, nil
}

// IsLocked reports the current lock state for userID.
func (s *Service) IsLocked(ctx context.Context, userID string) (bool, error) {
	state, err := s.locks.Get(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "read lock state")
	}
	return state.Locked, nil
}
