// Package activity persists the per-user activity log and raises alerts on
// unusual volume.
package activity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"grantgate/internal/security/metrics"
	"grantgate/internal/security/models"
	"grantgate/internal/security/ports"
	dErrors "grantgate/pkg/domain-errors"
	"grantgate/pkg/requestcontext"
)

type Config struct {
	Threshold int
	Window    time.Duration
	// AlertOncePerWindow suppresses repeated unusual_activity alerts for the
	// same user within one window. Off by default: every crossing alerts.
	AlertOncePerWindow bool
	// FailOpen logs and continues when the activity store is down instead of
	// failing the caller's request.
	FailOpen bool
}

func DefaultConfig() Config {
	return Config{
		Threshold: 50,
		Window:    5 * time.Minute,
		FailOpen:  true,
	}
}

type Service struct {
	activity ports.ActivityStore
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

func New(activity ports.ActivityStore, alerts ports.AlertStore, opts ...Option) (*Service, error) {
	if activity == nil || alerts == nil {
		return nil, errors.New("activity and alert stores are required")
	}

	svc := &Service{
		activity: activity,
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

// Record persists one user action and raises an unusual_activity alert when
// the trailing-window count reaches the threshold.
func (s *Service) Record(ctx context.Context, userID, action string, metadata map[string]any) error {
	if userID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}

	now := requestcontext.Now(ctx)
	entry := models.ActivityEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    action,
		Metadata:  enrich(ctx, metadata),
		Timestamp: now,
	}

	if err := s.activity.Append(ctx, entry); err != nil {
		if !s.cfg.FailOpen {
			return dErrors.Wrap(err, dErrors.CodeInternal, "record activity")
		}
		s.logger.WarnContext(ctx, "failed to record activity, continuing",
			"user_id", userID, "action", action, "error", err)
		return nil
	}
	if s.metrics != nil {
		s.metrics.IncrementActivity()
	}

	windowStart := now.Add(-s.cfg.Window)
	count, err := s.activity.CountSince(ctx, userID, windowStart)
	if err != nil {
		if !s.cfg.FailOpen {
			return dErrors.Wrap(err, dErrors.CodeInternal, "count activity")
		}
		s.logger.WarnContext(ctx, "failed to count activity, continuing",
			"user_id", userID, "error", err)
		return nil
	}
	if count < s.cfg.Threshold {
		return nil
	}

	if s.cfg.AlertOncePerWindow {
		existing, err := s.alerts.CountSince(ctx, userID, models.AlertUnusualActivity, windowStart)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to check alert dedupe window",
				"user_id", userID, "error", err)
		} else if existing > 0 {
			return nil
		}
	}

	alert := models.SecurityAlert{
		ID:     uuid.New(),
		UserID: userID,
		Type:   models.AlertUnusualActivity,
		Details: map[string]any{
			"count":      count,
			"timeWindow": s.cfg.Window.String(),
			"action":     action,
			"metadata":   entry.Metadata,
		},
		Timestamp: now,
	}
	if err := s.alerts.Append(ctx, alert); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist unusual activity alert",
			"user_id", userID, "error", err)
		return nil
	}
	if s.metrics != nil {
		s.metrics.IncrementAlerts(string(models.AlertUnusualActivity))
	}
	s.logger.WarnContext(ctx, "unusual activity detected",
		"user_id", userID,
		"count", count,
		"window", s.cfg.Window.String(),
		"event", "unusual_activity",
		"log_type", "audit",
	)
	return nil
}

// enrich adds the client classification derived from the request's user
// agent. The caller's metadata wins on key collisions.
func enrich(ctx context.Context, metadata map[string]any) map[string]any {
	ua := requestcontext.UserAgent(ctx)
	if ua == "" {
		return metadata
	}

	out := make(map[string]any, len(metadata)+1)
	parsed := useragent.New(ua)
	if parsed.Bot() {
		out["client"] = "bot"
	} else if name, version := parsed.Browser(); name != "" {
		out["client"] = name + "/" + version
	}
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
