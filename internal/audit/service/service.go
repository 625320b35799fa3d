// Package service implements the audit trail: append, filtered query, and
// streaming export of immutable security events.
package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"grantgate/internal/audit/metrics"
	"grantgate/internal/audit/models"
	"grantgate/internal/audit/ports"
	dErrors "grantgate/pkg/domain-errors"
	"grantgate/pkg/requestcontext"
)

// exportPageSize is the page size used when re-paging a full export.
const exportPageSize = 500

type Service struct {
	store   ports.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
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

func New(store ports.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}

	svc := &Service{
		store:  store,
		tracer: otel.Tracer("grantgate/audit"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// Append validates and persists one event. A zero ID gets a fresh uuid and a
// zero timestamp is stamped from the request clock. Persistence failures are
// surfaced to the caller, who owns the fail-open decision.
func (s *Service) Append(ctx context.Context, event models.Event) error {
	ctx, span := s.tracer.Start(ctx, "audit.Append",
		trace.WithAttributes(
			attribute.String("audit.action", string(event.Action)),
			attribute.String("audit.resource_type", event.Resource.Type),
		))
	defer span.End()

	if !event.Action.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid audit action")
	}
	if event.Status == "" {
		event.Status = models.StatusSuccess
	}
	if !event.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid audit status")
	}
	if event.UserID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "audit event requires a user id")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	if err := s.store.Append(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementAppendFailures()
		}
		s.logger.ErrorContext(ctx, "audit append failed",
			"action", string(event.Action),
			"resource_type", event.Resource.Type,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "append audit event")
	}

	if s.metrics != nil {
		s.metrics.IncrementAppended(string(event.Action), string(event.Status))
	}
	return nil
}

// Query returns one page of matching events, newest first, plus the total
// size of the filtered set.
func (s *Service) Query(ctx context.Context, filter models.Filter, page, pageSize int) ([]models.Event, int, error) {
	ctx, span := s.tracer.Start(ctx, "audit.Query")
	defer span.End()

	if pageSize < 1 {
		pageSize = 50
	}
	start := time.Now()
	events, total, err := s.store.Query(ctx, filter, page, pageSize)
	if s.metrics != nil {
		s.metrics.ObserveQueryDuration(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "query audit events")
	}
	return events, total, nil
}

// Export streams every matching event by re-paging until an empty page.
// There is no snapshot isolation: writes racing the export may shift pages.
func (s *Service) Export(ctx context.Context, filter models.Filter) iter.Seq2[models.Event, error] {
	return func(yield func(models.Event, error) bool) {
		for page := 1; ; page++ {
			events, _, err := s.store.Query(ctx, filter, page, exportPageSize)
			if err != nil {
				yield(models.Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "export audit events"))
				return
			}
			if len(events) == 0 {
				return
			}
			for _, e := range events {
				if !yield(e, nil) {
					return
				}
			}
		}
	}
}

// DeleteBefore removes events older than cutoff. Used by the retention sweep.
func (s *Service) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "audit.DeleteBefore")
	defer span.End()

	n, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "delete audit events")
	}
	return n, nil
}
