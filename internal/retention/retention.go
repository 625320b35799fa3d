// Package retention deletes data that has outlived its configured retention
// window: stale personal information, old documents, and aged audit logs.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	auditmodels "grantgate/internal/audit/models"
	"grantgate/internal/retention/metrics"
)

// Policy maps each data category to its retention in days. Loaded once at
// startup and immutable afterwards.
type Policy struct {
	PersonalInfoDays int
	DocumentDays     int
	AuditLogDays     int
}

func DefaultPolicy() Policy {
	return Policy{
		PersonalInfoDays: 365,
		DocumentDays:     730,
		AuditLogDays:     1825,
	}
}

// Prunable is any store that can delete records older than a cutoff.
type Prunable interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// AuditRecorder receives the cleanup event appended after each sweep.
type AuditRecorder interface {
	Append(ctx context.Context, event auditmodels.Event) error
}

type Sweeper struct {
	policy       Policy
	personalInfo Prunable
	documents    Prunable
	auditLogs    Prunable
	audit        AuditRecorder
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

func NewSweeper(policy Policy, personalInfo, documents, auditLogs Prunable, audit AuditRecorder, opts ...Option) (*Sweeper, error) {
	if personalInfo == nil || documents == nil || auditLogs == nil {
		return nil, errors.New("all three prunable stores are required")
	}
	if audit == nil {
		return nil, errors.New("audit recorder is required")
	}

	s := &Sweeper{
		policy:       policy,
		personalInfo: personalInfo,
		documents:    documents,
		auditLogs:    auditLogs,
		audit:        audit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Sweep deletes records strictly older than each category's cutoff, then
// appends one audit event recording the cutoffs used. Categories are swept
// independently; the cleanup event covers whatever did succeed, but any
// category failure fails the whole sweep.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) error {
	start := time.Now()
	personalInfoCutoff := now.AddDate(0, 0, -s.policy.PersonalInfoDays)
	documentsCutoff := now.AddDate(0, 0, -s.policy.DocumentDays)
	auditLogsCutoff := now.AddDate(0, 0, -s.policy.AuditLogDays)

	var errs []error
	sweepCategory := func(category string, store Prunable, cutoff time.Time) int {
		deleted, err := store.DeleteBefore(ctx, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep %s: %w", category, err))
			return 0
		}
		if s.metrics != nil {
			s.metrics.AddDeleted(category, deleted)
		}
		s.logger.InfoContext(ctx, "retention category swept",
			"category", category,
			"cutoff", cutoff.Format(time.RFC3339),
			"deleted", deleted,
		)
		return deleted
	}

	personalDeleted := sweepCategory("personal_info", s.personalInfo, personalInfoCutoff)
	documentsDeleted := sweepCategory("documents", s.documents, documentsCutoff)
	auditDeleted := sweepCategory("audit_logs", s.auditLogs, auditLogsCutoff)

	event := auditmodels.Event{
		UserID: auditmodels.SystemUserID,
		Action: auditmodels.ActionDelete,
		Resource: auditmodels.Resource{
			Type: "data_cleanup",
			ID:   now.Format(time.RFC3339),
		},
		Status:    auditmodels.StatusSuccess,
		Timestamp: now,
		Metadata: auditmodels.Metadata{
			Changes: map[string]any{
				"personalInfoCutoff":  personalInfoCutoff.Format(time.RFC3339),
				"documentsCutoff":     documentsCutoff.Format(time.RFC3339),
				"auditLogsCutoff":     auditLogsCutoff.Format(time.RFC3339),
				"personalInfoDeleted": personalDeleted,
				"documentsDeleted":    documentsDeleted,
				"auditLogsDeleted":    auditDeleted,
			},
		},
	}
	if len(errs) > 0 {
		event.Status = auditmodels.StatusFailure
	}
	if err := s.audit.Append(ctx, event); err != nil {
		errs = append(errs, fmt.Errorf("append cleanup event: %w", err))
	}

	if s.metrics != nil {
		s.metrics.ObserveSweepDuration(time.Since(start).Seconds())
	}
	if len(errs) > 0 {
		if s.metrics != nil {
			s.metrics.IncrementSweeps("failed")
		}
		return errors.Join(errs...)
	}
	if s.metrics != nil {
		s.metrics.IncrementSweeps("succeeded")
	}
	return nil
}
