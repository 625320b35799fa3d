// Package selftest runs the security self-test battery and aggregates its
// results into operator reports. The engine is a scoring and reporting
// framework over pluggable checks, not a real scanner.
package selftest

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"grantgate/internal/selftest/metrics"
	"grantgate/internal/selftest/models"
	"grantgate/internal/selftest/ports"
	dErrors "grantgate/pkg/domain-errors"
	"grantgate/pkg/requestcontext"
)

const recentTestCount = 10

// ValidateSettings is the slice of live configuration ValidateConfig
// inspects.
type ValidateSettings struct {
	CORSOrigins []string
	MFARequired bool
}

type Engine struct {
	store    ports.ResultStore
	checks   []Check
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	settings ValidateSettings
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithValidateSettings(settings ValidateSettings) Option {
	return func(e *Engine) {
		e.settings = settings
	}
}

// WithProbeRate throttles check execution to r checks started per second.
func WithProbeRate(r float64) Option {
	return func(e *Engine) {
		e.limiter = rate.NewLimiter(rate.Limit(r), 1)
	}
}

func New(store ports.ResultStore, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("result store is required")
	}

	e := &Engine{
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(5), 1),
		tracer:  otel.Tracer("grantgate/selftest"),
		settings: ValidateSettings{
			MFARequired: true,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Register adds a check to the battery. Not safe to call once RunAll may be
// running.
func (e *Engine) Register(check Check) {
	e.checks = append(e.checks, check)
}

// RunAll executes every registered check, persists the batch, and returns
// the outcome counts. A check error or a storage failure fails the run;
// results persisted before the failure stay persisted.
func (e *Engine) RunAll(ctx context.Context) (models.RunSummary, error) {
	ctx, span := e.tracer.Start(ctx, "selftest.RunAll")
	defer span.End()

	start := time.Now()
	now := requestcontext.Now(ctx)

	var (
		mu      sync.Mutex
		results []models.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, check := range e.checks {
		g.Go(func() error {
			if err := e.limiter.Wait(gctx); err != nil {
				return err
			}
			batch, err := check(gctx)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, batch...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if e.metrics != nil {
			e.metrics.IncrementRuns("failed")
		}
		return models.RunSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "run security checks")
	}

	for i := range results {
		if results[i].Timestamp.IsZero() {
			results[i].Timestamp = now
		}
	}
	// Stable order for callers; concurrent checks finish in any order.
	slices.SortStableFunc(results, func(a, b models.Result) int {
		if a.TestID < b.TestID {
			return -1
		}
		if a.TestID > b.TestID {
			return 1
		}
		return 0
	})

	if err := e.store.AppendBatch(ctx, results); err != nil {
		if e.metrics != nil {
			e.metrics.IncrementRuns("failed")
		}
		return models.RunSummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "persist security test results")
	}

	summary := summarize(results)
	if e.metrics != nil {
		for _, r := range results {
			e.metrics.IncrementResults(string(r.Status))
		}
		e.metrics.IncrementRuns("succeeded")
		e.metrics.ObserveRunDuration(time.Since(start).Seconds())
	}
	e.logger.InfoContext(ctx, "security self-test run completed",
		"passed", summary.Passed,
		"failed", summary.Failed,
		"warnings", summary.Warnings,
		"event", "selftest_run",
		"log_type", "audit",
	)
	return summary, nil
}

// ValidateConfig inspects live configuration and persists its findings using
// the same result shape as the check battery.
func (e *Engine) ValidateConfig(ctx context.Context) ([]models.Result, error) {
	ctx, span := e.tracer.Start(ctx, "selftest.ValidateConfig")
	defer span.End()

	now := requestcontext.Now(ctx)
	var results []models.Result

	if slices.Contains(e.settings.CORSOrigins, "*") {
		results = append(results, models.Result{
			TestID: "cors-check",
			Type:   models.TypeStatic,
			Name:   "CORS Configuration",
			Status: models.StatusFailed,
			Details: models.Details{
				Description: "Wildcard CORS origin detected",
				Severity:    models.SeverityHigh,
				Remediation: "Specify allowed origins explicitly",
			},
			Timestamp: now,
		})
	}

	if !e.settings.MFARequired {
		results = append(results, models.Result{
			TestID: "auth-check",
			Type:   models.TypeStatic,
			Name:   "Authentication Settings",
			Status: models.StatusWarning,
			Details: models.Details{
				Description: "MFA is not enabled",
				Severity:    models.SeverityMedium,
				Remediation: "Enable MFA for enhanced security",
			},
			Timestamp: now,
		})
	}

	if err := e.store.AppendBatch(ctx, results); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist config findings")
	}
	return results, nil
}

// Report aggregates persisted results in [start, end].
func (e *Engine) Report(ctx context.Context, start, end time.Time) (models.Report, error) {
	ctx, span := e.tracer.Start(ctx, "selftest.Report")
	defer span.End()

	results, err := e.store.ListBetween(ctx, start, end)
	if err != nil {
		return models.Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "read security test results")
	}

	report := models.Report{
		CriticalIssues: []models.Result{},
		RecentTests:    []models.Result{},
	}
	for _, r := range results {
		report.Summary.Total++
		switch r.Status {
		case models.StatusPassed:
			report.Summary.Passed++
		case models.StatusFailed:
			report.Summary.Failed++
		default:
			report.Summary.Warnings++
		}
		if r.IsCritical() {
			report.CriticalIssues = append(report.CriticalIssues, r)
		}
	}
	report.RecentTests = append(report.RecentTests, results[:min(recentTestCount, len(results))]...)
	return report, nil
}

func summarize(results []models.Result) models.RunSummary {
	summary := models.RunSummary{Results: results}
	if summary.Results == nil {
		summary.Results = []models.Result{}
	}
	for _, r := range results {
		switch r.Status {
		case models.StatusPassed:
			summary.Passed++
		case models.StatusFailed:
			summary.Failed++
		default:
			summary.Warnings++
		}
	}
	return summary
}
