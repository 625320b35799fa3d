// Package handler exposes the self-test engine to the operator dashboard.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"grantgate/internal/selftest/models"
	dErrors "grantgate/pkg/domain-errors"
	"grantgate/pkg/platform/httputil"
	"grantgate/pkg/requestcontext"
)

// defaultReportWindow is used when the caller omits the date range.
const defaultReportWindow = 30 * 24 * time.Hour

// Engine defines the self-test operations the handler needs.
type Engine interface {
	RunAll(ctx context.Context) (models.RunSummary, error)
	ValidateConfig(ctx context.Context) ([]models.Result, error)
	Report(ctx context.Context, start, end time.Time) (models.Report, error)
}

type Handler struct {
	engine Engine
	logger *slog.Logger
}

func New(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Register mounts the self-test endpoints; the router must gate them behind
// the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Post("/security-tests/run", h.HandleRun)
	r.Post("/security-tests/validate-config", h.HandleValidateConfig)
	r.Get("/security-tests/report", h.HandleReport)
	r.Get("/security-tests/export", h.HandleExport)
}

// HandleRun handles POST /security-tests/run.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.engine.RunAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "security test run failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// HandleValidateConfig handles POST /security-tests/validate-config.
func (h *Handler) HandleValidateConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	results, err := h.engine.ValidateConfig(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "config validation failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	if results == nil {
		results = []models.Result{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

// HandleReport handles GET /security-tests/report?startDate=&endDate=.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := dateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.engine.Report(ctx, start, end)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleExport handles GET /security-tests/export, producing the
// downloadable JSON snapshot for the dashboard.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, end, err := dateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.engine.Report(ctx, start, end)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	now := requestcontext.Now(ctx)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="security-report-%s.json"`, now.Format(time.RFC3339)))
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"timestamp":      now.Format(time.RFC3339),
		"metrics":        report.Summary,
		"criticalIssues": report.CriticalIssues,
		"results":        report.RecentTests,
	})
}

func dateRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	end := time.Now().UTC()
	start := end.Add(-defaultReportWindow)

	if raw := q.Get("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "dates must be RFC 3339")
		}
		end = t
	}
	if raw := q.Get("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "dates must be RFC 3339")
		}
		start = t
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "endDate precedes startDate")
	}
	return start, end, nil
}
