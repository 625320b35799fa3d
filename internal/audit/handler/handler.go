// Package handler exposes the audit trail over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"grantgate/internal/audit/models"
	dErrors "grantgate/pkg/domain-errors"
	"grantgate/pkg/platform/httputil"
	"grantgate/pkg/requestcontext"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// Service defines the audit operations the handler needs.
type Service interface {
	Append(ctx context.Context, event models.Event) error
	Query(ctx context.Context, filter models.Filter, page, pageSize int) ([]models.Event, int, error)
	Export(ctx context.Context, filter models.Filter) iter.Seq2[models.Event, error]
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated write endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/audit-log", h.HandleLog)
}

// RegisterAdmin mounts the read endpoints; the router must gate them behind
// the admin role.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/audit-logs", h.HandleList)
	r.Get("/audit-logs/search", h.HandleSearch)
	r.Get("/audit-logs/export", h.HandleExport)
}

// HandleLog handles POST /audit-log.
func (h *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[LogRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	resourceType := req.ResourceType
	if resourceType == "" {
		resourceType = "user_action"
	}

	event := models.Event{
		UserID:   userID,
		Action:   models.Action(req.Action),
		Resource: models.Resource{Type: resourceType, ID: req.ResourceID},
		Status:   models.Status(req.Status),
		Metadata: models.Metadata{
			IP:        requestcontext.ClientIP(ctx),
			UserAgent: requestcontext.UserAgent(ctx),
			RequestID: requestcontext.RequestID(ctx),
			Changes:   req.Details,
		},
	}

	if err := h.service.Append(ctx, event); err != nil {
		h.logger.ErrorContext(ctx, "audit log request failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleList handles GET /audit-logs, the unfiltered bulk read.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logs := []models.Event{}
	for e, err := range h.service.Export(ctx, models.Filter{}) {
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		logs = append(logs, e)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// HandleSearch handles GET /audit-logs/search with filters and pagination.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := searchFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", defaultPageSize)
	if page < 1 || pageSize < 1 || pageSize > maxPageSize {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid pagination"))
		return
	}

	data, total, err := h.service.Query(ctx, filter, page, pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if data == nil {
		data = []models.Event{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"data":  data,
		"total": total,
	})
}

// HandleExport handles GET /audit-logs/export, streaming the filtered set as
// a JSON array without buffering it in memory.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := searchFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-logs.json"`)
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	first := true
	_, _ = w.Write([]byte("["))
	for e, err := range h.service.Export(ctx, filter) {
		if err != nil {
			// Headers are gone; log and truncate the stream.
			h.logger.ErrorContext(ctx, "audit export aborted",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			return
		}
		if !first {
			_, _ = w.Write([]byte(","))
		}
		first = false
		if err := enc.Encode(e); err != nil {
			return
		}
	}
	_, _ = w.Write([]byte("]"))
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
