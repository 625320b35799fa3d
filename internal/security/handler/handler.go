// Package handler receives authentication outcomes from the identity
// provider and exposes security alerts to operators.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"grantgate/internal/security/models"
	dErrors "grantgate/pkg/domain-errors"
	"grantgate/pkg/platform/httputil"
	"grantgate/pkg/requestcontext"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 500
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginTracker is the failed-login service surface the handler needs.
type LoginTracker interface {
	RecordFailure(ctx context.Context, userID, ip string) (bool, error)
	IsLocked(ctx context.Context, userID string) (bool, error)
}

// AlertReader lists stored security alerts.
type AlertReader interface {
	List(ctx context.Context, limit int) ([]models.SecurityAlert, error)
}

type Handler struct {
	logins LoginTracker
	alerts AlertReader
	logger *slog.Logger
}

func New(logins LoginTracker, alerts AlertReader, logger *slog.Logger) *Handler {
	return &Handler{logins: logins, alerts: alerts, logger: logger}
}

// RegisterAdmin mounts the endpoints. The identity provider reports
// failures with a service token carrying the admin role, so all three
// routes sit behind the admin gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/security/login-failures", h.HandleLoginFailure)
	r.Get("/security/lockouts/{userID}", h.HandleLockState)
	r.Get("/security/alerts", h.HandleAlerts)
}

// LoginFailureRequest is the body of POST /security/login-failures.
type LoginFailureRequest struct {
	UserID string `json:"userId" validate:"required,max=200"`
	IP     string `json:"ip" validate:"omitempty,max=64"`
}

// HandleLoginFailure records one authentication failure and reports whether
// it locked the account.
func (h *Handler) HandleLoginFailure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[LoginFailureRequest](w, r)
	if !ok {
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid login failure report"))
		return
	}

	ip := req.IP
	if ip == "" {
		ip = requestcontext.ClientIP(ctx)
	}

	locked, err := h.logins.RecordFailure(ctx, req.UserID, ip)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed login report not recorded",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", req.UserID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"locked": locked})
}

// HandleLockState handles GET /security/lockouts/{userID}.
func (h *Handler) HandleLockState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := chi.URLParam(r, "userID")
	locked, err := h.logins.IsLocked(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"locked": locked})
}

// HandleAlerts handles GET /security/alerts, newest first.
func (h *Handler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultAlertLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAlertLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	alerts, err := h.alerts.List(ctx, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if alerts == nil {
		alerts = []models.SecurityAlert{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}
