package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"grantgate/internal/audit/models"
	dErrors "grantgate/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LogRequest is the body of POST /audit-log.
type LogRequest struct {
	Action       string         `json:"action" validate:"required,oneof=create read update delete login logout export approve reject"`
	ResourceType string         `json:"resourceType" validate:"omitempty,max=100"`
	ResourceID   string         `json:"resourceId" validate:"omitempty,max=200"`
	Details      map[string]any `json:"details" validate:"omitempty,max=50"`
	Status       string         `json:"status" validate:"omitempty,oneof=success failure"`
}

func (r LogRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid audit log request")
	}
	return nil
}

// searchFilter parses the query string of GET /audit-logs/search.
func searchFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	filter := models.Filter{
		UserID:       q.Get("userId"),
		Action:       models.Action(q.Get("action")),
		ResourceType: q.Get("resourceType"),
		Status:       models.Status(q.Get("status")),
	}
	if filter.Action != "" && !filter.Action.IsValid() {
		return models.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "unknown action filter")
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return models.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "unknown status filter")
	}

	var err error
	if filter.StartDate, err = parseDate(q.Get("startDate")); err != nil {
		return models.Filter{}, err
	}
	if filter.EndDate, err = parseDate(q.Get("endDate")); err != nil {
		return models.Filter{}, err
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "dates must be RFC 3339")
	}
	return t, nil
}
