package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"grantgate/internal/security/models"
	"grantgate/internal/security/service/logins"
	"grantgate/internal/security/store/tracking"
	"grantgate/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite

	alerts *tracking.MemoryAlertStore
	router chi.Router
	base   time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.alerts = tracking.NewMemoryAlertStore()
	svc, err := logins.New(
		tracking.NewMemoryFailedLoginStore(),
		tracking.NewMemoryLockStore(),
		s.alerts,
		logins.WithLogger(slog.New(slog.DiscardHandler)),
	)
	s.Require().NoError(err)

	h := New(svc, s.alerts, slog.New(slog.DiscardHandler))
	s.router = chi.NewRouter()
	h.RegisterAdmin(s.router)
	s.base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	req = req.WithContext(requestcontext.WithTime(req.Context(), s.base))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) reportFailure(userID string) *httptest.ResponseRecorder {
	body := `{"userId":"` + userID + `","ip":"203.0.113.9"}`
	req := httptest.NewRequest(http.MethodPost, "/security/login-failures", strings.NewReader(body))
	return s.do(req)
}

func (s *HandlerSuite) TestFailureBelowThresholdNotLocked() {
	rec := s.reportFailure("user-1")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"locked":false}`, rec.Body.String())
}

func (s *HandlerSuite) TestFifthFailureLocks() {
	for range 4 {
		s.reportFailure("user-1")
	}
	rec := s.reportFailure("user-1")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"locked":true}`, rec.Body.String())

	lookup := s.do(httptest.NewRequest(http.MethodGet, "/security/lockouts/user-1", nil))
	s.Equal(http.StatusOK, lookup.Code)
	s.JSONEq(`{"locked":true}`, lookup.Body.String())
}

func (s *HandlerSuite) TestLockStateUnknownUserUnlocked() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/security/lockouts/nobody", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"locked":false}`, rec.Body.String())
}

func (s *HandlerSuite) TestMissingUserIDRejected() {
	req := httptest.NewRequest(http.MethodPost, "/security/login-failures", strings.NewReader(`{"ip":"203.0.113.9"}`))
	rec := s.do(req)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestListAlertsNewestFirst() {
	for i, userID := range []string{"user-a", "user-b"} {
		err := s.alerts.Append(s.T().Context(), models.SecurityAlert{
			UserID:    userID,
			Type:      models.AlertAccountLocked,
			Timestamp: s.base.Add(time.Duration(i) * time.Minute),
		})
		s.Require().NoError(err)
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/security/alerts", nil))
	s.Equal(http.StatusOK, rec.Code)

	var resp struct {
		Alerts []models.SecurityAlert `json:"alerts"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp.Alerts, 2)
	s.Equal("user-b", resp.Alerts[0].UserID)
	s.Equal("user-a", resp.Alerts[1].UserID)
}

func (s *HandlerSuite) TestListAlertsEmptyStore() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/security/alerts", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"alerts":[]}`, rec.Body.String())
}

func (s *HandlerSuite) TestAlertLimitValidated() {
	rec := s.do(httptest.NewRequest(http.MethodGet, "/security/alerts?limit=0", nil))

	s.Equal(http.StatusBadRequest, rec.Code)
}
