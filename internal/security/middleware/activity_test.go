package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"grantgate/pkg/requestcontext"
)

type recordedActivity struct {
	userID   string
	action   string
	metadata map[string]any
}

type stubRecorder struct {
	recorded []recordedActivity
	err      error
}

func (r *stubRecorder) Record(_ context.Context, userID, action string, metadata map[string]any) error {
	r.recorded = append(r.recorded, recordedActivity{userID: userID, action: action, metadata: metadata})
	return r.err
}

type ActivityTrackerSuite struct {
	suite.Suite

	recorder *stubRecorder
}

func TestActivityTrackerSuite(t *testing.T) {
	suite.Run(t, new(ActivityTrackerSuite))
}

func (s *ActivityTrackerSuite) SetupTest() {
	s.recorder = &stubRecorder{}
}

func (s *ActivityTrackerSuite) serve(tracker *ActivityTracker, userID string, status int) *httptest.ResponseRecorder {
	handler := tracker.Track(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodGet, "/grants/42", nil)
	if userID != "" {
		req = req.WithContext(requestcontext.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func (s *ActivityTrackerSuite) TestRecordsAuthenticatedRequest() {
	tracker := NewActivityTracker(s.recorder, false, slog.New(slog.DiscardHandler))

	s.serve(tracker, "user-1", http.StatusOK)

	s.Require().Len(s.recorder.recorded, 1)
	entry := s.recorder.recorded[0]
	s.Equal("user-1", entry.userID)
	s.Equal("GET /grants/42", entry.action)
	s.Equal("GET", entry.metadata["method"])
	s.Equal("/grants/42", entry.metadata["path"])
	s.Equal(http.StatusOK, entry.metadata["status"])
}

func (s *ActivityTrackerSuite) TestSkipsAnonymousRequests() {
	tracker := NewActivityTracker(s.recorder, false, slog.New(slog.DiscardHandler))

	s.serve(tracker, "", http.StatusOK)

	s.Empty(s.recorder.recorded)
}

func (s *ActivityTrackerSuite) TestSkipsRateLimitedByDefault() {
	tracker := NewActivityTracker(s.recorder, false, slog.New(slog.DiscardHandler))

	s.serve(tracker, "user-1", http.StatusTooManyRequests)

	s.Empty(s.recorder.recorded)
}

func (s *ActivityTrackerSuite) TestCountsRateLimitedWhenConfigured() {
	tracker := NewActivityTracker(s.recorder, true, slog.New(slog.DiscardHandler))

	s.serve(tracker, "user-1", http.StatusTooManyRequests)

	s.Require().Len(s.recorder.recorded, 1)
	s.Equal(http.StatusTooManyRequests, s.recorder.recorded[0].metadata["status"])
}

func (s *ActivityTrackerSuite) TestRecorderFailureDoesNotChangeResponse() {
	s.recorder.err = errors.New("store down")
	tracker := NewActivityTracker(s.recorder, false, slog.New(slog.DiscardHandler))

	rec := s.serve(tracker, "user-1", http.StatusOK)

	s.Equal(http.StatusOK, rec.Code)
}
