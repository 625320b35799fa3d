package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	auditmodels "grantgate/internal/audit/models"
	auditservice "grantgate/internal/audit/service"
	auditevents "grantgate/internal/audit/store/events"
	"grantgate/internal/retention/store/userdata"
)

type SweeperSuite struct {
	suite.Suite
	personal  *userdata.MemoryPersonalInfoStore
	documents *userdata.MemoryDocumentStore
	audit     *auditservice.Service
	sweeper   *Sweeper
	now       time.Time
}

func (s *SweeperSuite) SetupTest() {
	s.personal = userdata.NewMemoryPersonalInfoStore()
	s.documents = userdata.NewMemoryDocumentStore()

	svc, err := auditservice.New(auditevents.NewMemoryStore())
	s.Require().NoError(err)
	s.audit = svc

	sweeper, err := NewSweeper(DefaultPolicy(), s.personal, s.documents, svc, svc)
	s.Require().NoError(err)
	s.sweeper = sweeper
	s.now = time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}

func (s *SweeperSuite) TestSweepDeletesOnlyExpiredRecords() {
	policy := DefaultPolicy()

	s.personal.Touch("stale-user", s.now.AddDate(0, 0, -policy.PersonalInfoDays-1))
	s.personal.Touch("active-user", s.now.AddDate(0, 0, -policy.PersonalInfoDays+1))
	s.documents.Add("old-doc", s.now.AddDate(0, 0, -policy.DocumentDays-1))
	s.documents.Add("new-doc", s.now.AddDate(0, 0, -1))

	oldEvent := auditmodels.Event{
		UserID:    "u1",
		Action:    auditmodels.ActionRead,
		Timestamp: s.now.AddDate(0, 0, -policy.AuditLogDays-1),
	}
	newEvent := auditmodels.Event{
		UserID:    "u1",
		Action:    auditmodels.ActionRead,
		Timestamp: s.now.AddDate(0, 0, -10),
	}
	s.Require().NoError(s.audit.Append(context.Background(), oldEvent))
	s.Require().NoError(s.audit.Append(context.Background(), newEvent))

	s.Require().NoError(s.sweeper.Sweep(context.Background(), s.now))

	s.Equal(1, s.personal.Len())
	s.Equal(1, s.documents.Len())

	// The expired event is gone; the survivor and the cleanup event remain.
	events, total, err := s.audit.Query(context.Background(), auditmodels.Filter{}, 1, 10)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal("data_cleanup", events[0].Resource.Type)
}

func (s *SweeperSuite) TestSweepRecordAtCutoffSurvives() {
	policy := DefaultPolicy()
	s.personal.Touch("boundary-user", s.now.AddDate(0, 0, -policy.PersonalInfoDays))

	s.Require().NoError(s.sweeper.Sweep(context.Background(), s.now))

	// Strictly-older semantics: the record exactly at the cutoff stays.
	s.Equal(1, s.personal.Len())
}

func (s *SweeperSuite) TestSweepAppendsCleanupEvent() {
	s.Require().NoError(s.sweeper.Sweep(context.Background(), s.now))

	events, total, err := s.audit.Query(context.Background(), auditmodels.Filter{
		UserID: auditmodels.SystemUserID,
	}, 1, 10)
	s.Require().NoError(err)
	s.Require().Equal(1, total)

	e := events[0]
	s.Equal(auditmodels.ActionDelete, e.Action)
	s.Equal("data_cleanup", e.Resource.Type)
	s.Equal(s.now.Format(time.RFC3339), e.Resource.ID)
	s.Equal(auditmodels.StatusSuccess, e.Status)

	policy := DefaultPolicy()
	s.Equal(s.now.AddDate(0, 0, -policy.PersonalInfoDays).Format(time.RFC3339), e.Metadata.Changes["personalInfoCutoff"])
	s.Equal(s.now.AddDate(0, 0, -policy.DocumentDays).Format(time.RFC3339), e.Metadata.Changes["documentsCutoff"])
	s.Equal(s.now.AddDate(0, 0, -policy.AuditLogDays).Format(time.RFC3339), e.Metadata.Changes["auditLogsCutoff"])
}

func (s *SweeperSuite) TestCategoryFailureFailsTheSweepButStillAudits() {
	sweeper, err := NewSweeper(DefaultPolicy(), &failingPrunable{}, s.documents, s.audit, s.audit)
	s.Require().NoError(err)

	err = sweeper.Sweep(context.Background(), s.now)
	s.Require().Error(err)

	// The cleanup event is still attempted, marked as a failure.
	events, total, qerr := s.audit.Query(context.Background(), auditmodels.Filter{
		UserID: auditmodels.SystemUserID,
	}, 1, 10)
	s.Require().NoError(qerr)
	s.Require().Equal(1, total)
	s.Equal(auditmodels.StatusFailure, events[0].Status)
}

type failingPrunable struct{}

func (f *failingPrunable) DeleteBefore(context.Context, time.Time) (int, error) {
	return 0, errors.New("disk full")
}
