package selftest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"grantgate/internal/selftest/models"
	"grantgate/internal/selftest/ports"
	"grantgate/internal/selftest/store/results"
	dErrors "grantgate/pkg/domain-errors"
	"grantgate/pkg/requestcontext"
)

type EngineSuite struct {
	suite.Suite
	store *results.MemoryStore
	now   time.Time
}

func (s *EngineSuite) SetupTest() {
	s.store = results.NewMemoryStore()
	s.now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *EngineSuite) newEngine(opts ...Option) *Engine {
	engine, err := New(s.store, opts...)
	s.Require().NoError(err)
	return engine
}

func (s *EngineSuite) TestRunAllBattery() {
	engine := s.newEngine()
	engine.Register(DependencyFreshness(StaticDependencySource{
		Dependencies: []ports.Dependency{
			{Name: "left-pad", Version: "1.3.0"},
			{Name: "shiny", Version: "2.0.0-beta.1"},
		},
	}))
	engine.Register(DynamicProbes(StaticProber{}))

	summary, err := engine.RunAll(s.ctx())
	s.Require().NoError(err)

	s.Equal(3, summary.Passed)
	s.Equal(0, summary.Failed)
	s.Equal(1, summary.Warnings)
	s.Len(summary.Results, 4)

	// The run was persisted with the request timestamp.
	stored, err := s.store.ListBetween(context.Background(), s.now.Add(-time.Minute), s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Len(stored, 4)
}

func (s *EngineSuite) TestRunAllCheckErrorFailsTheRun() {
	engine := s.newEngine()
	engine.Register(func(context.Context) ([]models.Result, error) {
		return nil, errors.New("probe timeout")
	})

	_, err := engine.RunAll(s.ctx())
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInternal))
}

func (s *EngineSuite) TestRunAllStorageFailureFailsTheRun() {
	engine, err := New(&failingResultStore{})
	s.Require().NoError(err)
	engine.Register(DynamicProbes(StaticProber{}))

	_, err = engine.RunAll(s.ctx())
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInternal))
}

func (s *EngineSuite) TestValidateConfig() {
	s.Run("wildcard cors and disabled mfa", func() {
		engine := s.newEngine(WithValidateSettings(ValidateSettings{
			CORSOrigins: []string{"*"},
			MFARequired: false,
		}))

		findings, err := engine.ValidateConfig(s.ctx())
		s.Require().NoError(err)
		s.Require().Len(findings, 2)

		s.Equal("cors-check", findings[0].TestID)
		s.Equal(models.StatusFailed, findings[0].Status)
		s.Equal(models.SeverityHigh, findings[0].Details.Severity)

		s.Equal("auth-check", findings[1].TestID)
		s.Equal(models.StatusWarning, findings[1].Status)
		s.Equal(models.SeverityMedium, findings[1].Details.Severity)
	})

	s.Run("clean configuration yields no findings", func() {
		engine := s.newEngine(WithValidateSettings(ValidateSettings{
			CORSOrigins: []string{"https://app.example.org"},
			MFARequired: true,
		}))

		findings, err := engine.ValidateConfig(s.ctx())
		s.Require().NoError(err)
		s.Empty(findings)
	})
}

func (s *EngineSuite) TestSecretsDetection() {
	check := SecretsDetection(map[string]string{
		"jwt_signing_key": "dev-secret-key-change-in-production",
		"database_dsn":    "postgres://grantgate@db/grantgate",
	})

	findings, err := check(context.Background())
	s.Require().NoError(err)
	s.Require().Len(findings, 1)
	s.Equal("secret-jwt_signing_key", findings[0].TestID)
	s.Equal(models.StatusFailed, findings[0].Status)
	s.Equal(models.SeverityCritical, findings[0].Details.Severity)
}

func (s *EngineSuite) TestReport() {
	engine := s.newEngine()
	base := s.now

	seed := []models.Result{
		{TestID: "a", Type: models.TypeDynamic, Name: "SQL Injection", Status: models.StatusPassed,
			Details: models.Details{Severity: models.SeverityHigh}, Timestamp: base},
		{TestID: "b", Type: models.TypeStatic, Name: "Secrets Detection", Status: models.StatusFailed,
			Details: models.Details{Severity: models.SeverityCritical}, Timestamp: base.Add(time.Hour)},
		{TestID: "c", Type: models.TypeStatic, Name: "Dependency Check", Status: models.StatusWarning,
			Details: models.Details{Severity: models.SeverityMedium}, Timestamp: base.Add(2 * time.Hour)},
		// Critical but passed: not a critical issue.
		{TestID: "d", Type: models.TypeDynamic, Name: "CSRF", Status: models.StatusPassed,
			Details: models.Details{Severity: models.SeverityCritical}, Timestamp: base.Add(3 * time.Hour)},
		// Outside the queried range.
		{TestID: "e", Type: models.TypeStatic, Name: "Old", Status: models.StatusFailed,
			Details: models.Details{Severity: models.SeverityCritical}, Timestamp: base.AddDate(0, -2, 0)},
	}
	s.Require().NoError(s.store.AppendBatch(context.Background(), seed))

	report, err := engine.Report(context.Background(), base.Add(-time.Hour), base.Add(4*time.Hour))
	s.Require().NoError(err)

	s.Equal(4, report.Summary.Total)
	s.Equal(2, report.Summary.Passed)
	s.Equal(1, report.Summary.Failed)
	s.Equal(1, report.Summary.Warnings)

	s.Require().Len(report.CriticalIssues, 1)
	s.Equal("b", report.CriticalIssues[0].TestID)

	s.Require().Len(report.RecentTests, 4)
	s.Equal("d", report.RecentTests[0].TestID, "newest first")
}

func (s *EngineSuite) TestReportAllPassedWindow() {
	engine := s.newEngine()
	base := s.now

	var seed []models.Result
	for _, id := range []string{"a", "b", "c"} {
		seed = append(seed, models.Result{
			TestID: id, Type: models.TypeDynamic, Name: "Probe", Status: models.StatusPassed,
			Details: models.Details{Severity: models.SeverityCritical}, Timestamp: base,
		})
	}
	s.Require().NoError(s.store.AppendBatch(context.Background(), seed))

	report, err := engine.Report(context.Background(), base.Add(-time.Hour), base.Add(time.Hour))
	s.Require().NoError(err)
	s.Empty(report.CriticalIssues)
	s.Equal(0, report.Summary.Failed)
	s.Equal(3, report.Summary.Passed)
}

func (s *EngineSuite) TestReportRecentTestsCapped() {
	engine := s.newEngine()
	base := s.now

	var seed []models.Result
	for i := range 15 {
		seed = append(seed, models.Result{
			TestID: "t", Type: models.TypeDynamic, Name: "Probe", Status: models.StatusPassed,
			Details:   models.Details{Severity: models.SeverityLow},
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	s.Require().NoError(s.store.AppendBatch(context.Background(), seed))

	report, err := engine.Report(context.Background(), base.Add(-time.Hour), base.Add(time.Hour))
	s.Require().NoError(err)
	s.Len(report.RecentTests, 10)
	s.Equal(15, report.Summary.Total)
}

type failingResultStore struct{}

func (f *failingResultStore) AppendBatch(context.Context, []models.Result) error {
	return errors.New("disk full")
}

func (f *failingResultStore) ListBetween(context.Context, time.Time, time.Time) ([]models.Result, error) {
	return nil, errors.New("disk full")
}
