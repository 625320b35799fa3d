//go:build integration

package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"grantgate/internal/audit/models"
	"grantgate/pkg/platform/fieldcrypt"
	"grantgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())

	cipher, err := fieldcrypt.New("integration-master-secret", "audit-changes")
	s.Require().NoError(err)
	s.store = NewPostgresStore(s.pg.DB, cipher)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "audit_events"))
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) TestAppendAndQueryRoundTrip() {
	ctx := context.Background()
	event := models.Event{
		ID:        uuid.New(),
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UserID:    "alice",
		Action:    models.ActionUpdate,
		Resource:  models.Resource{Type: "grant", ID: "g-1"},
		Status:    models.StatusSuccess,
		Metadata: models.Metadata{
			IP:        "203.0.113.9",
			UserAgent: "integration-test",
			RequestID: "req-1",
			Changes:   map[string]any{"amount": "5000"},
		},
	}
	s.Require().NoError(s.store.Append(ctx, event))

	got, total, err := s.store.Query(ctx, models.Filter{UserID: "alice"}, 1, 10)
	s.Require().NoError(err)
	s.Require().Equal(1, total)
	s.Equal(event.ID, got[0].ID)
	s.Equal(event.Resource, got[0].Resource)
	s.Equal("203.0.113.9", got[0].Metadata.IP)
	s.Equal(map[string]any{"amount": "5000"}, got[0].Metadata.Changes)
	s.True(event.Timestamp.Equal(got[0].Timestamp))
}

func (s *PostgresStoreSuite) TestChangesEncryptedAtRest() {
	ctx := context.Background()
	event := models.Event{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		UserID:    "alice",
		Action:    models.ActionUpdate,
		Status:    models.StatusSuccess,
		Metadata:  models.Metadata{Changes: map[string]any{"idNumber": "8001015009087"}},
	}
	s.Require().NoError(s.store.Append(ctx, event))

	var raw string
	err := s.pg.DB.QueryRowContext(ctx,
		`SELECT changes FROM audit_events WHERE id = $1`, event.ID,
	).Scan(&raw)
	s.Require().NoError(err)
	s.NotContains(raw, "8001015009087")
	s.NotContains(raw, "idNumber")
}

func (s *PostgresStoreSuite) TestQueryOrderingAndPaging() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range 25 {
		event := models.Event{
			ID:        uuid.New(),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			UserID:    "alice",
			Action:    models.ActionRead,
			Status:    models.StatusSuccess,
		}
		s.Require().NoError(s.store.Append(ctx, event))
	}

	page1, total, err := s.store.Query(ctx, models.Filter{}, 1, 10)
	s.Require().NoError(err)
	s.Equal(25, total)
	s.Require().Len(page1, 10)
	s.True(page1[0].Timestamp.After(page1[9].Timestamp))

	page3, _, err := s.store.Query(ctx, models.Filter{}, 3, 10)
	s.Require().NoError(err)
	s.Len(page3, 5)
}

func (s *PostgresStoreSuite) TestDeleteBefore() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		event := models.Event{
			ID:        uuid.New(),
			Timestamp: base.AddDate(0, 0, i),
			UserID:    "alice",
			Action:    models.ActionRead,
			Status:    models.StatusSuccess,
		}
		s.Require().NoError(s.store.Append(ctx, event))
	}

	deleted, err := s.store.DeleteBefore(ctx, base.AddDate(0, 0, 2))
	s.Require().NoError(err)
	s.Equal(2, deleted)

	_, total, err := s.store.Query(ctx, models.Filter{}, 1, 10)
	s.Require().NoError(err)
	s.Equal(3, total)
}
