package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"grantgate/internal/selftest/models"
)

// PostgresStore persists self-test results in the security_test_results
// table. AppendBatch writes the whole run in one transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AppendBatch(ctx context.Context, results []models.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin result batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO security_test_results (test_id, test_type, name, status, severity, description, location, remediation, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err := stmt.ExecContext(ctx,
			r.TestID,
			string(r.Type),
			r.Name,
			string(r.Status),
			string(r.Details.Severity),
			r.Details.Description,
			r.Details.Location,
			r.Details.Remediation,
			r.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", r.TestID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit result batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBetween(ctx context.Context, start, end time.Time) ([]models.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT test_id, test_type, name, status, severity, description, location, remediation, ts
		FROM security_test_results
		WHERE ts >= $1 AND ts <= $2
		ORDER BY ts DESC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []models.Result
	for rows.Next() {
		var (
			r        models.Result
			testType string
			status   string
			severity string
		)
		err := rows.Scan(&r.TestID, &testType, &r.Name, &status, &severity,
			&r.Details.Description, &r.Details.Location, &r.Details.Remediation, &r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Type = models.Type(testType)
		r.Status = models.Status(status)
		r.Details.Severity = models.Severity(severity)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}
