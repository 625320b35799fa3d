package tracking

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"grantgate/internal/security/models"
)

// PostgresFailedLoginStore persists failures in the failed_logins table.
type PostgresFailedLoginStore struct {
	db *sql.DB
}

func NewPostgresFailedLoginStore(db *sql.DB) *PostgresFailedLoginStore {
	return &PostgresFailedLoginStore{db: db}
}

func (s *PostgresFailedLoginStore) Append(ctx context.Context, record models.FailedLoginRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO failed_logins (user_id, ip, ts) VALUES ($1, $2, $3)`,
		record.UserID, record.IP, record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert failed login: %w", err)
	}
	return nil
}

func (s *PostgresFailedLoginStore) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM failed_logins WHERE user_id = $1 AND ts >= $2`,
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed logins: %w", err)
	}
	return count, nil
}

func (s *PostgresFailedLoginStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM failed_logins WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete failed logins: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete failed logins: %w", err)
	}
	return int(n), nil
}

// PostgresLockStore persists lock state in the account_locks table.
type PostgresLockStore struct {
	db *sql.DB
}

func NewPostgresLockStore(db *sql.DB) *PostgresLockStore {
	return &PostgresLockStore{db: db}
}

func (s *PostgresLockStore) Get(ctx context.Context, userID string) (models.AccountLockState, error) {
	state := models.AccountLockState{UserID: userID}
	var lockedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT locked, locked_at FROM account_locks WHERE user_id = $1`,
		userID,
	).Scan(&state.Locked, &lockedAt)
	if err == sql.ErrNoRows {
		return state, nil
	}
	if err != nil {
		return models.AccountLockState{}, fmt.Errorf("get lock state: %w", err)
	}
	if lockedAt.Valid {
		state.LockedAt = lockedAt.Time
	}
	return state, nil
}

func (s *PostgresLockStore) Lock(ctx context.Context, userID string, at time.Time) (bool, error) {
	// The conditional upsert is the compare-and-set: an already locked row
	// is untouched and returns nothing, so exactly one concurrent caller
	// observes the transition.
	var locked string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO account_locks (user_id, locked, locked_at)
		VALUES ($1, TRUE, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET locked = TRUE, locked_at = EXCLUDED.locked_at
		WHERE account_locks.locked = FALSE
		RETURNING user_id
	`, userID, at).Scan(&locked)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lock account: %w", err)
	}
	return true, nil
}

// PostgresAlertStore persists alerts in the security_alerts table.
type PostgresAlertStore struct {
	db *sql.DB
}

func NewPostgresAlertStore(db *sql.DB) *PostgresAlertStore {
	return &PostgresAlertStore{db: db}
}

func (s *PostgresAlertStore) Append(ctx context.Context, alert models.SecurityAlert) error {
	details, err := json.Marshal(alert.Details)
	if err != nil {
		return fmt.Errorf("marshal alert details: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO security_alerts (id, user_id, alert_type, details, ts) VALUES ($1, $2, $3, $4, $5)`,
		alert.ID, alert.UserID, string(alert.Type), details, alert.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert security alert: %w", err)
	}
	return nil
}

func (s *PostgresAlertStore) CountSince(ctx context.Context, userID string, alertType models.AlertType, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM security_alerts WHERE user_id = $1 AND alert_type = $2 AND ts >= $3`,
		userID, string(alertType), since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count security alerts: %w", err)
	}
	return count, nil
}

func (s *PostgresAlertStore) List(ctx context.Context, limit int) ([]models.SecurityAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, alert_type, details, ts FROM security_alerts ORDER BY ts DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list security alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.SecurityAlert
	for rows.Next() {
		var (
			a         models.SecurityAlert
			alertType string
			details   []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &alertType, &details, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan security alert: %w", err)
		}
		a.Type = models.AlertType(alertType)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &a.Details); err != nil {
				return nil, fmt.Errorf("unmarshal alert details: %w", err)
			}
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security alerts: %w", err)
	}
	return alerts, nil
}

// PostgresActivityStore persists the activity log in the activity_log table.
type PostgresActivityStore struct {
	db *sql.DB
}

func NewPostgresActivityStore(db *sql.DB) *PostgresActivityStore {
	return &PostgresActivityStore{db: db}
}

func (s *PostgresActivityStore) Append(ctx context.Context, entry models.ActivityEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, user_id, action, metadata, ts) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.UserID, entry.Action, metadata, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

func (s *PostgresActivityStore) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_log WHERE user_id = $1 AND ts >= $2`,
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count activity entries: %w", err)
	}
	return count, nil
}

func (s *PostgresActivityStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity_log WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete activity entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete activity entries: %w", err)
	}
	return int(n), nil
}
