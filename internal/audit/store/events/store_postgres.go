package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"grantgate/internal/audit/models"
	"grantgate/pkg/platform/fieldcrypt"
)

// PostgresStore persists audit events in the audit_events table. When a
// cipher is configured, the changes diff is encrypted before it reaches the
// database; the rest of the metadata stays queryable JSONB.
type PostgresStore struct {
	db     *sql.DB
	cipher *fieldcrypt.Cipher
}

func NewPostgresStore(db *sql.DB, cipher *fieldcrypt.Cipher) *PostgresStore {
	return &PostgresStore{db: db, cipher: cipher}
}

// storedMetadata is the JSONB shape. Changes is split out so it can be
// sealed independently of the plaintext fields.
type storedMetadata struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Location  string `json:"location,omitempty"`
	Client    string `json:"client,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *PostgresStore) Append(ctx context.Context, event models.Event) error {
	meta, err := json.Marshal(storedMetadata{
		IP:        event.Metadata.IP,
		UserAgent: event.Metadata.UserAgent,
		Location:  event.Metadata.Location,
		Client:    event.Metadata.Client,
		RequestID: event.Metadata.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	var changes sql.NullString
	if len(event.Metadata.Changes) > 0 {
		raw, err := json.Marshal(event.Metadata.Changes)
		if err != nil {
			return fmt.Errorf("marshal audit changes: %w", err)
		}
		sealed, err := s.cipher.Seal(raw)
		if err != nil {
			return fmt.Errorf("seal audit changes: %w", err)
		}
		changes = sql.NullString{String: sealed, Valid: true}
	}

	query := `
		INSERT INTO audit_events (id, ts, user_id, action, resource_type, resource_id, status, metadata, changes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.Timestamp,
		event.UserID,
		string(event.Action),
		event.Resource.Type,
		event.Resource.ID,
		string(event.Status),
		meta,
		changes,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, filter models.Filter, page, pageSize int) ([]models.Event, int, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_events" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit events: %w", err)
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := `
		SELECT id, ts, user_id, action, resource_type, resource_id, status, metadata, changes
		FROM audit_events` + where + fmt.Sprintf(`
		ORDER BY ts DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e, err := s.scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, total, nil
}

func (s *PostgresStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete audit events: %w", err)
	}
	return int(n), nil
}

func buildWhere(filter models.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Action != "" {
		add("action = $%d", string(filter.Action))
	}
	if filter.ResourceType != "" {
		add("resource_type = $%d", filter.ResourceType)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if !filter.StartDate.IsZero() {
		add("ts >= $%d", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		add("ts <= $%d", filter.EndDate)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) scanEvent(rows *sql.Rows) (models.Event, error) {
	var (
		e       models.Event
		id      uuid.UUID
		action  string
		status  string
		meta    []byte
		changes sql.NullString
	)
	if err := rows.Scan(&id, &e.Timestamp, &e.UserID, &action, &e.Resource.Type, &e.Resource.ID, &status, &meta, &changes); err != nil {
		return models.Event{}, fmt.Errorf("scan audit event: %w", err)
	}
	e.ID = id
	e.Action = models.Action(action)
	e.Status = models.Status(status)

	var sm storedMetadata
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &sm); err != nil {
			return models.Event{}, fmt.Errorf("unmarshal audit metadata: %w", err)
		}
	}
	e.Metadata = models.Metadata{
		IP:        sm.IP,
		UserAgent: sm.UserAgent,
		Location:  sm.Location,
		Client:    sm.Client,
		RequestID: sm.RequestID,
	}

	if changes.Valid && changes.String != "" {
		raw, err := s.cipher.Open(changes.String)
		if err != nil {
			return models.Event{}, fmt.Errorf("open audit changes: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Metadata.Changes); err != nil {
			return models.Event{}, fmt.Errorf("unmarshal audit changes: %w", err)
		}
	}
	return e, nil
}
