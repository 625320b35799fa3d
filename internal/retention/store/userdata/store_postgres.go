package userdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresPersonalInfoStore prunes user profiles by last activity.
type PostgresPersonalInfoStore struct {
	db *sql.DB
}

func NewPostgresPersonalInfoStore(db *sql.DB) *PostgresPersonalInfoStore {
	return &PostgresPersonalInfoStore{db: db}
}

func (s *PostgresPersonalInfoStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_profiles WHERE last_activity < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale user profiles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale user profiles: %w", err)
	}
	return int(n), nil
}

// PostgresDocumentStore prunes documents by creation time.
type PostgresDocumentStore struct {
	db *sql.DB
}

func NewPostgresDocumentStore(db *sql.DB) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db}
}

func (s *PostgresDocumentStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old documents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete old documents: %w", err)
	}
	return int(n), nil
}
