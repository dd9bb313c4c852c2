package lead

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresStore persists leads in the leads table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// IsRegistered reports whether a lead with this identity exists.
func (s *PostgresStore) IsRegistered(ctx context.Context, identity string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE identity = $1)`, identity)
	if err != nil {
		return false, fmt.Errorf("lead lookup: %w", err)
	}
	return exists, nil
}

// Save inserts a new lead record.
func (s *PostgresStore) Save(ctx context.Context, l Lead) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO leads (identity, country, phone, email, created_at)
		 VALUES (:identity, :country, :phone, :email, :created_at)`, l)
	if err != nil {
		return fmt.Errorf("lead insert: %w", err)
	}
	return nil
}
