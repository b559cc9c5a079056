package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// MarkerStore keeps the session marker in the session_marker table.
// It satisfies session.Store.
type MarkerStore struct {
	pool *Pool
}

// NewMarkerStore creates a marker store on pool.
func NewMarkerStore(pool *Pool) *MarkerStore {
	return &MarkerStore{pool: pool}
}

// Load returns the stored marker or an empty string.
func (s *MarkerStore) Load(ctx context.Context) (string, error) {
	var marker string
	err := s.pool.db.QueryRowContext(ctx, "SELECT marker FROM session_marker WHERE slot = 1").Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load session marker: %w", err)
	}
	return marker, nil
}

// Save replaces the stored marker.
func (s *MarkerStore) Save(ctx context.Context, marker string) error {
	query := `
		INSERT INTO session_marker (slot, marker, created_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (slot) DO UPDATE SET
			marker = EXCLUDED.marker,
			created_at = EXCLUDED.created_at
	`
	if _, err := s.pool.db.ExecContext(ctx, query, marker); err != nil {
		return fmt.Errorf("save session marker: %w", err)
	}
	return nil
}

// Clear removes the stored marker.
func (s *MarkerStore) Clear(ctx context.Context) error {
	if _, err := s.pool.db.ExecContext(ctx, "DELETE FROM session_marker"); err != nil {
		return fmt.Errorf("clear session marker: %w", err)
	}
	return nil
}
