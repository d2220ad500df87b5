package target

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for last-seen target persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
//
// The store is a discovery fallback, not a source of truth: live discovery
// always wins, and stored rows only feed reconciliation when no live source
// produces a result.
type Repository interface {
	// Upsert inserts or updates a target's last-seen record.
	// Returns ErrInvalidTarget if the ID or kind is empty.
	Upsert(ctx context.Context, t Target) error

	// List retrieves all stored targets, ordered by ID.
	List(ctx context.Context) ([]Target, error)

	// GetByID retrieves a stored target by its identifier.
	// Returns ErrTargetNotFound if no record exists.
	GetByID(ctx context.Context, id string) (*Target, error)

	// Delete removes a target's last-seen record.
	// Returns ErrTargetNotFound if no record exists.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the
// targets table migrated.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or updates a target's last-seen record.
func (r *SQLiteRepository) Upsert(ctx context.Context, t Target) error {
	if t.ID == "" || t.Kind == "" {
		return ErrInvalidTarget
	}

	lastSeen := t.LastSeen
	if lastSeen.IsZero() {
		lastSeen = time.Now().UTC()
	}

	query := `
		INSERT INTO targets (id, kind, online, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			online = excluded.online,
			last_seen = excluded.last_seen`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, string(t.Kind), boolToInt(t.Online), lastSeen.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting target: %w", err)
	}
	return nil
}

// List retrieves all stored targets.
func (r *SQLiteRepository) List(ctx context.Context) ([]Target, error) {
	query := `
		SELECT id, kind, online, last_seen
		FROM targets
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying targets: %w", err)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating targets: %w", err)
	}
	return targets, nil
}

// GetByID retrieves a stored target by its identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Target, error) {
	query := `
		SELECT id, kind, online, last_seen
		FROM targets
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	t, err := scanTarget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("querying target by id: %w", err)
	}
	return t, nil
}

// Delete removes a target's last-seen record.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM targets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting target: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrTargetNotFound
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanTarget.
type scanner interface {
	Scan(dest ...any) error
}

func scanTarget(s scanner) (*Target, error) {
	var (
		t        Target
		kind     string
		online   int
		lastSeen string
	)

	if err := s.Scan(&t.ID, &kind, &online, &lastSeen); err != nil {
		return nil, err
	}

	t.Kind = Kind(kind)
	t.Online = online != 0

	parsed, err := time.Parse(time.RFC3339, lastSeen)
	if err != nil {
		return nil, fmt.Errorf("parsing last_seen timestamp: %w", err)
	}
	t.LastSeen = parsed

	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
