package matrix

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Persister saves and loads the serialized matrix blob.
//
// Save is called on every confirmed mutation; Load exactly once at
// process start, strictly before the first catalog build.
type Persister interface {
	// Save stores a snapshot blob.
	Save(ctx context.Context, blob []byte) error

	// Load retrieves the most recent snapshot blob.
	// Returns ErrNoSnapshot when nothing has been saved yet.
	Load(ctx context.Context) ([]byte, error)
}

// snapshotRetention is how many historical snapshots Save keeps around.
const snapshotRetention = 20

// SQLitePersister implements Persister using the matrix_snapshots table.
// Every Save appends a row and prunes beyond the retention window, so a
// handful of prior snapshots stay available for manual recovery.
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister creates a new SQLite-backed persister.
func NewSQLitePersister(db *sql.DB) *SQLitePersister {
	return &SQLitePersister{db: db}
}

// Save stores a snapshot blob.
func (p *SQLitePersister) Save(ctx context.Context, blob []byte) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO matrix_snapshots (blob, saved_at) VALUES (?, ?)`,
		string(blob), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM matrix_snapshots
		WHERE id NOT IN (
			SELECT id FROM matrix_snapshots ORDER BY id DESC LIMIT ?
		)`, snapshotRetention)
	if err != nil {
		return fmt.Errorf("pruning snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load retrieves the most recent snapshot blob.
func (p *SQLitePersister) Load(ctx context.Context) ([]byte, error) {
	var blob string
	err := p.db.QueryRowContext(ctx,
		`SELECT blob FROM matrix_snapshots ORDER BY id DESC LIMIT 1`).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	return []byte(blob), nil
}
