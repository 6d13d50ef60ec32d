package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/proposal-reconciler/internal/types"

	_ "modernc.org/sqlite" // SQLite driver
)

// resultSlot is the only row of the import_result table.
const resultSlot = 1

const createResultTable = `
CREATE TABLE IF NOT EXISTS import_result (
	slot       INTEGER PRIMARY KEY,
	import_id  TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteStore keeps the result as a JSON blob in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createResultTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create import_result table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save upserts the result blob.
func (s *SQLiteStore) Save(ctx context.Context, result *types.ReconciliationResult) error {
	if result == nil {
		return fmt.Errorf("cannot save a nil result")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO import_result (slot, import_id, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			import_id = excluded.import_id,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		resultSlot, result.ImportID, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// Load reads the result blob.
func (s *SQLiteStore) Load(ctx context.Context) (*types.ReconciliationResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM import_result WHERE slot = ?`, resultSlot,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}

	var result types.ReconciliationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		slog.Warn("Stored import result is unreadable, ignoring it", "error", err)
		return nil, ErrNotFound
	}
	return &result, nil
}

// Clear deletes the result row.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM import_result WHERE slot = ?`, resultSlot); err != nil {
		return fmt.Errorf("failed to clear result: %w", err)
	}
	return nil
}

// Merge applies a partial update to the stored result.
func (s *SQLiteStore) Merge(ctx context.Context, partial Partial) (*types.ReconciliationResult, error) {
	return merge(ctx, s, partial)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
