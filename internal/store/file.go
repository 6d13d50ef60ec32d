package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

// FileStore keeps the result as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path. The parent directory is
// created if needed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the JSON file path.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the result to a temp file and renames it over the previous
// one, so a failed write leaves the previous result intact.
func (s *FileStore) Save(ctx context.Context, result *types.ReconciliationResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("cannot save a nil result")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".import-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace stored result: %w", err)
	}
	return nil
}

// Load reads the stored result. A file that does not decode is treated as
// absent and logged.
func (s *FileStore) Load(ctx context.Context) (*types.ReconciliationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stored result: %w", err)
	}

	var result types.ReconciliationResult
	if err := json.Unmarshal(data, &result); err != nil {
		slog.Warn("Stored import result is unreadable, ignoring it", "path", s.path, "error", err)
		return nil, ErrNotFound
	}
	return &result, nil
}

// Clear deletes the JSON file.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear stored result: %w", err)
	}
	return nil
}

// Merge applies a partial update to the stored result.
func (s *FileStore) Merge(ctx context.Context, partial Partial) (*types.ReconciliationResult, error) {
	return merge(ctx, s, partial)
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
