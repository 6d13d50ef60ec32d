// Package store persists the latest ReconciliationResult as an opaque blob.
//
// The reconciliation core never touches a Store; the importer saves the
// result it produced, and the read-only commands load it back.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ginjaninja78/proposal-reconciler/internal/config"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("no import result stored")

// Store is the persistence collaborator of the importer.
type Store interface {
	// Save replaces the stored result.
	Save(ctx context.Context, result *types.ReconciliationResult) error

	// Load returns the stored result or ErrNotFound.
	Load(ctx context.Context) (*types.ReconciliationResult, error)

	// Clear removes the stored result. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Merge applies a partial update and returns the merged result.
	Merge(ctx context.Context, partial Partial) (*types.ReconciliationResult, error)

	// Close releases the backend.
	Close() error
}

// Partial is a field-level update for Merge. Raw staging rows replace the
// stored ones only when non-empty; the encoding only when non-blank; the
// other lists whenever they are non-nil.
type Partial struct {
	Encoding  string
	SalesRaw  []types.StagingRow
	ItemsRaw  []types.StagingRow
	Proposals []types.Proposal
	Pending   []types.PendingItem
	Errors    []types.StructuralError
}

// MergeResult applies partial on top of old. A nil old starts from an empty
// result. old is not modified.
func MergeResult(old *types.ReconciliationResult, partial Partial) *types.ReconciliationResult {
	merged := types.ReconciliationResult{
		SalesRaw:  []types.StagingRow{},
		ItemsRaw:  []types.StagingRow{},
		Proposals: []types.Proposal{},
		Pending:   []types.PendingItem{},
		Errors:    []types.StructuralError{},
	}
	if old != nil {
		merged = *old
	}

	if len(partial.SalesRaw) > 0 {
		merged.SalesRaw = partial.SalesRaw
	}
	if len(partial.ItemsRaw) > 0 {
		merged.ItemsRaw = partial.ItemsRaw
	}
	if partial.Encoding != "" {
		merged.Encoding = partial.Encoding
	}
	if partial.Proposals != nil {
		merged.Proposals = partial.Proposals
	}
	if partial.Pending != nil {
		merged.Pending = partial.Pending
	}
	if partial.Errors != nil {
		merged.Errors = partial.Errors
	}

	return &merged
}

// Open returns the Store selected by cfg.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Path)
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// merge is the Load → MergeResult → Save sequence shared by the backends.
func merge(ctx context.Context, s Store, partial Partial) (*types.ReconciliationResult, error) {
	old, err := s.Load(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	merged := MergeResult(old, partial)
	if err := s.Save(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}
