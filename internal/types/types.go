// =============================================================================
// Proposal Reconciler - Shared Types
// =============================================================================
//
// This package contains the data model shared by the reconciliation core, the
// importer, the stores and the XLSX export. Keeping it in its own package
// avoids import cycles between:
//   - reconcile
//   - importer
//   - store
//   - xlsxreport
//
// NULL VALUES:
//   Optional text and numeric fields are pointers. A nil pointer means the
//   column was not found or the cell was blank (or, for numbers, did not
//   parse). Nil is never the same thing as an empty string or zero.
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATASET KINDS
// =============================================================================

// DatasetKind identifies which extract a row came from.
type DatasetKind string

const (
	// KindSales is the Sales extract. One Proposal is built per distinct key.
	KindSales DatasetKind = "Sales"

	// KindItems is the Items extract. Its rows are joined onto Proposals.
	KindItems DatasetKind = "Items"
)

// Fixed messages attached to reported rows.
const (
	MissingKeyMessage  = "missing join key, required for reconciliation"
	PendingItemMessage = "item has no matching sale in this batch (pending)"
)

// =============================================================================
// STAGING TYPES
// =============================================================================

// StagingRow is one data row of one dataset after key extraction.
type StagingRow struct {
	// Kind is the dataset the row belongs to.
	Kind DatasetKind `json:"kind"`

	// Line is the 1-based line number counting the header, so the first
	// data row is line 2. Unique and increasing within a dataset.
	Line int `json:"line"`

	// ProposalCode is the extracted join key, nil when missing.
	ProposalCode *string `json:"proposalCode"`

	// Chassis is the secondary identifier shown in Sales previews.
	// Always nil for Items rows.
	Chassis *string `json:"chassis"`

	// Fields is the full split row. It may be shorter than the header.
	Fields []string `json:"cols"`
}

// StructuralError is a row that could not yield a join key.
type StructuralError struct {
	Kind    DatasetKind `json:"kind"`
	Line    int         `json:"line"`
	Message string      `json:"message"`
}

// =============================================================================
// AGGREGATE TYPES
// =============================================================================

// Proposal is the reconciled aggregate for one join key.
//
// Scalar fields come from the first Sales row seen for the key and are never
// overwritten. Items are appended by the attacher in join order.
type Proposal struct {
	ProposalCode   string           `json:"proposalCode"`
	Store          *string          `json:"store"`
	StoreTaxID     *string          `json:"storeTaxId"`
	Bank           *string          `json:"bank"`
	FinancedAmount *decimal.Decimal `json:"financedAmount"`
	Status         *string          `json:"status"`
	Items          []Item           `json:"items"`
}

// Item is one line item attached to a Proposal.
type Item struct {
	ProposalCode string           `json:"proposalCode"`
	Type         *string          `json:"type"`
	Code         *string          `json:"itemCode"`
	Supplier     *string          `json:"supplier"`
	Description  *string          `json:"description"`
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitValue    *decimal.Decimal `json:"unitValue"`

	// Courtesy marks a no-charge item ("S" in the source column).
	Courtesy bool `json:"courtesy"`

	// Line is the source line number in the Items extract.
	Line int `json:"line"`
}

// PendingItem is a keyed Items row with no Proposal at join time.
type PendingItem struct {
	Kind         DatasetKind `json:"kind"`
	Line         int         `json:"line"`
	ProposalCode string      `json:"proposalCode"`
	Message      string      `json:"message"`
}

// =============================================================================
// RESULT TYPES
// =============================================================================

// ReconciliationResult is the single artifact produced by an import and
// handed to the store. A new import replaces it entirely.
type ReconciliationResult struct {
	// ImportID identifies the import run (a UUID). Empty for results built
	// directly by the core.
	ImportID string `json:"importId,omitempty"`

	// ImportedAt is when the importer produced the result.
	ImportedAt time.Time `json:"importedAt,omitzero"`

	// Encoding is the source encoding label supplied by the caller.
	Encoding string `json:"encoding"`

	SalesRaw  []StagingRow      `json:"salesRaw"`
	ItemsRaw  []StagingRow      `json:"itemsRaw"`
	Proposals []Proposal        `json:"proposals"`
	Pending   []PendingItem     `json:"pending"`
	Errors    []StructuralError `json:"errors"`
}

// Summary holds the counts reported for one result.
type Summary struct {
	SalesRows        int `json:"salesRows"`
	ItemsRows        int `json:"itemsRows"`
	StructuralErrors int `json:"structuralErrors"`
	PendingItems     int `json:"pendingItems"`
	Proposals        int `json:"proposals"`
	AttachedItems    int `json:"attachedItems"`
}
