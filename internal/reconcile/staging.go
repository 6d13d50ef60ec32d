// =============================================================================
// Proposal Reconciler - Staging Builder
// =============================================================================
//
// Staging turns the decoded rows of one extract into StagingRows. Every data
// row becomes exactly one StagingRow, in source order, whether or not a join
// key could be extracted. Rows without a key are additionally reported as
// StructuralErrors so they stay visible for audit instead of disappearing.
//
// LINE NUMBERS:
//   Line = row index + 2. Line 1 is the header, so the first data row is 2.
//   Blank lines are dropped by the decoder before counting.
//
// =============================================================================

package reconcile

import (
	"github.com/ginjaninja78/proposal-reconciler/internal/columns"
	"github.com/ginjaninja78/proposal-reconciler/internal/config"
	"github.com/ginjaninja78/proposal-reconciler/internal/csvparser"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

// Staging is the output of BuildStaging for one dataset.
type Staging struct {
	// Kind is the dataset that was staged.
	Kind types.DatasetKind

	// Header echoes the decoded header so later stages can resolve other
	// columns of the same dataset.
	Header []string

	// Rows holds one StagingRow per data row.
	Rows []types.StagingRow

	// Errors holds one StructuralError per row without a join key.
	Errors []types.StructuralError
}

// BuildStaging stages every row of table as the given dataset kind.
//
// PARAMETERS:
//   - table: The decoded extract.
//   - kind: Sales or Items. The chassis column is only resolved for Sales.
//   - cols: The candidate lists; StagingKey and Chassis are used here.
func BuildStaging(table *csvparser.Table, kind types.DatasetKind, cols config.Columns) Staging {
	if table == nil {
		table = &csvparser.Table{}
	}

	normHeader := columns.NormalizeAll(table.Header)

	idxKey := columns.ResolveNormalized(normHeader, cols.StagingKey)
	idxChassis := columns.NotFound
	if kind == types.KindSales {
		idxChassis = columns.ResolveNormalized(normHeader, cols.Chassis)
	}

	staging := Staging{
		Kind:   kind,
		Header: table.Header,
		Rows:   make([]types.StagingRow, 0, len(table.Rows)),
		Errors: []types.StructuralError{},
	}

	for i, fields := range table.Rows {
		line := i + 2
		key := columns.Cell(fields, idxKey)

		if key == nil {
			staging.Errors = append(staging.Errors, types.StructuralError{
				Kind:    kind,
				Line:    line,
				Message: types.MissingKeyMessage,
			})
		}

		staging.Rows = append(staging.Rows, types.StagingRow{
			Kind:         kind,
			Line:         line,
			ProposalCode: key,
			Chassis:      columns.Cell(fields, idxChassis),
			Fields:       fields,
		})
	}

	return staging
}
