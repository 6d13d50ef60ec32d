// =============================================================================
// Proposal Reconciler - Reconciliation Report
// =============================================================================
//
// This file assembles the ReconciliationResult and runs the whole pipeline.
//
// PIPELINE:
//   1. Decode both texts (csvparser.Decode)
//   2. Stage each dataset independently (BuildStaging)
//   3. Build Proposals from the Sales staging rows (NormalizeProposals)
//   4. Attach Items rows to Proposals (AttachItems)
//   5. Assemble the result (Assemble)
//
// The pipeline is a pure function of its inputs. It reads no files, keeps no
// state and does not log; the importer owns those concerns.
//
// =============================================================================

package reconcile

import (
	"sort"

	"github.com/ginjaninja78/proposal-reconciler/internal/config"
	"github.com/ginjaninja78/proposal-reconciler/internal/csvparser"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

// Reconcile runs the full pipeline on two decoded extracts.
//
// PARAMETERS:
//   - salesText, itemsText: The decoded Sales and Items extracts.
//   - encoding: The source encoding label, stamped on the result as is.
//   - cfg: Delimiter and column candidate lists.
func Reconcile(salesText, itemsText, encoding string, cfg config.Reconcile) *types.ReconciliationResult {
	delim := cfg.DelimiterRune()
	if cfg.Delimiter == "" {
		delim = csvparser.DefaultDelimiter
	}

	sales := BuildStaging(csvparser.Decode(salesText, delim), types.KindSales, cfg.Columns)
	items := BuildStaging(csvparser.Decode(itemsText, delim), types.KindItems, cfg.Columns)

	proposals := NormalizeProposals(sales, cfg.Columns)
	pending := AttachItems(items, proposals, cfg.Columns)

	return Assemble(encoding, sales, items, proposals, pending)
}

// Assemble builds the ReconciliationResult.
//
// Errors are the Sales errors followed by the Items errors, each in source
// order. Proposals are sorted by join key with plain byte-wise string
// comparison. Pending items keep the order AttachItems produced.
func Assemble(encoding string, sales, items Staging, proposals map[string]*types.Proposal, pending []types.PendingItem) *types.ReconciliationResult {
	errs := make([]types.StructuralError, 0, len(sales.Errors)+len(items.Errors))
	errs = append(errs, sales.Errors...)
	errs = append(errs, items.Errors...)

	sorted := make([]types.Proposal, 0, len(proposals))
	for _, p := range proposals {
		sorted = append(sorted, *p)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProposalCode < sorted[j].ProposalCode
	})

	if pending == nil {
		pending = []types.PendingItem{}
	}

	return &types.ReconciliationResult{
		Encoding:  encoding,
		SalesRaw:  nonNilRows(sales.Rows),
		ItemsRaw:  nonNilRows(items.Rows),
		Proposals: sorted,
		Pending:   pending,
		Errors:    errs,
	}
}

// Summarize returns the counts reported for a result.
func Summarize(result *types.ReconciliationResult) types.Summary {
	if result == nil {
		return types.Summary{}
	}

	attached := 0
	for _, p := range result.Proposals {
		attached += len(p.Items)
	}

	return types.Summary{
		SalesRows:        len(result.SalesRaw),
		ItemsRows:        len(result.ItemsRaw),
		StructuralErrors: len(result.Errors),
		PendingItems:     len(result.Pending),
		Proposals:        len(result.Proposals),
		AttachedItems:    attached,
	}
}

func nonNilRows(rows []types.StagingRow) []types.StagingRow {
	if rows == nil {
		return []types.StagingRow{}
	}
	return rows
}
