package reconcile

import (
	"github.com/ginjaninja78/proposal-reconciler/internal/columns"
	"github.com/ginjaninja78/proposal-reconciler/internal/config"
	"github.com/ginjaninja78/proposal-reconciler/internal/locale"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

// salesColumns holds the resolved Sales column indexes.
type salesColumns struct {
	key, store, storeTaxID, bank, financedAmount, status int
}

func resolveSalesColumns(header []string, cols config.Columns) salesColumns {
	norm := columns.NormalizeAll(header)
	return salesColumns{
		key:            columns.ResolveNormalized(norm, cols.Key),
		store:          columns.ResolveNormalized(norm, cols.Store),
		storeTaxID:     columns.ResolveNormalized(norm, cols.StoreTaxID),
		bank:           columns.ResolveNormalized(norm, cols.Bank),
		financedAmount: columns.ResolveNormalized(norm, cols.FinancedAmount),
		status:         columns.ResolveNormalized(norm, cols.Status),
	}
}

// rowKey reads the join key from the re-resolved key column, falling back to
// the key extracted at staging when that column was not found.
func rowKey(row types.StagingRow, idxKey int) *string {
	if idxKey == columns.NotFound {
		return row.ProposalCode
	}
	return columns.Cell(row.Fields, idxKey)
}

// NormalizeProposals builds one Proposal per distinct join key of the Sales
// staging rows.
//
// First row wins: the earliest row in source order populates the Proposal and
// every later row with the same key is skipped entirely. Its fields are never
// merged in. Rows without a key are skipped; staging already reported them.
func NormalizeProposals(sales Staging, cols config.Columns) map[string]*types.Proposal {
	idx := resolveSalesColumns(sales.Header, cols)
	byKey := make(map[string]*types.Proposal)

	for _, row := range sales.Rows {
		key := rowKey(row, idx.key)
		if key == nil {
			continue
		}
		if _, seen := byKey[*key]; seen {
			continue
		}

		byKey[*key] = &types.Proposal{
			ProposalCode:   *key,
			Store:          columns.Cell(row.Fields, idx.store),
			StoreTaxID:     columns.Cell(row.Fields, idx.storeTaxID),
			Bank:           columns.Cell(row.Fields, idx.bank),
			FinancedAmount: locale.ParseNumberPtr(columns.Cell(row.Fields, idx.financedAmount)),
			Status:         columns.Cell(row.Fields, idx.status),
			Items:          []types.Item{},
		}
	}

	return byKey
}
