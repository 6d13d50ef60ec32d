package reconcile

import (
	"strings"

	"github.com/ginjaninja78/proposal-reconciler/internal/columns"
	"github.com/ginjaninja78/proposal-reconciler/internal/config"
	"github.com/ginjaninja78/proposal-reconciler/internal/locale"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

// courtesyMarker is the value of the courtesy column for no-charge items.
const courtesyMarker = "s"

// itemColumns holds the resolved Items column indexes.
type itemColumns struct {
	key, itemType, code, supplier, description, quantity, unitValue, courtesy int
}

func resolveItemColumns(header []string, cols config.Columns) itemColumns {
	norm := columns.NormalizeAll(header)
	return itemColumns{
		key:         columns.ResolveNormalized(norm, cols.Key),
		itemType:    columns.ResolveNormalized(norm, cols.ItemType),
		code:        columns.ResolveNormalized(norm, cols.ItemCode),
		supplier:    columns.ResolveNormalized(norm, cols.Supplier),
		description: columns.ResolveNormalized(norm, cols.Description),
		quantity:    columns.ResolveNormalized(norm, cols.Quantity),
		unitValue:   columns.ResolveNormalized(norm, cols.UnitValue),
		courtesy:    columns.ResolveNormalized(norm, cols.Courtesy),
	}
}

// AttachItems joins the Items staging rows onto proposals and returns the
// rows that found no Proposal.
//
// This is a single forward pass over the Proposals known at call time. A
// keyed row is either appended to exactly one Proposal (in source order) or
// reported once as pending; a pending row is never re-attached later. Rows
// without a key are skipped since staging already reported them.
func AttachItems(items Staging, proposals map[string]*types.Proposal, cols config.Columns) []types.PendingItem {
	idx := resolveItemColumns(items.Header, cols)
	pending := []types.PendingItem{}

	for _, row := range items.Rows {
		key := rowKey(row, idx.key)
		if key == nil {
			continue
		}

		prop, ok := proposals[*key]
		if !ok {
			pending = append(pending, types.PendingItem{
				Kind:         types.KindItems,
				Line:         row.Line,
				ProposalCode: *key,
				Message:      types.PendingItemMessage,
			})
			continue
		}

		prop.Items = append(prop.Items, buildItem(row, *key, idx))
	}

	return pending
}

func buildItem(row types.StagingRow, key string, idx itemColumns) types.Item {
	marker := strings.ToLower(strings.TrimSpace(columns.Raw(row.Fields, idx.courtesy)))

	return types.Item{
		ProposalCode: key,
		Type:         columns.Cell(row.Fields, idx.itemType),
		Code:         columns.Cell(row.Fields, idx.code),
		Supplier:     columns.Cell(row.Fields, idx.supplier),
		Description:  columns.Cell(row.Fields, idx.description),
		Quantity:     locale.ParseNumberPtr(columns.Cell(row.Fields, idx.quantity)),
		UnitValue:    locale.ParseNumberPtr(columns.Cell(row.Fields, idx.unitValue)),
		Courtesy:     idx.courtesy != columns.NotFound && marker == courtesyMarker,
		Line:         row.Line,
	}
}
