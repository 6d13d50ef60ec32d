// =============================================================================
// Proposal Reconciler - XLSX Report Writer
// =============================================================================
//
// This module exports a ReconciliationResult to an XLSX workbook so the
// reconciliation can be reviewed in a spreadsheet.
//
// WORKBOOK LAYOUT:
//   Summary    : counts, encoding, import id
//   Proposals  : one row per proposal (sorted by proposal code)
//   Items      : one row per attached item, grouped by proposal
//   Pending    : items without a matching sale
//   Errors     : rows without a proposal code
//
// Numbers are written as numeric cells; absent values are left empty so they
// stay distinct from zero.
//
// =============================================================================

package xlsxreport

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/proposal-reconciler/internal/reconcile"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

// Sheet names.
const (
	SheetSummary   = "Summary"
	SheetProposals = "Proposals"
	SheetItems     = "Items"
	SheetPending   = "Pending"
	SheetErrors    = "Errors"
)

// Build creates the workbook for result. The caller closes it.
func Build(result *types.ReconciliationResult) (*excelize.File, error) {
	if result == nil {
		return nil, fmt.Errorf("cannot export a nil result")
	}

	f := excelize.NewFile()

	// The default sheet becomes the summary.
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}

	writers := []struct {
		sheet string
		fn    func(*excelize.File, *types.ReconciliationResult) error
	}{
		{SheetSummary, writeSummary},
		{SheetProposals, writeProposals},
		{SheetItems, writeItems},
		{SheetPending, writePending},
		{SheetErrors, writeErrors},
	}

	for _, w := range writers {
		if w.sheet != SheetSummary {
			if _, err := f.NewSheet(w.sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to create sheet %s: %w", w.sheet, err)
			}
		}
		if err := w.fn(f, result); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write sheet %s: %w", w.sheet, err)
		}
	}

	return f, nil
}

// WriteFile exports result to path.
func WriteFile(result *types.ReconciliationResult, path string) error {
	f, err := Build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Write exports result to w.
func Write(result *types.ReconciliationResult, w io.Writer) error {
	f, err := Build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// =============================================================================
// SHEET WRITERS
// =============================================================================

func writeSummary(f *excelize.File, result *types.ReconciliationResult) error {
	s := reconcile.Summarize(result)

	rows := [][]any{
		{"Import ID", result.ImportID},
		{"Encoding", result.Encoding},
		{"Sales rows (staging)", s.SalesRows},
		{"Items rows (staging)", s.ItemsRows},
		{"Structural errors", s.StructuralErrors},
		{"Pending items", s.PendingItems},
		{"Proposals", s.Proposals},
		{"Attached items", s.AttachedItems},
	}
	if !result.ImportedAt.IsZero() {
		rows = append(rows, []any{"Imported at", result.ImportedAt.Format("2006-01-02 15:04:05")})
	}

	return writeRows(f, SheetSummary, nil, rows)
}

func writeProposals(f *excelize.File, result *types.ReconciliationResult) error {
	header := []any{"Proposal Code", "Store", "Store Tax ID", "Bank", "Financed Amount", "Status", "Items"}

	rows := make([][]any, 0, len(result.Proposals))
	for _, p := range result.Proposals {
		rows = append(rows, []any{
			p.ProposalCode,
			str(p.Store),
			str(p.StoreTaxID),
			str(p.Bank),
			num(p.FinancedAmount),
			str(p.Status),
			len(p.Items),
		})
	}

	return writeRows(f, SheetProposals, header, rows)
}

func writeItems(f *excelize.File, result *types.ReconciliationResult) error {
	header := []any{"Proposal Code", "Line", "Type", "Item Code", "Supplier", "Description", "Quantity", "Unit Value", "Courtesy"}

	var rows [][]any
	for _, p := range result.Proposals {
		for _, it := range p.Items {
			courtesy := "No"
			if it.Courtesy {
				courtesy = "Yes"
			}
			rows = append(rows, []any{
				it.ProposalCode,
				it.Line,
				str(it.Type),
				str(it.Code),
				str(it.Supplier),
				str(it.Description),
				num(it.Quantity),
				num(it.UnitValue),
				courtesy,
			})
		}
	}

	return writeRows(f, SheetItems, header, rows)
}

func writePending(f *excelize.File, result *types.ReconciliationResult) error {
	header := []any{"Proposal Code", "Line", "Message"}

	rows := make([][]any, 0, len(result.Pending))
	for _, p := range result.Pending {
		rows = append(rows, []any{p.ProposalCode, p.Line, p.Message})
	}

	return writeRows(f, SheetPending, header, rows)
}

func writeErrors(f *excelize.File, result *types.ReconciliationResult) error {
	header := []any{"Dataset", "Line", "Message"}

	rows := make([][]any, 0, len(result.Errors))
	for _, e := range result.Errors {
		rows = append(rows, []any{string(e.Kind), e.Line, e.Message})
	}

	return writeRows(f, SheetErrors, header, rows)
}

// writeRows writes an optional header row followed by rows, starting at A1.
func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	r := 1
	if header != nil {
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		r++
	}

	for _, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		r++
	}
	return nil
}

// str returns the value or nil so absent cells stay empty.
func str(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// num returns a float for numeric cells or nil so absent cells stay empty.
func num(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
