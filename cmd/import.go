// =============================================================================
// Proposal Reconciler - Import Command
// =============================================================================
//
// This file defines the 'import' command, which reads one Sales extract and
// one Items extract, reconciles them and replaces the stored result.
//
// COMMAND USAGE:
//   reconciler import --sales FILE --items FILE [flags]
//
// FLAGS:
//   --sales     : Sales extract (one row per sale)
//   --items     : Items extract (line items of the sales)
//   --encoding  : Source encoding of both extracts (default from config)
//   --export    : Also write the result to an XLSX workbook
//   --archive   : Move the extracts to the archive directory afterwards
//   --dry-run   : Reconcile and print without saving
//   --no-logs   : Skip the error/summary logs in the output directory
//
// OUTPUT:
//   Counts, a preview of the first staging rows of each dataset, the first
//   structural errors and the first pending items.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/proposal-reconciler/internal/importer"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

// Preview limits of the import report.
const (
	previewStagingRows = 8
	previewErrors      = 6
	previewPending     = 10
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	salesFile  string
	itemsFile  string
	encoding   string
	exportFile string
	archive    bool
	dryRun     bool
	noLogs     bool
)

// =============================================================================
// IMPORT COMMAND DEFINITION
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a Sales and an Items extract",
	Long: `The import command reads the Sales and Items extracts, joins every item to
its proposal by proposal code and saves the reconciliation, replacing the
previous one.

Both files are required. If either cannot be read or decoded nothing is
saved and the previous reconciliation is kept.

Rows without a proposal code are reported as structural errors. Items whose
proposal code has no sale in this batch are reported as pending.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&salesFile, "sales", "", "Sales extract (semicolon-delimited)")
	importCmd.Flags().StringVar(&itemsFile, "items", "", "Items extract (semicolon-delimited)")
	importCmd.Flags().StringVar(&encoding, "encoding", "", "Source encoding: utf-8, iso-8859-1, windows-1252 (default from config)")
	importCmd.Flags().StringVar(&exportFile, "export", "", "Write the result to this XLSX file")
	importCmd.Flags().BoolVar(&archive, "archive", false, "Move the extracts to the archive directory after saving")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Reconcile without saving")
	importCmd.Flags().BoolVar(&noLogs, "no-logs", false, "Do not write error and summary logs")

	importCmd.MarkFlagRequired("sales")
	importCmd.MarkFlagRequired("items")
}

// =============================================================================
// MAIN IMPORT FUNCTION
// =============================================================================

func runImport(cmd *cobra.Command) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	im := importer.New(mainConfig, st, slogLogger())

	result, err := im.Run(cmd.Context(), importer.Options{
		SalesPath:  salesFile,
		ItemsPath:  itemsFile,
		Encoding:   encoding,
		DryRun:     dryRun,
		Archive:    archive,
		ExportPath: exportFile,
		WriteLogs:  !noLogs,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printImportReport(out, result.Reconciliation, result.Summary)

	if !result.Saved {
		fmt.Fprintln(out, "\nDry run: nothing was saved.")
	}
	if result.ExportFile != "" {
		fmt.Fprintf(out, "Exported to %s\n", result.ExportFile)
	}
	if result.ErrorLog != "" {
		fmt.Fprintf(out, "Error log: %s\n", result.ErrorLog)
	}
	for _, path := range result.Archived {
		fmt.Fprintf(out, "Archived: %s\n", path)
	}
	return nil
}

// =============================================================================
// REPORT PRINTING
// =============================================================================

// printImportReport prints the counts and the previews of an import.
func printImportReport(out io.Writer, recon *types.ReconciliationResult, s types.Summary) {
	fmt.Fprintln(out, "=== Import Summary ===")
	if recon.ImportID != "" {
		fmt.Fprintf(out, "Import:            %s\n", recon.ImportID)
	}
	fmt.Fprintf(out, "Encoding:          %s\n", recon.Encoding)
	fmt.Fprintf(out, "Sales rows:        %d\n", s.SalesRows)
	fmt.Fprintf(out, "Items rows:        %d\n", s.ItemsRows)
	fmt.Fprintf(out, "Structural errors: %d\n", s.StructuralErrors)
	fmt.Fprintf(out, "Pending items:     %d\n", s.PendingItems)
	fmt.Fprintf(out, "Proposals:         %d\n", s.Proposals)
	fmt.Fprintf(out, "Attached items:    %d\n", s.AttachedItems)

	printStagingPreview(out, "Sales", recon.SalesRaw, true)
	printStagingPreview(out, "Items", recon.ItemsRaw, false)

	if len(recon.Errors) > 0 {
		fmt.Fprintf(out, "\nStructural errors (first %d):\n", previewErrors)
		for _, e := range head(recon.Errors, previewErrors) {
			fmt.Fprintf(out, "  %-5s line %-5d %s\n", e.Kind, e.Line, e.Message)
		}
	}

	if len(recon.Pending) > 0 {
		fmt.Fprintf(out, "\nPending items (first %d):\n", previewPending)
		for _, p := range head(recon.Pending, previewPending) {
			fmt.Fprintf(out, "  line %-5d %-20s %s\n", p.Line, p.ProposalCode, p.Message)
		}
	}
}

func printStagingPreview(out io.Writer, title string, rows []types.StagingRow, withChassis bool) {
	if len(rows) == 0 {
		return
	}

	fmt.Fprintf(out, "\n%s preview (first %d):\n", title, previewStagingRows)
	for _, row := range head(rows, previewStagingRows) {
		if withChassis {
			fmt.Fprintf(out, "  line %-5d %-20s %s\n", row.Line, text(row.ProposalCode), text(row.Chassis))
		} else {
			fmt.Fprintf(out, "  line %-5d %s\n", row.Line, text(row.ProposalCode))
		}
	}
}

// head returns at most n leading elements of s.
func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
