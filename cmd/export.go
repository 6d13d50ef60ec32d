// =============================================================================
// Proposal Reconciler - Export Command
// =============================================================================
//
// This file defines the 'export' command, which writes the stored result of
// the last import to an XLSX workbook.
//
// COMMAND USAGE:
//   reconciler export [--out FILE]
//
// Without --out the workbook is named reconciliation_<import>_<timestamp>.xlsx
// and written to the output directory.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/proposal-reconciler/internal/xlsxreport"
	"github.com/ginjaninja78/proposal-reconciler/pkg/utils"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the last import to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		recon, err := loadResult(cmd.Context())
		if err != nil {
			return err
		}

		path := exportOut
		if path == "" {
			if err := os.MkdirAll(mainConfig.OutputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			name := utils.GenerateOutputFileName("reconciliation_{import}_{timestamp}", ".xlsx",
				map[string]string{"import": recon.ImportID})
			path = filepath.Join(mainConfig.OutputDir, name)
		}

		if err := xlsxreport.WriteFile(recon, path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d proposal(s) to %s\n", len(recon.Proposals), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Workbook path (default: generated name in the output directory)")
}
