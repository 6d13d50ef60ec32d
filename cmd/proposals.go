// =============================================================================
// Proposal Reconciler - Proposals Command
// =============================================================================
//
// This file defines the read-only 'proposals' command and its 'show'
// subcommand. Both work on the stored result of the last import.
//
// COMMAND USAGE:
//   reconciler proposals [--search TEXT]
//   reconciler proposals show CODE
//
// LIMITS:
//   The listing prints at most 400 proposals; the detail view prints at
//   most 200 items. The totals always count everything.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/proposal-reconciler/internal/locale"
	"github.com/ginjaninja78/proposal-reconciler/internal/reconcile"
	"github.com/ginjaninja78/proposal-reconciler/internal/store"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

const (
	maxListedProposals = 400
	maxListedItems     = 200
)

// ErrNoImport is returned by the read-only commands when nothing was imported.
var ErrNoImport = errors.New("no import found, run 'reconciler import' first")

var searchQuery string

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List the proposals of the last import",
	Long: `List the proposals of the last import, sorted by proposal code.

--search keeps the proposals whose code, store, store tax id, bank or status
contains the text (case-insensitive).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		recon, err := loadResult(cmd.Context())
		if err != nil {
			return err
		}
		printProposalList(cmd.OutOrStdout(), reconcile.FilterProposals(recon.Proposals, searchQuery))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show CODE",
	Short: "Show one proposal and its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recon, err := loadResult(cmd.Context())
		if err != nil {
			return err
		}
		p, ok := reconcile.FindProposal(recon, args[0])
		if !ok {
			return fmt.Errorf("proposal %q not found in the last import", args[0])
		}
		printProposalDetail(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(proposalsCmd)
	proposalsCmd.AddCommand(showCmd)

	proposalsCmd.Flags().StringVarP(&searchQuery, "search", "s", "", "Filter by code, store, tax id, bank or status")
}

// loadResult loads the stored result, mapping an empty store to ErrNoImport.
func loadResult(ctx context.Context) (*types.ReconciliationResult, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	recon, err := st.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoImport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load the last import: %w", err)
	}
	return recon, nil
}

// =============================================================================
// PRINTING
// =============================================================================

func printProposalList(out io.Writer, proposals []types.Proposal) {
	fmt.Fprintf(out, "%-20s %-24s %-18s %-16s %16s %-14s %5s\n",
		"PROPOSAL", "STORE", "STORE TAX ID", "BANK", "FINANCED", "STATUS", "ITEMS")

	for _, p := range head(proposals, maxListedProposals) {
		fmt.Fprintf(out, "%-20s %-24s %-18s %-16s %16s %-14s %5d\n",
			p.ProposalCode,
			text(p.Store),
			text(p.StoreTaxID),
			text(p.Bank),
			locale.FormatMoney(p.FinancedAmount),
			text(p.Status),
			len(p.Items),
		)
	}

	if len(proposals) > maxListedProposals {
		fmt.Fprintf(out, "... showing %d of %d proposals, narrow with --search\n", maxListedProposals, len(proposals))
	} else {
		fmt.Fprintf(out, "%d proposal(s)\n", len(proposals))
	}
}

func printProposalDetail(out io.Writer, p *types.Proposal) {
	fmt.Fprintf(out, "Proposal:        %s\n", p.ProposalCode)
	fmt.Fprintf(out, "Store:           %s\n", text(p.Store))
	fmt.Fprintf(out, "Store tax ID:    %s\n", text(p.StoreTaxID))
	fmt.Fprintf(out, "Bank:            %s\n", text(p.Bank))
	fmt.Fprintf(out, "Financed amount: %s\n", locale.FormatMoney(p.FinancedAmount))
	fmt.Fprintf(out, "Status:          %s\n", text(p.Status))
	fmt.Fprintf(out, "\nItems (%d):\n", len(p.Items))

	if len(p.Items) == 0 {
		fmt.Fprintln(out, "  none")
		return
	}

	fmt.Fprintf(out, "  %-5s %-12s %-14s %-20s %-32s %10s %14s %s\n",
		"LINE", "TYPE", "CODE", "SUPPLIER", "DESCRIPTION", "QTY", "UNIT VALUE", "COURTESY")
	for _, it := range head(p.Items, maxListedItems) {
		courtesy := ""
		if it.Courtesy {
			courtesy = "yes"
		}
		fmt.Fprintf(out, "  %-5d %-12s %-14s %-20s %-32s %10s %14s %s\n",
			it.Line,
			text(it.Type),
			text(it.Code),
			text(it.Supplier),
			text(it.Description),
			locale.FormatNumber(it.Quantity),
			locale.FormatMoney(it.UnitValue),
			courtesy,
		)
	}
	if len(p.Items) > maxListedItems {
		fmt.Fprintf(out, "  ... showing %d of %d items\n", maxListedItems, len(p.Items))
	}
}

// text renders an optional value, or the missing marker.
func text(s *string) string {
	if s == nil {
		return locale.Missing
	}
	return *s
}
