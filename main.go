// =============================================================================
// Proposal Reconciler - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Proposal Reconciler CLI. It delegates
// command execution to the cmd package.
//
// USAGE:
//   reconciler import       - Reconcile a Sales and an Items extract
//   reconciler proposals    - List, search and show reconciled proposals
//   reconciler export       - Export the last import to XLSX
//   reconciler clear        - Remove the stored import
//   reconciler version      - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Decoding, reconciliation, persistence, export
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/proposal-reconciler/cmd"
)

func main() {
	cmd.Execute()
}
