// =============================================================================
// Proposal Reconciler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reconciler)
//   ├── importCmd    (reconciler import)
//   ├── proposalsCmd (reconciler proposals)
//   │   └── showCmd  (reconciler proposals show CODE)
//   ├── exportCmd    (reconciler export)
//   ├── clearCmd     (reconciler clear)
//   └── versionCmd   (reconciler version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the YAML configuration before any subcommand runs
//   3. Setting up slog
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/proposal-reconciler/internal/config"
	"github.com/ginjaninja78/proposal-reconciler/internal/store"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// mainConfig is loaded by PersistentPreRunE before any subcommand runs.
var mainConfig *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Proposal Reconciler - Join Sales and Items extracts into proposals",
	Long: `Proposal Reconciler imports two semicolon-delimited extracts exported by
a retail-finance back office (Sales and Items), joins them on the proposal
code and keeps the latest reconciliation for review.

Key Features:
  - Accent and case tolerant column detection
  - Brazilian number formats ("1.234,56")
  - Rows without a proposal code reported as structural errors
  - Items without a matching sale reported as pending
  - JSON file or SQLite persistence, XLSX export

Example Usage:
  reconciler import --sales vendas.csv --items itens.csv
  reconciler proposals --search "loja centro"
  reconciler proposals show P1
  reconciler export --out reconciliation.xlsx`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return err
		}
		mainConfig = cfg

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		setupLogger(parseLevel(level), cfg.LogFormat)
		slog.Debug("Configuration loaded", "path", cfgFile, "store", cfg.Store.Backend)
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (missing file uses defaults)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// setupLogger installs the default slog logger on stderr.
func setupLogger(level slog.Level, format string) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openStore opens the configured store. The caller closes it.
func openStore() (store.Store, error) {
	st, err := store.Open(mainConfig.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", mainConfig.Store.Backend, err)
	}
	return st, nil
}

// slogLogger returns the logger configured by setupLogger.
func slogLogger() *slog.Logger {
	return slog.Default()
}
