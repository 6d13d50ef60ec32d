// =============================================================================
// Proposal Reconciler - Importer
// =============================================================================
//
// This module runs one import invocation end to end.
//
// IMPORT PIPELINE:
//   1. Read and decode the Sales and Items extracts (concurrently)
//   2. Reconcile them (reconcile.Reconcile, a pure function)
//   3. Stamp the import id and time
//   4. Save the result to the store (skipped on dry runs)
//   5. Export the XLSX report and write the error/summary logs (optional)
//   6. Archive the extracts (optional, never on dry runs)
//
// ATOMICITY:
//   A failure in steps 1-4 returns an error and leaves the stored result
//   untouched. Nothing partial is ever saved. Failures in step 6 are logged
//   and do not fail the import, since the result is already saved.
//
// =============================================================================

package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/proposal-reconciler/internal/config"
	"github.com/ginjaninja78/proposal-reconciler/internal/csvparser"
	"github.com/ginjaninja78/proposal-reconciler/internal/reconcile"
	"github.com/ginjaninja78/proposal-reconciler/internal/store"
	"github.com/ginjaninja78/proposal-reconciler/internal/types"
	"github.com/ginjaninja78/proposal-reconciler/internal/xlsxreport"
	"github.com/ginjaninja78/proposal-reconciler/pkg/utils"
)

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// Options describes one import.
type Options struct {
	// SalesPath and ItemsPath are the extracts. Relative paths that do not
	// exist are looked up in the configured input directory.
	SalesPath string
	ItemsPath string

	// Encoding is the source encoding of both extracts. Empty uses the
	// configured default.
	Encoding string

	// DryRun reconciles without saving or archiving.
	DryRun bool

	// Archive moves the extracts to the archive directory after saving.
	Archive bool

	// ExportPath, when set, receives an XLSX report of the result.
	ExportPath string

	// WriteLogs writes the error and summary logs to the output directory.
	WriteLogs bool
}

// Result represents the outcome of one import.
type Result struct {
	// Reconciliation is the produced result (also saved unless DryRun).
	Reconciliation *types.ReconciliationResult

	// Summary holds the counts of Reconciliation.
	Summary types.Summary

	// Saved reports whether the result was written to the store.
	Saved bool

	// ExportFile, ErrorLog and SummaryLog are the written files, if any.
	ExportFile string
	ErrorLog   string
	SummaryLog string

	// Archived lists the archived extract paths.
	Archived []string

	// Duration is the time taken by the whole import.
	Duration time.Duration
}

// Logger is the logging surface used by the importer. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// =============================================================================
// IMPORTER STRUCTURE
// =============================================================================

// Importer runs imports against one store.
type Importer struct {
	cfg    *config.MainConfig
	store  store.Store
	files  *utils.FileManager
	logger Logger

	// now and newID are replaceable in tests.
	now   func() time.Time
	newID func() string
}

// New creates an Importer.
func New(cfg *config.MainConfig, st store.Store, logger Logger) *Importer {
	return &Importer{
		cfg:    cfg,
		store:  st,
		files:  utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir),
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes one import.
func (im *Importer) Run(ctx context.Context, opts Options) (*Result, error) {
	start := im.now()

	encoding := opts.Encoding
	if encoding == "" {
		encoding = im.cfg.DefaultEncoding
	}

	salesPath := im.files.ResolveInput(opts.SalesPath)
	itemsPath := im.files.ResolveInput(opts.ItemsPath)

	im.logger.Info("Starting import", "sales", salesPath, "items", itemsPath, "encoding", encoding)

	// =========================================================================
	// STEP 1: READ BOTH EXTRACTS
	// =========================================================================

	salesText, itemsText, err := readExtracts(ctx, salesPath, itemsPath, encoding)
	if err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2-3: RECONCILE AND STAMP
	// =========================================================================

	recon := reconcile.Reconcile(salesText, itemsText, encoding, im.cfg.Reconcile)
	recon.ImportID = im.newID()
	recon.ImportedAt = im.now().UTC()

	result := &Result{
		Reconciliation: recon,
		Summary:        reconcile.Summarize(recon),
	}

	im.logger.Debug("Reconciled extracts",
		"import_id", recon.ImportID,
		"sales_rows", result.Summary.SalesRows,
		"items_rows", result.Summary.ItemsRows,
		"proposals", result.Summary.Proposals,
		"structural_errors", result.Summary.StructuralErrors,
		"pending_items", result.Summary.PendingItems,
	)

	// =========================================================================
	// STEP 4: SAVE
	// =========================================================================

	if !opts.DryRun {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := im.store.Save(ctx, recon); err != nil {
			return nil, fmt.Errorf("failed to save import result: %w", err)
		}
		result.Saved = true
	}

	// =========================================================================
	// STEP 5: EXPORT AND LOGS
	// =========================================================================

	if opts.ExportPath != "" {
		if err := xlsxreport.WriteFile(recon, opts.ExportPath); err != nil {
			return result, fmt.Errorf("failed to export result: %w", err)
		}
		result.ExportFile = opts.ExportPath
	}

	if opts.WriteLogs {
		im.writeLogs(result, salesPath, itemsPath, start)
	}

	// =========================================================================
	// STEP 6: ARCHIVE
	// =========================================================================

	if opts.Archive && !opts.DryRun {
		for _, path := range []string{salesPath, itemsPath} {
			archived, err := im.files.ArchiveInputFile(path, recon.ImportID)
			if err != nil {
				// Log the error but don't fail the import.
				im.logger.Warn("Failed to archive extract", "path", path, "error", err)
				continue
			}
			result.Archived = append(result.Archived, archived)
		}
	}

	result.Duration = im.now().Sub(start)
	im.logger.Info("Import complete",
		"import_id", recon.ImportID,
		"proposals", result.Summary.Proposals,
		"saved", result.Saved,
		"duration", result.Duration,
	)

	return result, nil
}

// writeLogs writes the error and summary logs. Failures are logged only.
func (im *Importer) writeLogs(result *Result, salesPath, itemsPath string, start time.Time) {
	if err := im.files.EnsureDirectories(); err != nil {
		im.logger.Warn("Failed to create output directories", "error", err)
		return
	}

	recon := result.Reconciliation

	errorLog, err := utils.WriteErrorLog(ErrorLogEntries(recon), im.cfg.OutputDir, recon.ImportID)
	if err != nil {
		im.logger.Warn("Failed to write error log", "error", err)
	}
	result.ErrorLog = errorLog

	summaryLog, err := utils.WriteSummaryLog(utils.ProcessingSummary{
		ImportID:         recon.ImportID,
		StartTime:        start,
		EndTime:          im.now(),
		SalesFile:        salesPath,
		ItemsFile:        itemsPath,
		Encoding:         recon.Encoding,
		SalesRows:        result.Summary.SalesRows,
		ItemsRows:        result.Summary.ItemsRows,
		Proposals:        result.Summary.Proposals,
		AttachedItems:    result.Summary.AttachedItems,
		StructuralErrors: result.Summary.StructuralErrors,
		PendingItems:     result.Summary.PendingItems,
	}, im.cfg.OutputDir)
	if err != nil {
		im.logger.Warn("Failed to write summary log", "error", err)
	}
	result.SummaryLog = summaryLog
}

// ErrorLogEntries lists the structural errors then the pending items of a
// result as error log entries.
func ErrorLogEntries(recon *types.ReconciliationResult) []utils.ErrorLogEntry {
	entries := make([]utils.ErrorLogEntry, 0, len(recon.Errors)+len(recon.Pending))

	for _, e := range recon.Errors {
		entries = append(entries, utils.ErrorLogEntry{
			ErrorType:    "structural",
			Dataset:      string(e.Kind),
			RowNumber:    e.Line,
			ErrorMessage: e.Message,
		})
	}
	for _, p := range recon.Pending {
		entries = append(entries, utils.ErrorLogEntry{
			ErrorType:    "pending",
			Dataset:      string(p.Kind),
			RowNumber:    p.Line,
			ProposalCode: p.ProposalCode,
			ErrorMessage: p.Message,
		})
	}

	return entries
}

// =============================================================================
// CONCURRENT READ
// =============================================================================

type readResult struct {
	kind types.DatasetKind
	text string
	err  error
}

// readExtracts reads and decodes both extracts in parallel. Decoding has no
// side effects, so the order of completion does not matter; each text is
// routed back by its dataset kind.
func readExtracts(ctx context.Context, salesPath, itemsPath, encoding string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	var wg sync.WaitGroup
	results := make(chan readResult, 2)

	read := func(kind types.DatasetKind, path string) {
		defer wg.Done()
		text, err := csvparser.ReadFile(path, encoding)
		results <- readResult{kind: kind, text: text, err: err}
	}

	wg.Add(2)
	go read(types.KindSales, salesPath)
	go read(types.KindItems, itemsPath)

	go func() {
		wg.Wait()
		close(results)
	}()

	var salesText, itemsText string
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to read %s extract: %w", r.kind, r.err)
			}
			continue
		}
		if r.kind == types.KindSales {
			salesText = r.text
		} else {
			itemsText = r.text
		}
	}

	if firstErr != nil {
		return "", "", firstErr
	}
	return salesText, itemsText, nil
}
