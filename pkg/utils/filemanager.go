// =============================================================================
// Proposal Reconciler - File Manager Utility
// =============================================================================
//
// This module provides the file handling around an import:
//   - Resolving extract paths against the input directory
//   - Archiving extracts after a successful import
//   - Error log generation (structural errors and pending items)
//   - Summary log generation
//   - Output file naming
//
// ARCHIVAL STRATEGY:
//   - Extracts are moved to input_archive only after the result was saved
//   - A failed import leaves the extracts where they were
//   - Logs and exports are written to the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations around an import.
type FileManager struct {
	// InputDir is where extracts are usually dropped.
	InputDir string

	// OutputDir receives logs and exports.
	OutputDir string

	// InputArchiveDir receives archived extracts.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/vendas.csv
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output and archive directories.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.InputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// INPUT RESOLUTION
// =============================================================================

// ResolveInput returns filePath as is when it exists, otherwise the same name
// inside InputDir when that exists. When neither exists filePath is returned
// unchanged and the read reports the error.
func (fm *FileManager) ResolveInput(filePath string) string {
	if filePath == "" || FileExists(filePath) || filepath.IsAbs(filePath) || fm.InputDir == "" {
		return filePath
	}

	candidate := filepath.Join(fm.InputDir, filePath)
	if FileExists(candidate) {
		return candidate
	}
	return filePath
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an extract to the archive directory. The file name
// is prefixed with the import id so successive imports of "vendas.csv" do
// not overwrite each other.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath, importID string) (string, error) {
	archivePath := fm.getArchivePath(filePath, importID)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	// Move the file.
	if err := os.Rename(filePath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath, importID string) string {
	fileName := filepath.Base(filePath)
	if importID != "" {
		fileName = importID + "_" + fileName
	}

	archiveDir := fm.InputArchiveDir
	if fm.UseTimestampSubdirs {
		now := time.Now()
		archiveDir = filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	return filepath.Join(archiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     any {key} given in params
//   - ext: The extension to enforce (e.g. ".xlsx"). Empty keeps format as is.
//   - params: Extra placeholder values.
//
// EXAMPLE:
//
//	format: "reconciliation_{import}_{timestamp}"
//	params: {"import": "3f2a..."}
//	output: "reconciliation_3f2a..._20240115_143022.xlsx"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry is one reported row of an import.
type ErrorLogEntry struct {
	// ErrorType is "structural" or "pending".
	ErrorType string

	// Dataset is "Sales" or "Items".
	Dataset string

	RowNumber    int
	ProposalCode string
	ErrorMessage string
}

// WriteErrorLog writes the reported rows of an import to a text file in the
// output directory.
//
// RETURNS:
//   - The path to the error log file, or "" when entries is empty.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir, importID string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, GenerateOutputFileName("error_log_{timestamp}_{import}", ".txt", map[string]string{"import": importID}))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Proposal Reconciler - Error Log\n"+
		"Import:       %s\n"+
		"Generated:    %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		importID,
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n"+
			"  Error Type:     %s\n"+
			"  Dataset:        %s\n"+
			"  Row Number:     %d\n",
			i+1,
			entry.ErrorType,
			entry.Dataset,
			entry.RowNumber)

		if entry.ProposalCode != "" {
			fmt.Fprintf(writer, "  Proposal Code:  %s\n", entry.ProposalCode)
		}
		fmt.Fprintf(writer, "  Message:        %s\n\n", entry.ErrorMessage)
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about one import.
type ProcessingSummary struct {
	ImportID         string
	StartTime        time.Time
	EndTime          time.Time
	SalesFile        string
	ItemsFile        string
	Encoding         string
	SalesRows        int
	ItemsRows        int
	Proposals        int
	AttachedItems    int
	StructuralErrors int
	PendingItems     int
}

// WriteSummaryLog writes an import summary to a text file in the output
// directory and returns its path.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, GenerateOutputFileName("import_summary_{timestamp}_{import}", ".txt", map[string]string{"import": summary.ImportID}))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Proposal Reconciler - Import Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Import:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Sales File:     %s\n"+
		"  Items File:     %s\n"+
		"  Encoding:       %s\n\n"+
		"Statistics:\n"+
		"  Sales Rows:         %d\n"+
		"  Items Rows:         %d\n"+
		"  Proposals:          %d\n"+
		"  Attached Items:     %d\n"+
		"  Structural Errors:  %d\n"+
		"  Pending Items:      %d\n\n",
		summary.ImportID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.SalesFile,
		summary.ItemsFile,
		summary.Encoding,
		summary.SalesRows,
		summary.ItemsRows,
		summary.Proposals,
		summary.AttachedItems,
		summary.StructuralErrors,
		summary.PendingItems)

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
