// =============================================================================
// Proposal Reconciler - Configuration Module
// =============================================================================
//
// This module loads the application configuration from a YAML file. The
// configuration covers:
//   1. Directories (input, output, archive)
//   2. Logging (level and format)
//   3. Persistence (which store backend and where)
//   4. Reconciliation (field delimiter and column candidate lists)
//
// COLUMN CANDIDATES:
//   The candidate lists are part of the reconciliation contract: changing
//   them changes which column a field is read from. Every list is made of
//   already-normalized labels (see internal/columns) tried in priority order.
//   A list left empty in the YAML falls back to its default.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is where Sales/Items extracts are usually dropped.
	// Relative --sales/--items paths are resolved against it.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives error logs, summary logs and XLSX exports.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives the extracts after a successful import when
	// archiving is requested.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the slog handler: "console" (text) or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format"`

	// =========================================================================
	// IMPORT SETTINGS
	// =========================================================================

	// DefaultEncoding is used when --encoding is not given.
	// Default: "utf-8"
	DefaultEncoding string `yaml:"default_encoding"`

	// Store selects the persistence backend.
	Store StoreConfig `yaml:"store"`

	// Reconcile holds the reconciliation settings.
	Reconcile Reconcile `yaml:"reconcile"`
}

// StoreConfig selects where the ReconciliationResult is persisted.
type StoreConfig struct {
	// Backend is "file" (JSON blob) or "sqlite".
	// Default: "file"
	Backend string `yaml:"backend"`

	// Path is the JSON file or SQLite database path.
	// Default: "./data/import.json" or "./data/import.db"
	Path string `yaml:"path"`
}

// =============================================================================
// RECONCILIATION SETTINGS
// =============================================================================

// Reconcile is everything the reconciliation core reads besides its two
// input texts.
type Reconcile struct {
	// Delimiter is the single field separator character.
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// Columns holds the candidate labels per field.
	Columns Columns `yaml:"columns"`
}

// Columns holds the candidate label lists for every field the core reads.
type Columns struct {
	// StagingKey locates the join key while staging either dataset.
	StagingKey []string `yaml:"staging_key"`

	// Key re-locates the join key when building proposals and attaching items.
	Key []string `yaml:"key"`

	// Chassis locates the Sales secondary identifier.
	Chassis []string `yaml:"chassis"`

	// Sales fields.
	Store          []string `yaml:"store"`
	StoreTaxID     []string `yaml:"store_tax_id"`
	Bank           []string `yaml:"bank"`
	FinancedAmount []string `yaml:"financed_amount"`
	Status         []string `yaml:"status"`

	// Items fields.
	ItemType    []string `yaml:"item_type"`
	ItemCode    []string `yaml:"item_code"`
	Supplier    []string `yaml:"supplier"`
	Description []string `yaml:"description"`
	Quantity    []string `yaml:"quantity"`
	UnitValue   []string `yaml:"unit_value"`
	Courtesy    []string `yaml:"courtesy"`
}

// DefaultColumns returns the candidate lists used by the production extracts.
//
// NOTE: ItemCode is the bare label "codigo". Against a header that spells out
// "Codigo da Proposta" it matches the key column as well; that precedence is
// relied upon and kept as is.
func DefaultColumns() Columns {
	return Columns{
		StagingKey:     []string{"cod da proposta", "c d da proposta", "codigo da proposta"},
		Key:            []string{"cod da proposta", "codigo da proposta"},
		Chassis:        []string{"chassi"},
		Store:          []string{"loja"},
		StoreTaxID:     []string{"cnpj loja", "cnpj"},
		Bank:           []string{"banco"},
		FinancedAmount: []string{"valor financiado"},
		Status:         []string{"situacao"},
		ItemType:       []string{"tipo"},
		ItemCode:       []string{"codigo"},
		Supplier:       []string{"fornecedor"},
		Description:    []string{"descricao"},
		Quantity:       []string{"quantidade"},
		UnitValue:      []string{"valor unitario"},
		Courtesy:       []string{"cortesia"},
	}
}

// DefaultReconcile returns the default reconciliation settings.
func DefaultReconcile() Reconcile {
	return Reconcile{
		Delimiter: ";",
		Columns:   DefaultColumns(),
	}
}

// DelimiterRune returns the delimiter as a rune. Call Validate first.
func (r Reconcile) DelimiterRune() rune {
	d, _ := utf8.DecodeRuneInString(r.Delimiter)
	return d
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. A missing file is not
//     an error; the defaults are used instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct with defaults applied.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyMainConfigDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.DefaultEncoding == "" {
		config.DefaultEncoding = "utf-8"
	}
	if config.Store.Backend == "" {
		config.Store.Backend = BackendFile
	}
	if config.Store.Path == "" {
		if config.Store.Backend == BackendSQLite {
			config.Store.Path = "./data/import.db"
		} else {
			config.Store.Path = "./data/import.json"
		}
	}
	if config.Reconcile.Delimiter == "" {
		config.Reconcile.Delimiter = ";"
	}

	applyColumnDefaults(&config.Reconcile.Columns)
}

// applyColumnDefaults fills every empty candidate list with its default.
func applyColumnDefaults(cols *Columns) {
	def := DefaultColumns()

	fill := func(dst *[]string, src []string) {
		if len(*dst) == 0 {
			*dst = src
		}
	}

	fill(&cols.StagingKey, def.StagingKey)
	fill(&cols.Key, def.Key)
	fill(&cols.Chassis, def.Chassis)
	fill(&cols.Store, def.Store)
	fill(&cols.StoreTaxID, def.StoreTaxID)
	fill(&cols.Bank, def.Bank)
	fill(&cols.FinancedAmount, def.FinancedAmount)
	fill(&cols.Status, def.Status)
	fill(&cols.ItemType, def.ItemType)
	fill(&cols.ItemCode, def.ItemCode)
	fill(&cols.Supplier, def.Supplier)
	fill(&cols.Description, def.Description)
	fill(&cols.Quantity, def.Quantity)
	fill(&cols.UnitValue, def.UnitValue)
	fill(&cols.Courtesy, def.Courtesy)
}

// Validate checks the configuration after defaults were applied.
func (c *MainConfig) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	return c.Reconcile.Validate()
}

// Validate checks the reconciliation settings.
func (r Reconcile) Validate() error {
	if utf8.RuneCountInString(r.Delimiter) != 1 {
		return fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalidConfig, r.Delimiter)
	}

	for name, list := range r.Columns.lists() {
		if len(list) == 0 {
			return fmt.Errorf("%w: column candidates for %s are empty", ErrInvalidConfig, name)
		}
		for _, cand := range list {
			if cand == "" {
				return fmt.Errorf("%w: blank column candidate for %s", ErrInvalidConfig, name)
			}
		}
	}

	return nil
}

// lists maps every candidate list to its YAML name.
func (c Columns) lists() map[string][]string {
	return map[string][]string{
		"staging_key":     c.StagingKey,
		"key":             c.Key,
		"chassis":         c.Chassis,
		"store":           c.Store,
		"store_tax_id":    c.StoreTaxID,
		"bank":            c.Bank,
		"financed_amount": c.FinancedAmount,
		"status":          c.Status,
		"item_type":       c.ItemType,
		"item_code":       c.ItemCode,
		"supplier":        c.Supplier,
		"description":     c.Description,
		"quantity":        c.Quantity,
		"unit_value":      c.UnitValue,
		"courtesy":        c.Courtesy,
	}
}
