// =============================================================================
// EFD Reconcile - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the application
// configuration. A single YAML file (config.yaml by default) drives the whole
// run; every option has a default, so the file is optional and the binary
// works out of the box against the standard ReceitaNet-BX export layout.
//
// The column tables deserve a note: the EFD ledger and the fiscal-document
// exports are validated against configured logical-name -> header-literal
// mappings. The defaults mirror the full export schema; deployments whose
// exports carry fewer columns override the tables to relax validation, and
// deployments with renamed headers override single literals. None of that
// requires a rebuild.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"regexp"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Accepted values for the encoding option.
const (
	EncodingUTF8    = "utf8"
	EncodingLatin1  = "latin1"
	EncodingWin1252 = "windows-1252"
)

// Logical column names the engine resolves at runtime. They must be present
// in the corresponding column table.
const (
	LedgerKeyColumn   = "chave_documento"
	DocumentKeyColumn = "chave44_digitos"
	AccessKeyColumn   = "chave_de_acesso"
	ValueColumn       = "valor_total"
)

// DefaultInputPattern selects the fiscal-document CSV exports produced by
// ReceitaNet-BX, by file name.
const DefaultInputPattern = `(?i)^(\d{4}.*CTe.*Destinatario|\d{4}.*CTe.*Remetente|\d{4}.*NFe.*Destinatario|\d{4}.*NFe.*Emitente|DadosAdicionais.*CTe|DadosAdicionais.*NFe).*\.csv$`

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// FILE LOCATIONS
	// =========================================================================

	// LedgerFile is the path to the EFD Contribuições CSV export.
	// Usually supplied per run via the --efd-path flag instead.
	LedgerFile string `yaml:"ledger_file"`

	// InputDir is the directory scanned for fiscal-document CSV files.
	// Default: "." (the working directory, where the exports are downloaded)
	InputDir string `yaml:"input_dir"`

	// InputPattern is the regular expression a file name must match to be
	// picked up as a fiscal-document input.
	// Default: the ReceitaNet-BX export naming convention (DefaultInputPattern)
	InputPattern string `yaml:"input_pattern"`

	// CargoNotesFile is the line-oriented reference list relating each CT-e
	// to the NF-e keys it carries.
	// Default: "cte_nfes.txt"
	CargoNotesFile string `yaml:"cargo_notes_file"`

	// ComplementaryFile is the line-oriented reference list of complementary
	// CT-e pairs (subcontracted transport).
	// Default: "transporte_subcontratado-chaves_complementares_dos_CTes.txt"
	ComplementaryFile string `yaml:"complementary_file"`

	// OutputName is the name of the merged output file. Placeholders:
	//   {random}    - zero-padded 6-digit random number
	//   {uuid}      - a random UUID
	//   {timestamp} - current time as YYYYMMDD-HHMMSS
	// The ZZZ prefix in the default keeps the output sorted after the inputs
	// so a re-run never picks it up as an input.
	// Default: "ZZZ-{random}-Info da Receita sobre o Contribuinte.csv"
	OutputName string `yaml:"output_name"`

	// =========================================================================
	// PARSING SETTINGS
	// =========================================================================

	// Encoding is the character encoding of the ledger and document files.
	// Valid values: "utf8", "latin1", "windows-1252"
	// Default: "utf8"
	Encoding string `yaml:"encoding"`

	// LedgerDelimiter separates fields in the EFD ledger export.
	// Default: "|"
	LedgerDelimiter string `yaml:"ledger_delimiter"`

	// DocumentDelimiter separates fields in the fiscal-document exports.
	// Default: ";"
	DocumentDelimiter string `yaml:"document_delimiter"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency caps the number of fiscal-document files processed in
	// parallel. Zero means one worker per CPU.
	// Default: 0
	MaxConcurrency int `yaml:"max_concurrency"`

	// ExportChunkSize is the maximum number of keys written to a single
	// missing-key export file. The downstream ReceitaNet-BX batch screen
	// rejects larger lists. Must be positive.
	// Default: 900
	ExportChunkSize int `yaml:"export_chunk_size"`

	// TrackValues enables per-model totals of the document value column
	// over matched rows.
	// Default: false
	TrackValues bool `yaml:"track_values"`

	// =========================================================================
	// REPORT SETTINGS
	// =========================================================================

	// XLSXReport enables the XLSX reconciliation workbook.
	// Default: false
	XLSXReport bool `yaml:"xlsx_report"`

	// XLSXName is the workbook file name. The {base} placeholder expands to
	// the merged output name without its extension.
	// Default: "{base}-relatorio.xlsx"
	XLSXName string `yaml:"xlsx_name"`

	// SummaryLog enables a plain-text run summary file next to the output.
	// Default: false
	SummaryLog bool `yaml:"summary_log"`

	// LogLevel controls console verbosity.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// COLUMN MAPPINGS
	// =========================================================================

	// EFDColumns maps logical names to the literal header text expected in
	// the EFD ledger export. Every literal listed here must be present in
	// the ledger header or the run fails. Must contain "chave_documento".
	// Default: the full EFD export schema (DefaultEFDColumns)
	EFDColumns map[string]string `yaml:"efd_columns"`

	// DocColumns maps logical names to the literal header text expected in
	// every fiscal-document export. Must contain "chave44_digitos" and
	// "chave_de_acesso".
	// Default: the full fiscal-document export schema (DefaultDocColumns)
	DocColumns map[string]string `yaml:"doc_columns"`
}

// =============================================================================
// LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every option set to its default.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads, parses and validates a configuration file.
//
// PARAMETERS:
//   - path: The path to the YAML configuration file.
//
// RETURNS:
//   - A pointer to the Config struct with defaults applied.
//   - An error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset option.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "."
	}
	if cfg.InputPattern == "" {
		cfg.InputPattern = DefaultInputPattern
	}
	if cfg.CargoNotesFile == "" {
		cfg.CargoNotesFile = "cte_nfes.txt"
	}
	if cfg.ComplementaryFile == "" {
		cfg.ComplementaryFile = "transporte_subcontratado-chaves_complementares_dos_CTes.txt"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "ZZZ-{random}-Info da Receita sobre o Contribuinte.csv"
	}
	if cfg.Encoding == "" {
		cfg.Encoding = EncodingUTF8
	}
	if cfg.LedgerDelimiter == "" {
		cfg.LedgerDelimiter = "|"
	}
	if cfg.DocumentDelimiter == "" {
		cfg.DocumentDelimiter = ";"
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = runtime.NumCPU()
	}
	if cfg.ExportChunkSize == 0 {
		cfg.ExportChunkSize = 900
	}
	if cfg.XLSXName == "" {
		cfg.XLSXName = "{base}-relatorio.xlsx"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.EFDColumns == nil {
		cfg.EFDColumns = DefaultEFDColumns()
	}
	if cfg.DocColumns == nil {
		cfg.DocColumns = DefaultDocColumns()
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for values the engine cannot work with.
func (cfg *Config) Validate() error {
	switch cfg.Encoding {
	case EncodingUTF8, EncodingLatin1, EncodingWin1252:
	default:
		return fmt.Errorf("unknown encoding %q (valid: %s, %s, %s)",
			cfg.Encoding, EncodingUTF8, EncodingLatin1, EncodingWin1252)
	}

	if err := validateDelimiter("ledger_delimiter", cfg.LedgerDelimiter); err != nil {
		return err
	}
	if err := validateDelimiter("document_delimiter", cfg.DocumentDelimiter); err != nil {
		return err
	}

	if cfg.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", cfg.MaxConcurrency)
	}

	// A zero or negative chunk size would either loop forever or silently
	// produce no export files, so it is rejected outright.
	if cfg.ExportChunkSize <= 0 {
		return fmt.Errorf("export_chunk_size must be positive, got %d", cfg.ExportChunkSize)
	}

	if _, err := regexp.Compile(cfg.InputPattern); err != nil {
		return fmt.Errorf("input_pattern does not compile: %w", err)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q (valid: debug, info, warn, error)", cfg.LogLevel)
	}

	if _, ok := cfg.EFDColumns[LedgerKeyColumn]; !ok {
		return fmt.Errorf("efd_columns must define %q", LedgerKeyColumn)
	}
	if _, ok := cfg.DocColumns[DocumentKeyColumn]; !ok {
		return fmt.Errorf("doc_columns must define %q", DocumentKeyColumn)
	}
	if _, ok := cfg.DocColumns[AccessKeyColumn]; !ok {
		return fmt.Errorf("doc_columns must define %q", AccessKeyColumn)
	}
	if cfg.TrackValues {
		if _, ok := cfg.DocColumns[ValueColumn]; !ok {
			return fmt.Errorf("track_values requires doc_columns to define %q", ValueColumn)
		}
	}

	return nil
}

func validateDelimiter(name, value string) error {
	runes := []rune(value)
	if len(runes) != 1 {
		return fmt.Errorf("%s must be a single character, got %q", name, value)
	}
	return nil
}

// LedgerComma returns the ledger delimiter as a rune for the CSV reader.
func (cfg *Config) LedgerComma() rune {
	return []rune(cfg.LedgerDelimiter)[0]
}

// DocumentComma returns the document delimiter as a rune for the CSV reader.
func (cfg *Config) DocumentComma() rune {
	return []rune(cfg.DocumentDelimiter)[0]
}
