// =============================================================================
// EFD Reconcile - Reconciliation Pipeline
// =============================================================================
//
// This module orchestrates a full reconciliation run, from the reference
// lists to the merged output and the gap reports.
//
// PIPELINE:
//   1. Load the cargo-note and complementary reference lists
//   2. Close the complementary graph and propagate cargo notes across it
//   3. Invert the cargo-note relation
//   4. Extract and expand the ledger key set from the EFD export
//   5. Report the ledger keys segregated by document model
//   6. Discover the fiscal-document files and prepare the output target
//   7. Match every file in parallel against the ledger key set
//   8. Merge the staging outputs, dropping duplicate records
//   9. Report the matched keys segregated by document model
//  10. Compute the per-model gaps and export the missing keys
//  11. Write the optional XLSX workbook and summary log
//
// CONCURRENCY:
//   The two reference lists load concurrently, each with its own internal
//   line-worker pool; document matching runs on a bounded worker pool. All
//   other stages are sequential. The graphs and the ledger key set are
//   frozen before matching begins.
//
// ERROR HANDLING:
//   Reference loading, ledger extraction, input discovery, merging and the
//   missing-key export are fatal; a failing document file only loses that
//   file, and the optional artifacts only log a warning.
//
// =============================================================================

package reconciler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sped-tools/efd-reconcile/internal/config"
	"github.com/sped-tools/efd-reconcile/internal/fiscal"
	"github.com/sped-tools/efd-reconcile/internal/keygraph"
	"github.com/sped-tools/efd-reconcile/internal/ledger"
	"github.com/sped-tools/efd-reconcile/internal/matcher"
	"github.com/sped-tools/efd-reconcile/internal/report"
	"github.com/sped-tools/efd-reconcile/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Result represents the outcome of a reconciliation run.
type Result struct {
	// OutputFile is the merged output path.
	OutputFile string

	// ExportFiles are the chunked missing-key files, in creation order.
	// Empty when every ledger key was found.
	ExportFiles []string

	// XLSXFile is the workbook path, when the report is enabled and could
	// be written.
	XLSXFile string

	// SummaryFile is the summary log path, when enabled.
	SummaryFile string

	// LedgerKeys is the expanded ledger key set.
	LedgerKeys fiscal.KeySet

	// MatchedKeys is the union of keys found across all document files.
	MatchedKeys fiscal.KeySet

	// Gap is the per-model reconciliation outcome.
	Gap *report.Gap

	// Files holds the per-file matching outcomes in stable order.
	Files []matcher.FileResult

	// Stats contains the run statistics.
	Stats Stats
}

// Stats contains statistics about a reconciliation run.
type Stats struct {
	// RunID identifies this run in logs and the summary file.
	RunID string

	// LedgerRows is the number of ledger rows read.
	LedgerRows int

	// LedgerKeys is the size of the expanded ledger key set.
	LedgerKeys int

	// FilesDiscovered and FilesFailed count the fiscal-document files.
	FilesDiscovered int
	FilesFailed     int

	// RowsScanned is the total records scanned across all document files.
	RowsScanned int64

	// MatchedRows is the number of records written to the staging outputs.
	MatchedRows int

	// MatchedKeys and MissingKeys are the global outcome counts.
	MatchedKeys int
	MissingKeys int

	// LinesWritten and DuplicateLines summarise the merge.
	LinesWritten   int
	DuplicateLines int

	// TotalValue is the summed value column over matched rows, when value
	// tracking is enabled; ModelValues splits it by model code.
	TotalValue  decimal.Decimal
	ModelValues map[string]decimal.Decimal

	// Duration is the wall time of the whole run.
	Duration time.Duration
}

// =============================================================================
// RECONCILER STRUCTURE
// =============================================================================

// Reconciler executes the reconciliation pipeline for one configuration.
type Reconciler struct {
	// cfg is the validated application configuration.
	cfg *config.Config

	// logger receives the operational messages.
	logger Logger

	// out receives the audit-facing report blocks. Defaults to stdout.
	out io.Writer

	// showLedgerKeys and showDocKeys list the respective key sets after
	// their segregated reports.
	showLedgerKeys bool
	showDocKeys    bool
}

// Logger is an interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// New creates a new Reconciler instance.
//
// PARAMETERS:
//   - cfg: The validated application configuration.
//
// RETURNS:
//   - A new Reconciler writing reports to stdout with the default logger.
func New(cfg *config.Config) *Reconciler {
	return &Reconciler{
		cfg:    cfg,
		logger: &defaultLogger{},
		out:    os.Stdout,
	}
}

// SetLogger replaces the operational logger.
func (r *Reconciler) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetOutput redirects the audit-facing report output.
func (r *Reconciler) SetOutput(w io.Writer) {
	if w != nil {
		r.out = w
	}
}

// ShowKeys enables the key listings after the segregated ledger and
// document reports.
func (r *Reconciler) ShowKeys(ledgerKeys, docKeys bool) {
	r.showLedgerKeys = ledgerKeys
	r.showDocKeys = docKeys
}

// =============================================================================
// MAIN PIPELINE
// =============================================================================

// Run executes the reconciliation pipeline.
//
// RETURNS:
//   - The run result. Per-file matching failures are recorded in it, not
//     returned as an error.
//   - An error when a fatal stage fails; the result is nil in that case.
func (r *Reconciler) Run() (*Result, error) {
	start := time.Now()

	if err := r.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	result := &Result{
		Stats: Stats{
			RunID:       uuid.New().String(),
			TotalValue:  decimal.Zero,
			ModelValues: make(map[string]decimal.Decimal),
		},
	}

	r.logger.Info("Starting reconciliation run %s", result.Stats.RunID)

	// =========================================================================
	// STEP 1: LOAD REFERENCE LISTS
	// =========================================================================
	// The two lists are independent, so they load concurrently. Each load
	// runs its own line-worker pool internally.

	var cargo, complementary fiscal.KeyMap
	var g errgroup.Group
	g.Go(func() error {
		var err error
		cargo, err = keygraph.LoadCargoNotes(r.cfg.CargoNotesFile, r.cfg.MaxConcurrency)
		return err
	})
	g.Go(func() error {
		var err error
		complementary, err = keygraph.LoadComplementary(r.cfg.ComplementaryFile, r.cfg.MaxConcurrency)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load reference lists: %w", err)
	}

	r.logger.Info("Found %s CT-es carrying %s NF-e keys in %q",
		report.FormatCount(int64(len(cargo))),
		report.FormatCount(int64(cargo.TotalMembers())),
		r.cfg.CargoNotesFile)
	r.logger.Info("Found %s complementary CT-e relations in %q",
		report.FormatCount(int64(len(complementary))),
		r.cfg.ComplementaryFile)

	// =========================================================================
	// STEP 2: CLOSE AND PROPAGATE THE GRAPHS
	// =========================================================================
	// After this step the graphs are read-only for the rest of the run.

	complementary = keygraph.CloseComplementary(complementary)
	keygraph.PropagateCargoNotes(cargo, complementary)
	carriers := keygraph.InvertCargoNotes(cargo)

	r.logger.Debug("Complementary graph closed over %d keys; cargo notes cover %d CT-es after propagation",
		len(complementary), len(cargo))

	refs := ledger.References{
		CargoNotes:    cargo,
		Complementary: complementary,
		Carriers:      carriers,
	}

	// =========================================================================
	// STEP 3: EXTRACT THE LEDGER KEY SET
	// =========================================================================

	extraction, err := ledger.Extract(r.cfg.LedgerFile, r.cfg, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to extract ledger keys: %w", err)
	}

	result.LedgerKeys = extraction.Keys
	result.Stats.LedgerRows = extraction.RowsScanned
	result.Stats.LedgerKeys = len(extraction.Keys)

	r.logger.Debug("Ledger header: %s", strings.Join(extraction.Headers, " | "))
	r.logger.Info("Ledger %q: %s rows read, %s keys found, %s after expansion",
		r.cfg.LedgerFile,
		report.FormatCount(int64(extraction.RowsScanned)),
		report.FormatCount(int64(extraction.KeysFound)),
		report.FormatCount(int64(len(extraction.Keys))))

	r.writeAuditGuidance()
	report.WriteSegregated(r.out, "EFD Contribuições", extraction.Keys, r.showLedgerKeys)

	// =========================================================================
	// STEP 4: DISCOVER INPUTS AND PREPARE THE OUTPUT TARGET
	// =========================================================================

	pattern, err := regexp.Compile(r.cfg.InputPattern)
	if err != nil {
		return nil, fmt.Errorf("input pattern does not compile: %w", err)
	}
	inputs, err := utils.DiscoverInputFiles(r.cfg.InputDir, pattern)
	if err != nil {
		return nil, err
	}
	result.Stats.FilesDiscovered = len(inputs)
	r.logger.Info("Discovered %d fiscal-document files in %q", len(inputs), r.cfg.InputDir)

	if removed, err := utils.RemoveStaleStaging(r.cfg.InputDir); err != nil {
		r.logger.Warn("Failed to remove stale staging files: %v", err)
	} else if removed > 0 {
		r.logger.Info("Removed %d stale staging files left by an interrupted run", removed)
	}

	target := filepath.Join(r.cfg.InputDir, utils.ResolveOutputName(r.cfg.OutputName))
	result.OutputFile = target
	r.logger.Debug("Merged output target: %q", target)

	// =========================================================================
	// STEP 5: MATCH THE DOCUMENT FILES
	// =========================================================================

	matchResult := matcher.Run(inputs, target, extraction.Keys, r.cfg)

	result.Files = matchResult.Files
	result.MatchedKeys = matchResult.MatchedKeys
	result.Stats.FilesFailed = matchResult.Failures
	result.Stats.RowsScanned = matchResult.RowsScanned
	result.Stats.MatchedRows = matchResult.MatchedRows
	result.Stats.MatchedKeys = len(matchResult.MatchedKeys)
	result.Stats.TotalValue = matchResult.TotalValue
	result.Stats.ModelValues = matchResult.ModelValues

	for _, file := range matchResult.Files {
		if file.Err != nil {
			r.logger.Warn("File %q failed: %v", file.Path, file.Err)
			continue
		}
		r.logger.Debug("File %q: %d rows, %d matched, %d keys in %s",
			file.Path, file.Rows, file.MatchedRows, len(file.Matched),
			file.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(r.out, " Total records scanned in the fiscal documents: %s\n",
		report.FormatCount(matchResult.RowsScanned))

	// =========================================================================
	// STEP 6: MERGE THE STAGING OUTPUTS
	// =========================================================================

	fmt.Fprintf(r.out, "\n Merging staging files into <%s>...\n\n", target)
	width := 0
	for _, file := range matchResult.Files {
		if file.Err == nil {
			width = max(width, len(file.Path))
		}
	}
	for _, file := range matchResult.Files {
		if file.Err == nil {
			fmt.Fprintf(r.out, " %-*s -> %s\n", width, file.Path, file.StagingPath)
		}
	}
	fmt.Fprintln(r.out)

	mergeStats, err := matcher.MergeStaging(target, matchResult.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to merge staging outputs: %w", err)
	}
	result.Stats.LinesWritten = mergeStats.LinesWritten
	result.Stats.DuplicateLines = mergeStats.Duplicates

	r.logger.Info("Merged %d staging files into %q: %s lines written, %s duplicates dropped",
		mergeStats.FilesMerged, target,
		report.FormatCount(int64(mergeStats.LinesWritten)),
		report.FormatCount(int64(mergeStats.Duplicates)))

	report.WriteSegregated(r.out, "Documentos Fiscais", matchResult.MatchedKeys, r.showDocKeys)

	// =========================================================================
	// STEP 7: GAP ANALYSIS AND MISSING-KEY EXPORT
	// =========================================================================

	gap := report.Analyze(extraction.Keys, matchResult.MatchedKeys)
	result.Gap = gap
	result.Stats.MissingKeys = gap.MissingTotal()

	fmt.Fprintln(r.out, " Keys listed in the EFD ledger and searched in the fiscal documents:")
	gap.WriteBreakdown(r.out)
	fmt.Fprintln(r.out)
	gap.WriteMissingNotice(r.out, false)

	if gap.MissingTotal() > 0 {
		exports, err := report.ExportMissing(gap, target, r.cfg.ExportChunkSize)
		if err != nil {
			return nil, fmt.Errorf("failed to export missing keys: %w", err)
		}
		result.ExportFiles = exports
		for _, path := range exports {
			fmt.Fprintf(r.out, " ---> New missing-key file: <%s>\n", path)
		}
	}

	// =========================================================================
	// STEP 8: OPTIONAL ARTIFACTS
	// =========================================================================
	// The run outcome is already on disk; failures here only cost the
	// artifact, so they log a warning instead of failing the run.

	if r.cfg.XLSXReport {
		base := strings.TrimSuffix(target, filepath.Ext(target))
		xlsxPath := strings.ReplaceAll(r.cfg.XLSXName, "{base}", base)

		stats := report.WorkbookStats{
			LedgerFile:     r.cfg.LedgerFile,
			LedgerKeys:     len(extraction.Keys),
			FilesProcessed: len(inputs) - matchResult.Failures,
			FilesFailed:    matchResult.Failures,
			RowsScanned:    matchResult.RowsScanned,
			MatchedKeys:    len(matchResult.MatchedKeys),
			MissingKeys:    gap.MissingTotal(),
			TotalValue:     matchResult.TotalValue,
			TrackValues:    r.cfg.TrackValues,
			ModelValues:    matchResult.ModelValues,
		}
		if err := report.WriteWorkbook(xlsxPath, gap, stats); err != nil {
			r.logger.Warn("Failed to write XLSX report: %v", err)
		} else {
			result.XLSXFile = xlsxPath
			r.logger.Info("Wrote XLSX report to %q", xlsxPath)
		}
	}

	if r.cfg.SummaryLog {
		if path, err := utils.WriteSummaryLog(r.buildSummary(start, target, extraction, matchResult, gap), r.cfg.InputDir); err != nil {
			r.logger.Warn("Failed to write summary log: %v", err)
		} else {
			result.SummaryFile = path
			r.logger.Info("Wrote summary log to %q", path)
		}
	}

	result.Stats.Duration = time.Since(start)
	r.logger.Info("Reconciliation finished in %s", result.Stats.Duration.Round(time.Millisecond))

	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// writeAuditGuidance walks the auditor through the key expansion, in the
// order the relations were applied.
func (r *Reconciler) writeAuditGuidance() {
	fmt.Fprintf(r.out, "\nSearching information from ledger file: %q\n\n", r.cfg.LedgerFile)
	fmt.Fprintln(r.out, " 1.1 The 44-digit NF-e/CT-e keys in the EFD Contribuições ledger were collected.")

	fmt.Fprintln(r.out, "\n In the NF-e/CT-e fiscal documents there are two key columns:")
	fmt.Fprintf(r.out, "  Column 1: '%s'\n", r.cfg.DocColumns[config.DocumentKeyColumn])
	fmt.Fprintf(r.out, "  Column 2: '%s'\n", r.cfg.DocColumns[config.AccessKeyColumn])

	fmt.Fprintln(r.out, "\n 1.2 Related keys were added transitively:")
	fmt.Fprintln(r.out, "  - Complementary CT-e keys (subcontracted transport).")
	fmt.Fprintln(r.out, "  - NF-e keys tied to CT-es carrying multiple documents.")
	fmt.Fprintln(r.out, "  - These relations come from CT-e XML analysis or the reference lists.")

	fmt.Fprintln(r.out, "\n Keys join the search filter when:")
	fmt.Fprintln(r.out, "  a) The NF-e appears in column 1 of the fiscal documents.")
	fmt.Fprintln(r.out, "  b) The NF-e appears in column 2 (CT-e carrying a single NF-e).")
	fmt.Fprintln(r.out, "  c) The NF-e is tied to a CT-e (multiple documents, via XML).")
	fmt.Fprintln(r.out, "  d) The CT-e has a complementary CT-e (subcontracting).")

	fmt.Fprintln(r.out, "\n 2. Scanning the fiscal-document files for ledger keys...")
	fmt.Fprintln(r.out)
}

// buildSummary assembles the run summary for the plain-text log.
func (r *Reconciler) buildSummary(start time.Time, target string, extraction *ledger.Result, matchResult *matcher.Result, gap *report.Gap) utils.RunSummary {
	summary := utils.RunSummary{
		StartTime:   start,
		EndTime:     time.Now(),
		LedgerFile:  r.cfg.LedgerFile,
		LedgerKeys:  len(extraction.Keys),
		TotalFiles:  len(matchResult.Files),
		FailedFiles: matchResult.Failures,
		RowsScanned: matchResult.RowsScanned,
		MatchedKeys: len(matchResult.MatchedKeys),
		MissingKeys: gap.MissingTotal(),
		OutputFile:  target,
	}
	if size, err := utils.GetFileSize(target); err == nil {
		summary.OutputBytes = size
	}

	for _, file := range matchResult.Files {
		if file.Err != nil {
			summary.Failures = append(summary.Failures, utils.FailureSummary{
				InputFile:    file.Path,
				ErrorMessage: file.Err.Error(),
			})
			continue
		}
		summary.Files = append(summary.Files, utils.FileSummary{
			InputFile:   file.Path,
			Rows:        file.Rows,
			MatchedKeys: len(file.Matched),
			ProcessTime: file.Duration,
		})
	}

	return summary
}

// =============================================================================
// DEFAULT LOGGER
// =============================================================================

// defaultLogger is a simple logger that prints to stdout.
type defaultLogger struct{}

func (l *defaultLogger) Debug(msg string, args ...interface{}) {
	fmt.Printf("[DEBUG] "+msg+"\n", args...)
}

func (l *defaultLogger) Info(msg string, args ...interface{}) {
	fmt.Printf("[INFO] "+msg+"\n", args...)
}

func (l *defaultLogger) Warn(msg string, args ...interface{}) {
	fmt.Printf("[WARN] "+msg+"\n", args...)
}

func (l *defaultLogger) Error(msg string, args ...interface{}) {
	fmt.Printf("[ERROR] "+msg+"\n", args...)
}
