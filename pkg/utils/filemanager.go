// =============================================================================
// EFD Reconcile - File Manager Utility
// =============================================================================
//
// This module provides the file plumbing around a reconciliation run:
//   - Discovery of fiscal-document CSV exports by name pattern
//   - Output and staging file naming
//   - Cleanup of previous outputs and stale staging files
//   - Run summary log generation
//
// NAMING STRATEGY:
//   - The merged output name is resolved from a format with placeholders
//     ({random}, {uuid}, {timestamp}); the default leads with "ZZZ-" so the
//     output sorts after the input exports and never matches the discovery
//     pattern.
//   - Each staging file is the output path plus ".tmp." plus a short stable
//     fingerprint of its input path, so parallel workers never collide and
//     a crashed run's leftovers are recognizable.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// NoInputFilesError reports that discovery found nothing to reconcile.
type NoInputFilesError struct {
	// Dir is the directory that was scanned.
	Dir string

	// Pattern is the file-name pattern that nothing matched.
	Pattern string
}

func (e *NoInputFilesError) Error() string {
	return fmt.Sprintf("no fiscal-document CSV files matching %q found in %q", e.Pattern, e.Dir)
}

// DiscoverInputFiles scans a directory for fiscal-document exports.
//
// PARAMETERS:
//   - dir: The directory to scan (not recursive).
//   - pattern: The compiled file-name pattern.
//
// RETURNS:
//   - The matching paths in lexicographic order. This ordering is fixed here
//     and reused by the matcher and the merge, which both depend on a stable
//     file order.
//   - A NoInputFilesError when nothing matches, or an error if the directory
//     cannot be read.
func DiscoverInputFiles(dir string, pattern *regexp.Regexp) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory %q: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pattern.MatchString(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	if len(files) == 0 {
		return nil, &NoInputFilesError{Dir: dir, Pattern: pattern.String()}
	}

	sort.Strings(files)
	return files, nil
}

// =============================================================================
// OUTPUT AND STAGING NAMING
// =============================================================================

// ResolveOutputName expands the placeholders of an output-name format.
//
// PARAMETERS:
//   - format: The name format. Placeholders:
//     {random}    - A zero-padded 6-digit random number
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//
// RETURNS:
//   - The resolved file name.
func ResolveOutputName(format string) string {
	now := time.Now()

	replacements := map[string]string{
		"{random}":    fmt.Sprintf("%06d", rand.IntN(1_000_000)),
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// StagingPath derives the staging-file path for one input file.
//
// PARAMETERS:
//   - target: The merged output path.
//   - input: The input file the staging output belongs to.
//
// RETURNS:
//   - target + ".tmp." + a stable fingerprint of the input path. The same
//     input always stages to the same path within a run.
func StagingPath(target, input string) string {
	h := fnv.New64a()
	h.Write([]byte(input))
	return target + ".tmp." + strconv.FormatUint(h.Sum64(), 16)
}

// =============================================================================
// CLEANUP
// =============================================================================

// stagingLeftover matches the ".tmp.<fnv64a hex>" suffix StagingPath
// appends to the merged output name.
var stagingLeftover = regexp.MustCompile(`\.tmp\.[0-9a-f]{1,16}$`)

// RemoveStaleStaging deletes staging leftovers of interrupted runs. The
// merged output name embeds a random component, so a new run can never
// match an old run's staging files by name; the whole directory is scanned
// for the staging suffix instead.
//
// PARAMETERS:
//   - dir: The directory staging outputs are written to (the merged
//     output's directory).
//
// RETURNS:
//   - The number of files removed.
//   - An error if the directory cannot be read or a file cannot be removed.
func RemoveStaleStaging(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan for stale staging files: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !stagingLeftover.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove stale staging file %q: %w", path, err)
		}
		removed++
	}

	return removed, nil
}

// placeholderPatterns maps quoted placeholders to the text they may have
// expanded to in an earlier run.
var placeholderPatterns = map[string]string{
	regexp.QuoteMeta("{random}"):    `\d{6}`,
	regexp.QuoteMeta("{uuid}"):      `[0-9a-fA-F-]{36}`,
	regexp.QuoteMeta("{timestamp}"): `\d{8}_\d{6}`,
	regexp.QuoteMeta("{date}"):      `\d{8}`,
	regexp.QuoteMeta("{time}"):      `\d{6}`,
}

// RemovePreviousOutputs deletes the outputs of earlier runs: the merged CSV,
// the missing-key exports derived from its name, and the XLSX report.
//
// PARAMETERS:
//   - dir: The directory holding the outputs.
//   - format: The configured output-name format; placeholders are widened to
//     match whatever values earlier runs resolved them to.
//
// RETURNS:
//   - The number of files removed.
//   - An error if the format cannot be turned into a pattern or a file
//     cannot be removed.
func RemovePreviousOutputs(dir, format string) (int, error) {
	base := strings.TrimSuffix(format, filepath.Ext(format))

	pattern := regexp.QuoteMeta(base)
	for placeholder, widened := range placeholderPatterns {
		pattern = strings.ReplaceAll(pattern, placeholder, widened)
	}

	// Anything the base name fathered: the .csv itself, "<name>.csv-<model>
	// -NNNNNN.txt" exports, "<base>-relatorio.xlsx".
	matcher, err := regexp.Compile(`^` + pattern + `.*\.(csv|txt|xlsx)$`)
	if err != nil {
		return 0, fmt.Errorf("failed to build cleanup pattern from %q: %w", format, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan output directory %q: %w", dir, err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !matcher.MatchString(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove previous output %q: %w", path, err)
		}
		removed++
	}

	return removed, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a reconciliation run.
type RunSummary struct {
	StartTime   time.Time
	EndTime     time.Time
	LedgerFile  string
	LedgerKeys  int
	TotalFiles  int
	FailedFiles int
	RowsScanned int64
	MatchedKeys int
	MissingKeys int
	OutputFile  string
	OutputBytes int64
	Files       []FileSummary
	Failures    []FailureSummary
}

// FileSummary describes one successfully processed fiscal-document file.
type FileSummary struct {
	InputFile   string
	Rows        int
	MatchedKeys int
	ProcessTime time.Duration
}

// FailureSummary describes one file that could not be processed.
type FailureSummary struct {
	InputFile    string
	ErrorMessage string
}

// WriteSummaryLog writes a run summary to a timestamped log file.
//
// PARAMETERS:
//   - summary: The run summary.
//   - outputDir: The directory to write the log file in.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("reconcile_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	header := fmt.Sprintf("EFD Reconcile - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time: %s\n"+
		"  End Time:   %s\n"+
		"  Duration:   %s\n"+
		"  Ledger:     %s\n\n"+
		"Statistics:\n"+
		"  Ledger Keys (expanded): %d\n"+
		"  Document Files:         %d\n"+
		"  Failed Files:           %d\n"+
		"  Records Scanned:        %d\n"+
		"  Matched Keys:           %d\n"+
		"  Missing Keys:           %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.LedgerFile,
		summary.LedgerKeys,
		summary.TotalFiles,
		summary.FailedFiles,
		summary.RowsScanned,
		summary.MatchedKeys,
		summary.MissingKeys)
	writer.WriteString(header)

	if summary.OutputFile != "" {
		writer.WriteString(fmt.Sprintf("Output:\n  File: %s\n  Size: %d bytes\n\n",
			summary.OutputFile, summary.OutputBytes))
	}

	if len(summary.Files) > 0 {
		writer.WriteString("Processed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, fs := range summary.Files {
			writer.WriteString(fmt.Sprintf("  Input:        %s\n", fs.InputFile))
			writer.WriteString(fmt.Sprintf("  Rows:         %d\n", fs.Rows))
			writer.WriteString(fmt.Sprintf("  Matched Keys: %d\n", fs.MatchedKeys))
			writer.WriteString(fmt.Sprintf("  Process Time: %s\n\n", fs.ProcessTime.String()))
		}
	}

	if len(summary.Failures) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.Failures {
			writer.WriteString(fmt.Sprintf("  File:  %s\n", ff.InputFile))
			writer.WriteString(fmt.Sprintf("  Error: %s\n\n", ff.ErrorMessage))
		}
	}

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

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
