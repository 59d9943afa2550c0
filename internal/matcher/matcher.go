// =============================================================================
// EFD Reconcile - Parallel Document Matcher
// =============================================================================
//
// This module runs the matching phase: every fiscal-document CSV export is
// streamed against the read-only ledger key set, and each matching record
// is written, field-normalized, to a per-file staging output that the merge
// phase later concatenates.
//
// CONCURRENCY:
//   One goroutine per file, throttled by a semaphore channel, results
//   collected over a buffered channel. Workers share only the ledger key
//   set (never written during matching) and one atomic counter of scanned
//   records. Each staging output is owned by exactly one worker.
//
// ERROR HANDLING:
//   A failing file never aborts its siblings. Its partial staging output is
//   removed, its partial scan count is rolled back, and it contributes an
//   empty result; the caller decides whether any failure fails the run.
//
// =============================================================================

package matcher

import (
	"bufio"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sped-tools/efd-reconcile/internal/config"
	"github.com/sped-tools/efd-reconcile/internal/csvparser"
	"github.com/sped-tools/efd-reconcile/internal/fiscal"
	"github.com/sped-tools/efd-reconcile/internal/validation"
	"github.com/sped-tools/efd-reconcile/pkg/utils"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// FileResult carries one fiscal-document file's outcome.
type FileResult struct {
	// Path is the input file.
	Path string

	// StagingPath is where the matched rows were written. Empty when the
	// file failed.
	StagingPath string

	// Headers is the validated header row.
	Headers []string

	// Matched holds the distinct ledger keys found in this file.
	Matched fiscal.KeySet

	// Rows counts the data rows scanned.
	Rows int

	// MatchedRows counts the rows written to the staging output.
	MatchedRows int

	// Value is the sum of the value column over matched rows, when value
	// tracking is enabled.
	Value decimal.Decimal

	// ModelValues splits Value by the matched key's document-model code.
	ModelValues map[string]decimal.Decimal

	// Duration is the wall time spent on this file.
	Duration time.Duration

	// Err is the failure that stopped this file, if any.
	Err error
}

// Result aggregates the matching phase across all files.
type Result struct {
	// Files holds the per-file outcomes in stable (lexicographic) order.
	Files []FileResult

	// MatchedKeys is the union of all per-file matched sets.
	MatchedKeys fiscal.KeySet

	// RowsScanned is the total records scanned, counted atomically across
	// workers. Failed files contribute nothing.
	RowsScanned int64

	// MatchedRows is the total rows written to staging outputs.
	MatchedRows int

	// TotalValue is the summed value column over all matched rows.
	TotalValue decimal.Decimal

	// ModelValues splits TotalValue by document-model code.
	ModelValues map[string]decimal.Decimal

	// Failures counts the files that could not be processed.
	Failures int
}

// =============================================================================
// MATCHING
// =============================================================================

// Run matches every fiscal-document file against the ledger key set.
//
// PARAMETERS:
//   - paths: The input files. They are processed in lexicographic order of
//     path as far as results are concerned, whatever order the workers
//     finish in.
//   - target: The merged output path; staging paths are derived from it.
//   - keys: The expanded ledger key set. Read-only during matching.
//   - cfg: Supplies the delimiter, encoding, column table, concurrency
//     limit and value tracking.
//
// RETURNS:
//   - The aggregate result. Per-file failures are recorded in it, not
//     returned as an error; treating them as fatal is the caller's policy.
func Run(paths []string, target string, keys fiscal.KeySet, cfg *config.Config) *Result {
	ordered := slices.Sorted(slices.Values(paths))

	workers := cfg.MaxConcurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var scanned atomic.Int64
	results := make(chan FileResult, len(ordered))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, path := range ordered {
		wg.Add(1)
		go func(path string, writeHeader bool) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results <- matchFile(path, utils.StagingPath(target, path), writeHeader, keys, cfg, &scanned)
		}(path, i == 0)
	}

	wg.Wait()
	close(results)

	byPath := make(map[string]FileResult, len(ordered))
	for fileResult := range results {
		byPath[fileResult.Path] = fileResult
	}

	aggregate := &Result{
		MatchedKeys: fiscal.NewKeySet(),
		TotalValue:  decimal.Zero,
		ModelValues: make(map[string]decimal.Decimal),
	}
	for _, path := range ordered {
		fileResult := byPath[path]
		aggregate.Files = append(aggregate.Files, fileResult)

		if fileResult.Err != nil {
			aggregate.Failures++
			continue
		}
		aggregate.MatchedKeys.Merge(fileResult.Matched)
		aggregate.MatchedRows += fileResult.MatchedRows
		aggregate.TotalValue = aggregate.TotalValue.Add(fileResult.Value)
		for code, value := range fileResult.ModelValues {
			aggregate.ModelValues[code] = aggregate.ModelValues[code].Add(value)
		}
	}
	aggregate.RowsScanned = scanned.Load()

	return aggregate
}

// matchFile streams one file and writes its matching rows to staging.
func matchFile(path, staging string, writeHeader bool, keys fiscal.KeySet, cfg *config.Config, scanned *atomic.Int64) FileResult {
	start := time.Now()
	result := FileResult{
		Path:        path,
		Matched:     fiscal.NewKeySet(),
		Value:       decimal.Zero,
		ModelValues: make(map[string]decimal.Decimal),
	}

	// A failed file must contribute nothing: roll back its share of the
	// shared counter and drop its partial staging output.
	fail := func(err error) FileResult {
		scanned.Add(int64(-result.Rows))
		os.Remove(staging)
		return FileResult{
			Path:     path,
			Matched:  fiscal.NewKeySet(),
			Value:    decimal.Zero,
			Duration: time.Since(start),
			Err:      err,
		}
	}

	// STEP 1: Open and validate the input.
	reader, err := csvparser.Open(path, csvparser.Options{
		Delimiter: cfg.DocumentComma(),
		Encoding:  cfg.Encoding,
	})
	if err != nil {
		return fail(err)
	}
	defer reader.Close()

	if err := validation.ValidateHeaders(reader.Headers(), cfg.DocColumns, validation.DocumentFile, path); err != nil {
		return fail(err)
	}
	result.Headers = reader.Headers()

	keyColumn, err := validation.ColumnIndex(reader.Headers(), cfg.DocColumns[config.DocumentKeyColumn], validation.DocumentFile, path)
	if err != nil {
		return fail(err)
	}

	valueColumn := -1
	if cfg.TrackValues {
		valueColumn, err = validation.ColumnIndex(reader.Headers(), cfg.DocColumns[config.ValueColumn], validation.DocumentFile, path)
		if err != nil {
			return fail(err)
		}
	}

	// STEP 2: Open the staging output.
	out, err := os.Create(staging)
	if err != nil {
		return fail(err)
	}
	writer := bufio.NewWriter(out)

	if writeHeader {
		writer.WriteString(strings.Join(reader.Headers(), cfg.DocumentDelimiter))
		writer.WriteByte('\n')
	}

	// STEP 3: Stream, test membership, stage matches.
	for reader.Next() {
		scanned.Add(1)
		result.Rows++

		fields := reader.Fields()
		key, ok := fiscal.NormalizeKey(fields[keyColumn])
		if !ok || !keys.Contains(key) {
			continue
		}

		result.Matched.Add(key)
		result.MatchedRows++

		for i, field := range fields {
			fields[i] = fiscal.NormalizeSpaces(field)
		}
		writer.WriteString(strings.Join(fields, cfg.DocumentDelimiter))
		writer.WriteByte('\n')

		if valueColumn >= 0 {
			if value, ok := fiscal.ParseValue(fields[valueColumn]); ok {
				result.Value = result.Value.Add(value)
				code := fiscal.ModelCode(key)
				result.ModelValues[code] = result.ModelValues[code].Add(value)
			}
		}
	}
	if err := reader.Err(); err != nil {
		out.Close()
		return fail(err)
	}

	// STEP 4: Seal the staging output.
	if err := writer.Flush(); err != nil {
		out.Close()
		return fail(err)
	}
	if err := out.Close(); err != nil {
		return fail(err)
	}

	result.StagingPath = staging
	result.Duration = time.Since(start)
	return result
}
