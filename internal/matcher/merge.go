// =============================================================================
// EFD Reconcile - Staging Merge
// =============================================================================
//
// This module concatenates the per-file staging outputs into the final
// merged CSV, dropping duplicate lines. Line identity is the SHA-256 of the
// whitespace-normalized content, so the same record exported by two source
// files (or twice by one) collapses to a single line. First occurrence
// wins, and "first" is well defined because staging files are merged in the
// same stable order the matcher used.
//
// Each staging file is deleted as soon as its lines are merged.
//
// =============================================================================

package matcher

import (
	"bufio"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

// MergeStats describes what the merge did.
type MergeStats struct {
	// LinesWritten counts the distinct lines in the final output.
	LinesWritten int

	// Duplicates counts the staged lines dropped as already seen.
	Duplicates int

	// FilesMerged counts the staging files consumed and deleted.
	FilesMerged int

	// FilesSkipped counts entries with no staging output to merge, either
	// failed producers or staging files that disappeared.
	FilesSkipped int
}

// MergeStaging builds the final merged output from the staging files.
//
// PARAMETERS:
//   - target: The merged output path. Created or truncated.
//   - files: The per-file matcher results in stable order. Entries that
//     failed, or whose staging output is gone, are skipped; they already
//     contributed nothing to the match results.
//
// RETURNS:
//   - Merge statistics.
//   - An error on any I/O failure; unlike matching, the merge is a single
//     sequential phase and every failure is fatal.
func MergeStaging(target string, files []FileResult) (*MergeStats, error) {
	out, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %q: %w", target, err)
	}
	defer out.Close()

	writer := bufio.NewWriter(out)
	seen := make(map[[sha256.Size]byte]struct{})
	stats := &MergeStats{}

	for _, fileResult := range files {
		if fileResult.Err != nil || fileResult.StagingPath == "" {
			stats.FilesSkipped++
			continue
		}

		staging, err := os.Open(fileResult.StagingPath)
		if err != nil {
			if os.IsNotExist(err) {
				stats.FilesSkipped++
				continue
			}
			return nil, fmt.Errorf("failed to open staging file %q: %w", fileResult.StagingPath, err)
		}

		scanner := bufio.NewScanner(staging)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := fiscal.NormalizeSpaces(scanner.Text())
			digest := sha256.Sum256([]byte(line))

			if _, dup := seen[digest]; dup {
				stats.Duplicates++
				continue
			}
			seen[digest] = struct{}{}

			writer.WriteString(line)
			writer.WriteByte('\n')
			stats.LinesWritten++
		}
		if err := scanner.Err(); err != nil {
			staging.Close()
			return nil, fmt.Errorf("failed to read staging file %q: %w", fileResult.StagingPath, err)
		}
		staging.Close()

		if err := os.Remove(fileResult.StagingPath); err != nil {
			return nil, fmt.Errorf("failed to remove staging file %q: %w", fileResult.StagingPath, err)
		}
		stats.FilesMerged++
	}

	if err := writer.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush output file %q: %w", target, err)
	}
	if err := out.Sync(); err != nil {
		return nil, fmt.Errorf("failed to sync output file %q: %w", target, err)
	}

	return stats, nil
}
