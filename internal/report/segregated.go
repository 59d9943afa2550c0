// =============================================================================
// EFD Reconcile - Segregated Key Report
// =============================================================================
//
// This module renders a key set segregated by document model, the way the
// audit walkthrough presents a run: one line per model with the key count
// and a running total, optionally followed by the keys themselves. The
// pipeline prints it twice, once for the expanded ledger key set and once
// for the keys found in the fiscal documents.
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

// FormatCount renders a count with Brazilian digit grouping, the way the
// audit side reads totals.
func FormatCount(n int64) string {
	return brPrinter.Sprintf("%d", n)
}

// Segregated partitions a key set by its 2-digit document-model code. Keys
// too short to carry a model code are excluded.
func Segregated(keys fiscal.KeySet) fiscal.KeyMap {
	segregated := make(fiscal.KeyMap)
	for key := range keys {
		code := fiscal.ModelCode(key)
		if code == "" {
			continue
		}
		segregated.Insert(code, key)
	}
	return segregated
}

// WriteSegregated writes the per-model count table for a key set.
//
// PARAMETERS:
//   - w: The destination.
//   - label: What the set holds, e.g. "EFD Contribuições".
//   - keys: The key set to segregate.
//   - listKeys: Whether to follow the table with one line per key.
func WriteSegregated(w io.Writer, label string, keys fiscal.KeySet, listKeys bool) {
	segregated := Segregated(keys)
	codes := segregated.SortedKeys()

	// Model names are padded by rune count so the counts line up even
	// with accented names.
	nameWidth := 0
	for _, code := range codes {
		nameWidth = max(nameWidth, utf8.RuneCountInString(fiscal.ModelName(code)))
	}

	fmt.Fprintf(w, " --- Key report: %s ---\n", label)

	runningTotal := 0
	for _, code := range codes {
		count := len(segregated[code])
		runningTotal += count

		name := fiscal.ModelName(code)
		padding := strings.Repeat(" ", nameWidth-utf8.RuneCountInString(name))
		fmt.Fprintf(w, " Keys in %s (model %s : %s%s) = %9s ( running total = %9s )\n",
			label, code, name, padding,
			brPrinter.Sprintf("%d", count),
			brPrinter.Sprintf("%d", runningTotal))
	}

	if listKeys {
		fmt.Fprintln(w, "\n Key detail:")
		for _, code := range codes {
			for _, key := range segregated[code].Sorted() {
				fmt.Fprintf(w, "  -> %s\n", key)
			}
		}
	}
	fmt.Fprintln(w)
}
