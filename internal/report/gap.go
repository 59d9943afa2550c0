// =============================================================================
// EFD Reconcile - Gap Reporter
// =============================================================================
//
// This module classifies the outcome of a reconciliation run: it partitions
// the ledger and matched key sets by the 2-digit document-model code and
// computes, per model, the ledger keys for which no fiscal document was
// found. The console rendering groups digit counts the Brazilian way
// (1.234.567) since the audience reads the totals against ReceitaNet
// screens that do the same.
//
// =============================================================================

package report

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

// brPrinter renders counts with Brazilian digit grouping.
var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// =============================================================================
// GAP ANALYSIS
// =============================================================================

// Gap holds the per-model reconciliation outcome. All three maps are keyed
// by the 2-digit model code.
type Gap struct {
	// Ledger partitions the ledger key set by model.
	Ledger fiscal.KeyMap

	// Matched partitions the matched key set by model.
	Matched fiscal.KeyMap

	// Missing holds, per model, the ledger keys with no match. Models with
	// nothing missing are absent.
	Missing fiscal.KeyMap
}

// Analyze partitions both key sets by document model and computes the
// per-model set difference ledger minus matched.
//
// PARAMETERS:
//   - ledgerKeys: The expanded ledger key set.
//   - matchedKeys: The union of matched keys across all document files.
//
// Keys too short to carry a model code cannot occur after upstream
// validation and are excluded here rather than grouped under a bogus code.
func Analyze(ledgerKeys, matchedKeys fiscal.KeySet) *Gap {
	gap := &Gap{
		Ledger:  Segregated(ledgerKeys),
		Matched: Segregated(matchedKeys),
		Missing: make(fiscal.KeyMap),
	}

	for code, keys := range gap.Ledger {
		for key := range keys {
			if !matchedKeys.Contains(key) {
				gap.Missing.Insert(code, key)
			}
		}
	}

	return gap
}

// Models returns every model code seen in the ledger, sorted.
func (g *Gap) Models() []string {
	return g.Ledger.SortedKeys()
}

// MissingTotal counts the missing keys across all models.
func (g *Gap) MissingTotal() int {
	return g.Missing.TotalMembers()
}

// AllMissing returns the union of the per-model missing sets.
func (g *Gap) AllMissing() fiscal.KeySet {
	union := fiscal.NewKeySet()
	for _, keys := range g.Missing {
		union.Merge(keys)
	}
	return union
}

// =============================================================================
// CONSOLE RENDERING
// =============================================================================

// WriteBreakdown writes the per-model table of ledger, matched and missing
// counts.
func (g *Gap) WriteBreakdown(w io.Writer) {
	for _, code := range g.Models() {
		fmt.Fprintf(w, "  [%s] %s: %s keys, %s matched, %s missing\n",
			code,
			fiscal.ModelName(code),
			brPrinter.Sprintf("%d", len(g.Ledger[code])),
			brPrinter.Sprintf("%d", len(g.Matched[code])),
			brPrinter.Sprintf("%d", len(g.Missing[code])))
	}
}

// WriteMissingNotice writes the closing message about unmatched keys. The
// keys themselves are listed when listKeys is true; a single missing key is
// always listed.
func (g *Gap) WriteMissingNotice(w io.Writer, listKeys bool) {
	total := g.MissingTotal()

	switch total {
	case 0:
		fmt.Fprintln(w, "All ledger keys were found among the fiscal documents.")
		return
	case 1:
		fmt.Fprintln(w, "1 ledger key was not found among the fiscal documents:")
		listKeys = true
	default:
		fmt.Fprintf(w, "%s ledger keys were not found among the fiscal documents.\n",
			brPrinter.Sprintf("%d", total))
	}

	if !listKeys {
		return
	}
	for _, code := range g.Missing.SortedKeys() {
		name := fiscal.ModelName(code)
		for _, key := range g.Missing[code].Sorted() {
			fmt.Fprintf(w, "  %s (%s)\n", key, name)
		}
	}
}
