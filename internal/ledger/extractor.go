// =============================================================================
// EFD Reconcile - Ledger Key Extractor
// =============================================================================
//
// This module streams the EFD Contribuições ledger export and builds the
// key set the matching phase works against. Each well-formed 44-digit key
// found in the configured key column enters the set together with every key
// one hop away in the reference graphs: the cargo notes it transports, its
// complementary transport bills, and the transport bills that carry it.
//
// ERROR HANDLING:
//   The ledger is the anchor of a reconciliation run, so schema problems
//   are fatal: a blank, duplicate or missing header column, or any row
//   whose field count differs from the header, aborts extraction with a
//   typed error carrying the file and row. Malformed key values in data
//   rows are not errors; the row is simply skipped.
//
// =============================================================================

package ledger

import (
	"github.com/sped-tools/efd-reconcile/internal/config"
	"github.com/sped-tools/efd-reconcile/internal/csvparser"
	"github.com/sped-tools/efd-reconcile/internal/fiscal"
	"github.com/sped-tools/efd-reconcile/internal/validation"
)

// =============================================================================
// REFERENCE RELATIONS
// =============================================================================

// References bundles the closed relationship maps used to expand a ledger
// key into its related keys. All three maps are read-only here.
type References struct {
	// CargoNotes maps a CT-e key to the NF-e keys it transports, after
	// propagation across complementary groups.
	CargoNotes fiscal.KeyMap

	// Complementary maps a CT-e key to its closed complementary group.
	Complementary fiscal.KeyMap

	// Carriers is the inverted cargo-note relation: NF-e key to the CT-e
	// keys that list it.
	Carriers fiscal.KeyMap
}

// Expand adds key and every key one hop away from it to the set. Lookups
// against a relation that does not apply to the key's model simply miss.
func (r References) Expand(key string, into fiscal.KeySet) {
	into.Add(key)
	into.Merge(r.CargoNotes[key])
	into.Merge(r.Complementary[key])
	into.Merge(r.Carriers[key])
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Result carries the outcome of a ledger extraction.
type Result struct {
	// Keys is the expanded ledger key set, shared read-only with the
	// matching phase.
	Keys fiscal.KeySet

	// Headers is the validated header row, kept for diagnostics.
	Headers []string

	// RowsScanned counts the data rows read.
	RowsScanned int

	// KeysFound counts the rows that carried a well-formed key.
	KeysFound int
}

// Extract streams the ledger file and returns its expanded key set.
//
// PARAMETERS:
//   - path: The ledger export path.
//   - cfg: Supplies the delimiter, encoding and the EFD column table; every
//     configured column literal must be present in the header.
//   - refs: The closed reference relations used to expand each key.
//
// RETURNS:
//   - The extraction result.
//   - An error on I/O failure or any schema violation; see the package
//     comment for what counts as fatal.
func Extract(path string, cfg *config.Config, refs References) (*Result, error) {
	reader, err := csvparser.Open(path, csvparser.Options{
		Delimiter: cfg.LedgerComma(),
		Encoding:  cfg.Encoding,
	})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if err := validation.ValidateHeaders(reader.Headers(), cfg.EFDColumns, validation.LedgerFile, path); err != nil {
		return nil, err
	}

	keyColumn, err := validation.ColumnIndex(reader.Headers(), cfg.EFDColumns[config.LedgerKeyColumn], validation.LedgerFile, path)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Keys:    fiscal.NewKeySet(),
		Headers: reader.Headers(),
	}

	for reader.Next() {
		result.RowsScanned++

		key, ok := fiscal.NormalizeKey(reader.Fields()[keyColumn])
		if !ok {
			continue
		}

		result.KeysFound++
		refs.Expand(key, result.Keys)
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
