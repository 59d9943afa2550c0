// =============================================================================
// EFD Reconcile - Reference Loader
// =============================================================================
//
// This module parses the two line-oriented reference files that relate
// transport bills to each other and to the invoices they carry:
//
//   - The cargo-note source: each useful line starts with a CT-e key
//     followed by the NF-e keys of the goods it transports.
//   - The complementary source: each useful line carries two CT-e keys
//     that document the same shipment.
//
// Lines that do not fit these shapes are skipped silently; reference files
// are assembled by hand and padding text around the keys is expected. Only
// I/O failures are errors.
//
// CONCURRENCY:
//   Lines are independent, so they are fanned out to a pool of workers.
//   Each worker accumulates into a private adjacency map and the partial
//   maps are unioned at the end. Set union is commutative, so the result
//   does not depend on line scheduling.
//
// =============================================================================

package keygraph

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

// keyToken matches a run of exactly 44 digits not adjacent to other digits.
// A 45+ digit run yields no token at all, so truncated or concatenated keys
// never enter the graphs.
var keyToken = regexp.MustCompile(`\b\d{44}\b`)

// lineParser extracts the relationships of one line into a private map.
type lineParser func(line string, into fiscal.KeyMap)

// =============================================================================
// PUBLIC LOADERS
// =============================================================================

// LoadCargoNotes parses the cargo-note reference file.
//
// Each line is scanned for 44-digit tokens. The first token must be a CT-e
// key; every later token that is an NF-e key becomes one of its cargo notes.
// Lines with a different first model, fewer than two tokens, or no NF-e
// tokens contribute nothing.
//
// PARAMETERS:
//   - path: The reference file to read.
//   - workers: Parallel line workers. Zero or negative means one per CPU.
//
// RETURNS:
//   - The CT-e -> cargo-note adjacency map.
//   - An error if the file cannot be opened or read.
func LoadCargoNotes(path string, workers int) (fiscal.KeyMap, error) {
	return loadReferences(path, workers, parseCargoLine)
}

// LoadComplementary parses the complementary-document reference file.
//
// The first two 44-digit tokens of each line must be distinct CT-e keys;
// they are then recorded as referencing each other. Any other line shape
// contributes nothing.
//
// PARAMETERS:
//   - path: The reference file to read.
//   - workers: Parallel line workers. Zero or negative means one per CPU.
//
// RETURNS:
//   - The symmetric CT-e -> complementary CT-e adjacency map.
//   - An error if the file cannot be opened or read.
func LoadComplementary(path string, workers int) (fiscal.KeyMap, error) {
	return loadReferences(path, workers, parseComplementaryLine)
}

// =============================================================================
// LINE PROCESSING
// =============================================================================

// parseCargoLine handles one line of the cargo-note source.
func parseCargoLine(line string, into fiscal.KeyMap) {
	tokens := keyToken.FindAllString(line, -1)
	if len(tokens) < 2 {
		return
	}

	owner := tokens[0]
	if fiscal.ModelCode(owner) != fiscal.ModelCTe {
		return
	}

	for _, token := range tokens[1:] {
		if fiscal.ModelCode(token) == fiscal.ModelNFe {
			into.Insert(owner, token)
		}
	}
}

// parseComplementaryLine handles one line of the complementary source.
func parseComplementaryLine(line string, into fiscal.KeyMap) {
	tokens := keyToken.FindAllString(line, 2)
	if len(tokens) < 2 {
		return
	}

	a, b := tokens[0], tokens[1]
	if a == b {
		return
	}
	if fiscal.ModelCode(a) != fiscal.ModelCTe || fiscal.ModelCode(b) != fiscal.ModelCTe {
		return
	}

	// Record the edge in both directions up front. Closure would symmetrize
	// anyway, but a loaded map should already be usable on its own.
	into.Insert(a, b)
	into.Insert(b, a)
}

// loadReferences streams path line by line through a worker pool and merges
// the per-worker adjacency maps.
func loadReferences(path string, workers int, parse lineParser) (fiscal.KeyMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference file %q: %w", path, err)
	}
	defer file.Close()

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// STEP 1: Start the workers, each with a private partial map.
	lines := make(chan string, 4*workers)
	partials := make([]fiscal.KeyMap, workers)

	var group errgroup.Group
	for i := range workers {
		partial := make(fiscal.KeyMap)
		partials[i] = partial
		group.Go(func() error {
			for line := range lines {
				parse(line, partial)
			}
			return nil
		})
	}

	// STEP 2: Feed the file through the channel.
	scanner := bufio.NewScanner(file)
	// Hand-assembled reference lines can hold hundreds of keys.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
	close(lines)

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference file %q: %w", path, err)
	}

	// STEP 3: Union the partial maps.
	merged := make(fiscal.KeyMap)
	for _, partial := range partials {
		merged.Merge(partial)
	}

	return merged, nil
}
