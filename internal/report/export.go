// =============================================================================
// EFD Reconcile - Missing Key Export
// =============================================================================
//
// This module writes the missing keys to plain text files for upload into
// ReceitaNet-BX, which caps the number of keys per request. The export is
// therefore chunked: keys are grouped by document model, sorted, and split
// into files of at most the configured line count. File names carry the
// model's descriptive name and the zero-padded start index of the chunk, so
// "-000900" is always the second file of a model exported in 900-line
// chunks.
//
// =============================================================================

package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

// ExportMissing writes the missing keys to chunked text files.
//
// PARAMETERS:
//   - gap: The analyzed reconciliation outcome.
//   - base: The merged output path; each export file is named
//     "{base}-{model name}-{offset}.txt".
//   - chunkSize: The maximum number of keys per file. Must be positive.
//
// RETURNS:
//   - The created file paths in creation order (model code, then offset).
//   - An error if chunkSize is not positive or a file cannot be written.
func ExportMissing(gap *Gap, base string, chunkSize int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("export chunk size must be positive, got %d", chunkSize)
	}

	var created []string
	for _, code := range gap.Missing.SortedKeys() {
		name := fiscal.ModelName(code)
		keys := gap.Missing[code].Sorted()

		for offset := 0; offset < len(keys); offset += chunkSize {
			chunk := keys[offset:min(offset+chunkSize, len(keys))]
			path := fmt.Sprintf("%s-%s-%06d.txt", base, name, offset)

			content := strings.Join(chunk, "\n") + "\n"
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return created, fmt.Errorf("failed to write export file %q: %w", path, err)
			}
			created = append(created, path)
		}
	}

	return created, nil
}
