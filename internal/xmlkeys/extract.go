// =============================================================================
// EFD Reconcile - CTe XML Reference Extraction
// =============================================================================
//
// This module distills the key-relationship reference files from CT-e XML
// documents. A CT-e names the NF-e keys it carries and, when it is a
// complement document, the CT-e it complements; both relations are needed
// to expand the ledger key set before matching. Each XML file is read with
// the standard streaming decoder and the relations are rendered in the line
// layout the reference loader parses.
//
// XML STRUCTURE (the parts this module reads):
//
//   <procCTe>
//     <CTe>
//       <infCte Id="CTe{44-digit key}">     <!-- the document's own key -->
//         ...
//         <infNFe>
//           <chave>{44-digit key}</chave>   <!-- one carried NF-e key -->
//         </infNFe>
//         ...
//         <infCteComp>
//           <chave>{44-digit key}</chave>   <!-- the complemented CT-e key -->
//         </infCteComp>
//       </infCte>
//     </CTe>
//   </procCTe>
//
// Container elements are matched by local name at any depth, so layout
// differences between schema versions do not break extraction; a <chave>
// only counts when it sits directly inside its container.
//
// =============================================================================

package xmlkeys

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

// =============================================================================
// EXTRACTION TYPES
// =============================================================================

// Extraction holds the key relations read from one CT-e document.
type Extraction struct {
	// Path is the XML file the relations came from.
	Path string

	// Key is the document's own 44-digit key.
	Key string

	// CargoNotes holds the carried NF-e keys.
	CargoNotes fiscal.KeySet

	// Complementary holds the complemented CT-e keys.
	Complementary fiscal.KeySet
}

// FileError records an XML file that could not be extracted.
type FileError struct {
	Path string
	Err  error
}

// Result holds the outcome of extracting a directory of CT-e XML files.
type Result struct {
	// Documents holds the successful extractions in file-name order.
	Documents []Extraction

	// Scanned counts the XML files found.
	Scanned int

	// Skipped records the files that could not be parsed, in the order
	// they were encountered.
	Skipped []FileError
}

// =============================================================================
// EXTRACTION FUNCTIONS
// =============================================================================

// ExtractFile reads the key relations from one CT-e XML file.
//
// PARAMETERS:
//   - path: The XML file to read.
//
// RETURNS:
//   - The extracted relations.
//   - An error if the file cannot be opened, is not well-formed XML, or
//     contains no CT-e key.
func ExtractFile(path string) (*Extraction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XML file %q: %w", path, err)
	}
	defer file.Close()

	extraction := &Extraction{
		Path:          path,
		CargoNotes:    fiscal.NewKeySet(),
		Complementary: fiscal.NewKeySet(),
	}

	decoder := xml.NewDecoder(file)

	// Stack of open element names, used to classify <chave> values by
	// their direct container.
	var open []string

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML file %q: %w", path, err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			name := element.Name.Local

			if name == "infCte" {
				extraction.Key = keyFromID(element.Attr)
			}

			if name == "chave" {
				var text string
				if err := decoder.DecodeElement(&text, &element); err != nil {
					return nil, fmt.Errorf("failed to parse XML file %q: %w", path, err)
				}
				// DecodeElement consumed the matching end element, so
				// the element is never pushed.
				extraction.addKey(innermost(open), text)
				continue
			}

			open = append(open, name)

		case xml.EndElement:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}

	if extraction.Key == "" {
		return nil, fmt.Errorf("no CT-e key in XML file %q", path)
	}

	return extraction, nil
}

// ExtractDir reads the key relations from every .xml file in a directory.
//
// PARAMETERS:
//   - dir: The directory to scan. Not recursive.
//
// RETURNS:
//   - The extraction result. Files that cannot be parsed are recorded in
//     Skipped rather than failing the scan.
//   - An error only if the directory itself cannot be read.
func ExtractDir(dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read XML directory %q: %w", dir, err)
	}

	result := &Result{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
			continue
		}
		result.Scanned++

		path := filepath.Join(dir, entry.Name())
		extraction, err := ExtractFile(path)
		if err != nil {
			result.Skipped = append(result.Skipped, FileError{Path: path, Err: err})
			continue
		}
		result.Documents = append(result.Documents, *extraction)
	}

	return result, nil
}

// keyFromID pulls the document key out of the infCte Id attribute, whose
// value is the key prefixed with "CTe".
func keyFromID(attrs []xml.Attr) string {
	for _, attr := range attrs {
		if attr.Name.Local != "Id" {
			continue
		}
		if key, ok := fiscal.NormalizeKey(attr.Value); ok {
			return key
		}
		return ""
	}
	return ""
}

// innermost returns the innermost open element name.
func innermost(open []string) string {
	if len(open) == 0 {
		return ""
	}
	return open[len(open)-1]
}

// addKey classifies a <chave> value by its container element. Values that
// are not well-formed keys, repeat the document's own key, or carry the
// wrong model code for their container are dropped.
func (e *Extraction) addKey(container, raw string) {
	key, ok := fiscal.NormalizeKey(raw)
	if !ok || key == e.Key {
		return
	}

	switch container {
	case "infNFe":
		if fiscal.IsModel(key, fiscal.ModelNFe) {
			e.CargoNotes.Add(key)
		}
	case "infCteComp":
		if fiscal.IsModel(key, fiscal.ModelCTe) {
			e.Complementary.Add(key)
		}
	}
}

// =============================================================================
// REFERENCE-FILE RENDERING
// =============================================================================

// CargoLine renders the cargo-note relation as one reference line: the
// CT-e key followed by every carried NF-e key. Empty when the document
// carries none.
func (e *Extraction) CargoLine() string {
	if len(e.CargoNotes) == 0 {
		return ""
	}
	return e.Key + " " + strings.Join(e.CargoNotes.Sorted(), " ")
}

// ComplementaryLines renders one "<key> <complemented key>" reference line
// per complemented document.
func (e *Extraction) ComplementaryLines() []string {
	var lines []string
	for _, key := range e.Complementary.Sorted() {
		lines = append(lines, e.Key+" "+key)
	}
	return lines
}

// AppendStats counts the reference lines written by AppendReferences.
type AppendStats struct {
	CargoLines         int
	ComplementaryLines int
}

// AppendReferences appends the extracted relations to the two reference
// files in the layout the reference loader parses.
//
// PARAMETERS:
//   - documents: The extractions to render.
//   - cargoPath: The cargo-note reference file. Created when absent, left
//     untouched when no document carries cargo.
//   - complementaryPath: The complementary reference file, same handling.
//
// RETURNS:
//   - The number of lines appended to each file.
//   - An error if either file cannot be written.
func AppendReferences(documents []Extraction, cargoPath, complementaryPath string) (AppendStats, error) {
	var stats AppendStats

	var cargo, complementary []string
	for i := range documents {
		if line := documents[i].CargoLine(); line != "" {
			cargo = append(cargo, line)
		}
		complementary = append(complementary, documents[i].ComplementaryLines()...)
	}

	if err := appendLines(cargoPath, cargo); err != nil {
		return stats, err
	}
	stats.CargoLines = len(cargo)

	if err := appendLines(complementaryPath, complementary); err != nil {
		return stats, err
	}
	stats.ComplementaryLines = len(complementary)

	return stats, nil
}

// appendLines appends the lines to the file, creating it when absent. A
// no-op for an empty slice.
func appendLines(path string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open reference file %q: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		return fmt.Errorf("failed to append to reference file %q: %w", path, err)
	}

	return nil
}
