// =============================================================================
// EFD Reconcile - Schema Validation
// =============================================================================
//
// This module validates the header row of delimited input files before any
// data row is trusted, and defines the error types the rest of the engine
// uses for schema violations. The checks run in a fixed order:
//   1. No blank column names
//   2. No duplicate column names
//   3. Every configured essential column is present
//
// ERROR HANDLING:
//   Every error carries the offending file path and, where it exists, the
//   column name or row number, so the source data can be fixed without
//   reading code. Schema errors are fatal for the file being processed; the
//   caller decides whether that fails the whole run (it does for the ledger,
//   it does not for a single fiscal-document file).
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// FILE TYPES
// =============================================================================

// FileType identifies which input family a file belongs to, for error
// messages and for selecting the essential-column table.
type FileType int

const (
	// LedgerFile is the EFD Contribuições ledger export.
	LedgerFile FileType = iota

	// DocumentFile is a fiscal-document (NF-e/CT-e) export.
	DocumentFile
)

// String implements fmt.Stringer.
func (t FileType) String() string {
	switch t {
	case LedgerFile:
		return "EFD ledger"
	case DocumentFile:
		return "fiscal document"
	default:
		return "unknown"
	}
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// EmptyColumnNameError reports a header containing a blank column name.
type EmptyColumnNameError struct {
	// File is the path of the offending input file.
	File string
}

func (e *EmptyColumnNameError) Error() string {
	return fmt.Sprintf("file %q has a blank column name in its header", e.File)
}

// DuplicateColumnError reports a header that lists the same column twice.
type DuplicateColumnError struct {
	// File is the path of the offending input file.
	File string

	// Column is the repeated column name.
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("file %q repeats column %q in its header", e.File, e.Column)
}

// MissingColumnError reports an essential column absent from a header.
type MissingColumnError struct {
	// File is the path of the offending input file.
	File string

	// Column is the literal header text that was expected.
	Column string

	// FileType tells which essential-column table the check used.
	FileType FileType
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("essential column %q not found in %s file %q", e.Column, e.FileType, e.File)
}

// ColumnCountError reports a data row whose field count differs from the
// header. Row is 1-based and counts the header as row 1, matching what a
// spreadsheet or text editor shows.
type ColumnCountError struct {
	File     string
	Row      int
	Expected int
	Found    int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("row %d of file %q has %d fields, expected %d", e.Row, e.File, e.Found, e.Expected)
}

// =============================================================================
// HEADER VALIDATION
// =============================================================================

// ValidateHeaders checks a parsed header row against the configured
// essential columns for the given file type.
//
// PARAMETERS:
//   - headers: The header row as parsed from the file.
//   - required: Logical-name -> header-literal table; every literal must be
//     present in headers.
//   - fileType: Which input family the file belongs to (for messages).
//   - path: The file path (for messages).
//
// RETURNS:
//   - nil when the header passes all checks, otherwise the first violation
//     in check order. Missing columns are reported in sorted literal order
//     so the same broken file always yields the same error.
func ValidateHeaders(headers []string, required map[string]string, fileType FileType, path string) error {
	for _, name := range headers {
		if strings.TrimSpace(name) == "" {
			return &EmptyColumnNameError{File: path}
		}
	}

	seen := make(map[string]struct{}, len(headers))
	for _, name := range headers {
		if _, dup := seen[name]; dup {
			return &DuplicateColumnError{File: path, Column: name}
		}
		seen[name] = struct{}{}
	}

	literals := make([]string, 0, len(required))
	for _, literal := range required {
		literals = append(literals, literal)
	}
	sort.Strings(literals)

	for _, literal := range literals {
		if _, ok := seen[literal]; !ok {
			return &MissingColumnError{File: path, Column: literal, FileType: fileType}
		}
	}

	return nil
}

// ColumnIndex locates a column by its literal header text.
//
// RETURNS:
//   - The zero-based index of the column, or a MissingColumnError when the
//     header does not contain it.
func ColumnIndex(headers []string, literal string, fileType FileType, path string) (int, error) {
	for i, name := range headers {
		if name == literal {
			return i, nil
		}
	}
	return 0, &MissingColumnError{File: path, Column: literal, FileType: fileType}
}
