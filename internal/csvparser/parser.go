// =============================================================================
// EFD Reconcile - CSV Parser Module
// =============================================================================
//
// This module reads the delimited text files the engine works with: the
// pipe-delimited EFD ledger export and the semicolon-delimited fiscal
// document exports. Files are streamed row by row so multi-gigabyte
// exports never have to fit in memory.
//
// FEATURES:
//   - Configurable single-rune delimiter
//   - ISO-8859-1 and Windows-1252 decoding for legacy exports
//   - Strict field counts: every data row must match the header width
//   - Whitespace trimming on headers and fields
//
// ERROR HANDLING:
//   A row whose field count differs from the header stops iteration with a
//   validation.ColumnCountError carrying the file, row number and both
//   counts. I/O and quoting errors surface through Err() the same way.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/sped-tools/efd-reconcile/internal/config"
	"github.com/sped-tools/efd-reconcile/internal/validation"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls how a file is read.
type Options struct {
	// Delimiter is the field separator. Defaults to ',' when zero.
	Delimiter rune

	// Encoding is the source character set. One of the config.Encoding*
	// constants. Defaults to UTF-8 when empty.
	Encoding string
}

// =============================================================================
// STREAMING READER
// =============================================================================

// Reader streams a delimited file one record at a time.
//
// USAGE:
//   r, err := csvparser.Open(path, opts)
//   if err != nil {
//       return err
//   }
//   defer r.Close()
//
//   for r.Next() {
//       fields := r.Fields()
//       // Process the record...
//   }
//
//   if err := r.Err(); err != nil {
//       return err
//   }
type Reader struct {
	file    *os.File
	csv     *csv.Reader
	path    string
	headers []string
	current []string
	rowNum  int
	err     error
}

// Open opens a delimited file and reads its header row.
//
// PARAMETERS:
//   - path: The path to the file.
//   - opts: Delimiter and encoding settings.
//
// RETURNS:
//   - A Reader positioned at the first data row.
//   - An error if the file cannot be opened, decoded, or has no header.
func Open(path string, opts Options) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	decoded, err := decodingReader(bufio.NewReader(file), opts.Encoding)
	if err != nil {
		file.Close()
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	if opts.Delimiter != 0 {
		csvReader.Comma = opts.Delimiter
	}
	// Field counts are enforced per row below so the error can carry the
	// file path and row number.
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	r := &Reader{
		file: file,
		csv:  csvReader,
		path: path,
	}

	if err := r.readHeader(); err != nil {
		file.Close()
		return nil, err
	}

	return r, nil
}

// decodingReader wraps r with a character-set decoder when the source file
// is not UTF-8.
func decodingReader(r io.Reader, encoding string) (io.Reader, error) {
	switch encoding {
	case "", config.EncodingUTF8:
		return r, nil
	case config.EncodingLatin1:
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case config.EncodingWin1252:
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

// readHeader reads and trims the header row.
func (r *Reader) readHeader() error {
	record, err := r.csv.Read()
	if err == io.EOF {
		return fmt.Errorf("file %q has no header row", r.path)
	}
	if err != nil {
		return fmt.Errorf("failed to read header of %q: %w", r.path, err)
	}

	headers := make([]string, len(record))
	for i, name := range record {
		headers[i] = strings.TrimSpace(name)
	}
	// Exports from Windows tooling often lead with a byte order mark.
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	r.headers = headers
	r.rowNum = 1
	return nil
}

// Next advances to the next data row. It returns false at end of file or on
// the first error; check Err() after the loop.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}

	record, err := r.csv.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		r.err = fmt.Errorf("failed to read row %d of %q: %w", r.rowNum+1, r.path, err)
		return false
	}

	r.rowNum++

	if len(record) != len(r.headers) {
		r.err = &validation.ColumnCountError{
			File:     r.path,
			Row:      r.rowNum,
			Expected: len(r.headers),
			Found:    len(record),
		}
		return false
	}

	for i, field := range record {
		record[i] = strings.TrimSpace(field)
	}
	r.current = record

	return true
}

// Fields returns the current data row. The slice is only valid until the
// next call to Next.
func (r *Reader) Fields() []string {
	return r.current
}

// Headers returns the trimmed header row.
func (r *Reader) Headers() []string {
	return r.headers
}

// RowNumber returns the 1-based row of the current record, counting the
// header as row 1.
func (r *Reader) RowNumber() int {
	return r.rowNum
}

// Err returns the error that stopped iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
