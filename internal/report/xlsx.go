// =============================================================================
// EFD Reconcile - XLSX Report
// =============================================================================
//
// This module writes the optional workbook for audit teams that review the
// run outcome in Excel: a summary sheet with the run totals, a per-model
// sheet with counts and matched value totals, and a sheet listing every
// missing key with its model. The missing-key sheet is written through the
// stream writer, so a reconciliation that misses hundreds of thousands of
// keys does not hold the whole sheet in memory.
//
// =============================================================================

package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

// Workbook sheet names. Portuguese, like every artifact the audit side
// consumes.
const (
	SummarySheet = "Resumo"
	ModelsSheet  = "Modelos"
	MissingSheet = "Chaves Faltantes"
)

// WorkbookStats carries the run totals shown on the summary sheet.
type WorkbookStats struct {
	// LedgerFile is the ledger path the run reconciled.
	LedgerFile string

	// LedgerKeys is the size of the expanded ledger key set.
	LedgerKeys int

	// FilesProcessed counts the fiscal-document files handled.
	FilesProcessed int

	// FilesFailed counts the files that could not be processed.
	FilesFailed int

	// RowsScanned is the total records scanned across all files.
	RowsScanned int64

	// MatchedKeys and MissingKeys are the global outcome counts.
	MatchedKeys int
	MissingKeys int

	// TotalValue is the summed value column over matched rows; only shown
	// when TrackValues is set.
	TotalValue  decimal.Decimal
	TrackValues bool

	// ModelValues splits TotalValue by document-model code for the
	// per-model sheet.
	ModelValues map[string]decimal.Decimal
}

// WriteWorkbook writes the reconciliation report workbook.
//
// PARAMETERS:
//   - path: The workbook path (overwritten when present).
//   - gap: The analyzed reconciliation outcome.
//   - stats: The run totals for the summary sheet.
//
// RETURNS:
//   - An error if the workbook cannot be assembled or saved.
func WriteWorkbook(path string, gap *Gap, stats WorkbookStats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Arquivo da EFD", stats.LedgerFile},
		{"Chaves da EFD (expandidas)", stats.LedgerKeys},
		{"Arquivos de documentos", stats.FilesProcessed},
		{"Arquivos com falha", stats.FilesFailed},
		{"Registros lidos", stats.RowsScanned},
		{"Chaves encontradas", stats.MatchedKeys},
		{"Chaves não encontradas", stats.MissingKeys},
	}
	if stats.TrackValues {
		summary = append(summary, []interface{}{"Valor total conciliado", stats.TotalValue.StringFixed(2)})
	}

	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address summary row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}

	if err := writeModelsSheet(f, gap, stats); err != nil {
		return err
	}

	if err := writeMissingSheet(f, gap); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %q: %w", path, err)
	}
	return nil
}

// writeModelsSheet writes one row per ledger model with its counts and,
// when value tracking is on, the matched value total.
func writeModelsSheet(f *excelize.File, gap *Gap, stats WorkbookStats) error {
	if _, err := f.NewSheet(ModelsSheet); err != nil {
		return fmt.Errorf("failed to create model sheet: %w", err)
	}

	header := []interface{}{"Modelo", "Descrição", "Chaves na EFD", "Encontradas", "Faltantes"}
	if stats.TrackValues {
		header = append(header, "Valor conciliado")
	}
	if err := f.SetSheetRow(ModelsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write model header: %w", err)
	}

	for i, code := range gap.Models() {
		row := []interface{}{
			code,
			fiscal.ModelName(code),
			len(gap.Ledger[code]),
			len(gap.Matched[code]),
			len(gap.Missing[code]),
		}
		if stats.TrackValues {
			row = append(row, stats.ModelValues[code].StringFixed(2))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address model row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(ModelsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write model row %d: %w", i+2, err)
		}
	}

	return nil
}

// writeMissingSheet streams the missing keys, one row each, sorted by model
// code and key.
func writeMissingSheet(f *excelize.File, gap *Gap) error {
	if _, err := f.NewSheet(MissingSheet); err != nil {
		return fmt.Errorf("failed to create missing-key sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(MissingSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	if err := sw.SetRow("A1", []interface{}{"Modelo", "Descrição", "Chave"}); err != nil {
		return fmt.Errorf("failed to write missing-key header: %w", err)
	}

	rowIndex := 2
	for _, code := range gap.Missing.SortedKeys() {
		name := fiscal.ModelName(code)
		for _, key := range gap.Missing[code].Sorted() {
			cell, err := excelize.CoordinatesToCellName(1, rowIndex)
			if err != nil {
				return fmt.Errorf("failed to address missing-key row %d: %w", rowIndex, err)
			}
			if err := sw.SetRow(cell, []interface{}{code, name, key}); err != nil {
				return fmt.Errorf("failed to write missing-key row %d: %w", rowIndex, err)
			}
			rowIndex++
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush missing-key sheet: %w", err)
	}
	return nil
}
