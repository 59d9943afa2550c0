package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sped-tools/efd-reconcile/internal/config"
	"github.com/sped-tools/efd-reconcile/internal/fiscal"
	"github.com/sped-tools/efd-reconcile/internal/validation"
)

func testKey(model string, serial int) string {
	return fmt.Sprintf("35240112345678000190%s%022d", model, serial)
}

// testConfig trims the column table down to the columns the tests write.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.EFDColumns = map[string]string{
		config.LedgerKeyColumn: "Chave do Documento",
		"registro_bloco":       "Registro",
	}
	return cfg
}

func writeLedger(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "efd.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestExtractDirectKeyOnly(t *testing.T) {
	key := testKey(fiscal.ModelNFe, 1)
	path := writeLedger(t,
		"Registro|Chave do Documento",
		"C100|"+key,
	)

	result, err := Extract(path, testConfig(), References{})
	require.NoError(t, err)

	assert.Equal(t, fiscal.NewKeySet(key), result.Keys)
	assert.Equal(t, 1, result.RowsScanned)
	assert.Equal(t, 1, result.KeysFound)
}

func TestExtractExpandsAllRelations(t *testing.T) {
	cte := testKey(fiscal.ModelCTe, 1)
	partner := testKey(fiscal.ModelCTe, 2)
	note := testKey(fiscal.ModelNFe, 3)
	nfe := testKey(fiscal.ModelNFe, 4)
	carrier := testKey(fiscal.ModelCTe, 5)

	refs := References{
		CargoNotes:    fiscal.KeyMap{cte: fiscal.NewKeySet(note)},
		Complementary: fiscal.KeyMap{cte: fiscal.NewKeySet(partner)},
		Carriers:      fiscal.KeyMap{nfe: fiscal.NewKeySet(carrier)},
	}

	path := writeLedger(t,
		"Registro|Chave do Documento",
		"D100|"+cte,
		"C100|"+nfe,
	)

	result, err := Extract(path, testConfig(), refs)
	require.NoError(t, err)

	want := fiscal.NewKeySet(cte, note, partner, nfe, carrier)
	assert.Equal(t, want, result.Keys)
	assert.Equal(t, 2, result.KeysFound)
}

func TestExtractSkipsMalformedKeys(t *testing.T) {
	good := testKey(fiscal.ModelNFe, 1)
	formatted := good[:4] + "." + good[4:] // punctuation stripped away

	path := writeLedger(t,
		"Registro|Chave do Documento",
		"C100|",
		"C100|123",
		"C100|"+good[:43],
		"C100|"+good+"0",
		"C100|sem chave",
		"C100|"+formatted,
	)

	result, err := Extract(path, testConfig(), References{})
	require.NoError(t, err)

	assert.Equal(t, fiscal.NewKeySet(good), result.Keys)
	assert.Equal(t, 6, result.RowsScanned)
	assert.Equal(t, 1, result.KeysFound)
}

func TestExtractRejectsMissingColumn(t *testing.T) {
	path := writeLedger(t,
		"Registro|Outra Coluna",
		"C100|x",
	)

	_, err := Extract(path, testConfig(), References{})
	var missing *validation.MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Chave do Documento", missing.Column)
}

func TestExtractRejectsDuplicateColumn(t *testing.T) {
	path := writeLedger(t,
		"Registro|Chave do Documento|Registro",
		"C100|x|y",
	)

	_, err := Extract(path, testConfig(), References{})
	var dup *validation.DuplicateColumnError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Registro", dup.Column)
}

func TestExtractRejectsBlankColumn(t *testing.T) {
	path := writeLedger(t,
		"Registro||Chave do Documento",
		"C100||x",
	)

	_, err := Extract(path, testConfig(), References{})
	var blank *validation.EmptyColumnNameError
	require.ErrorAs(t, err, &blank)
}

func TestExtractRejectsRowWidthMismatch(t *testing.T) {
	key := testKey(fiscal.ModelNFe, 1)
	path := writeLedger(t,
		"Registro|Chave do Documento",
		"C100|"+key,
		"C100|"+key+"|extra",
	)

	_, err := Extract(path, testConfig(), References{})
	var count *validation.ColumnCountError
	require.ErrorAs(t, err, &count)
	assert.Equal(t, 3, count.Row)
	assert.Equal(t, 2, count.Expected)
	assert.Equal(t, 3, count.Found)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "absent.csv"), testConfig(), References{})
	require.Error(t, err)
}
