package report

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

func TestWriteWorkbookRoundTrip(t *testing.T) {
	gap := missingGap(
		testKey(fiscal.ModelCTe, 2),
		testKey(fiscal.ModelNFe, 1),
	)
	stats := WorkbookStats{
		LedgerFile:     "efd-contribuicoes.txt",
		LedgerKeys:     120,
		FilesProcessed: 4,
		FilesFailed:    1,
		RowsScanned:    50000,
		MatchedKeys:    118,
		MissingKeys:    2,
		TotalValue:     decimal.RequireFromString("1334.56"),
		TrackValues:    true,
		ModelValues: map[string]decimal.Decimal{
			"55": decimal.RequireFromString("1334.56"),
		},
	}
	path := filepath.Join(t.TempDir(), "relatorio.xlsx")

	require.NoError(t, WriteWorkbook(path, gap, stats))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 8)
	assert.Equal(t, []string{"Arquivo da EFD", "efd-contribuicoes.txt"}, summary[0])
	assert.Equal(t, []string{"Chaves da EFD (expandidas)", "120"}, summary[1])
	assert.Equal(t, []string{"Registros lidos", "50000"}, summary[4])
	assert.Equal(t, []string{"Chaves não encontradas", "2"}, summary[6])
	assert.Equal(t, []string{"Valor total conciliado", "1334.56"}, summary[7])

	models, err := f.GetRows(ModelsSheet)
	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.Equal(t, []string{
		"Modelo", "Descrição", "Chaves na EFD", "Encontradas", "Faltantes", "Valor conciliado",
	}, models[0])
	assert.Equal(t, []string{
		"55", "Nota Fiscal Eletrônica: NF-e", "1", "0", "1", "1334.56",
	}, models[1])
	assert.Equal(t, []string{
		"57", "Conhecimento de Transporte Eletrônico: CT-e", "1", "0", "1", "0.00",
	}, models[2])

	missing, err := f.GetRows(MissingSheet)
	require.NoError(t, err)
	require.Len(t, missing, 3)
	assert.Equal(t, []string{"Modelo", "Descrição", "Chave"}, missing[0])
	assert.Equal(t, []string{
		"55", "Nota Fiscal Eletrônica: NF-e", testKey(fiscal.ModelNFe, 1),
	}, missing[1])
	assert.Equal(t, []string{
		"57", "Conhecimento de Transporte Eletrônico: CT-e", testKey(fiscal.ModelCTe, 2),
	}, missing[2])
}

func TestWriteWorkbookWithoutValueTracking(t *testing.T) {
	key := testKey(fiscal.ModelNFe, 1)
	gap := Analyze(fiscal.NewKeySet(key), fiscal.NewKeySet(key))
	path := filepath.Join(t.TempDir(), "relatorio.xlsx")

	require.NoError(t, WriteWorkbook(path, gap, WorkbookStats{
		LedgerFile: "efd.txt",
		LedgerKeys: 1,
	}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 7)
	for _, row := range summary {
		assert.NotEqual(t, "Valor total conciliado", row[0])
	}

	models, err := f.GetRows(ModelsSheet)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, []string{
		"Modelo", "Descrição", "Chaves na EFD", "Encontradas", "Faltantes",
	}, models[0])
	assert.Equal(t, []string{
		"55", "Nota Fiscal Eletrônica: NF-e", "1", "1", "0",
	}, models[1])

	missing, err := f.GetRows(MissingSheet)
	require.NoError(t, err)
	require.Len(t, missing, 1, "only the header row when nothing is missing")
}
