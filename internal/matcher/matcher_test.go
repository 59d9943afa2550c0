package matcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sped-tools/efd-reconcile/internal/config"
	"github.com/sped-tools/efd-reconcile/internal/fiscal"
	"github.com/sped-tools/efd-reconcile/internal/validation"
	"github.com/sped-tools/efd-reconcile/pkg/utils"
)

const (
	keyColumn   = "Chave da Nota Fiscal Eletrônica : NF Item (Todos)"
	nameColumn  = "Nome do Participante : NF (Todos)"
	valueColumn = "Valor Total : NF (Todos) SOMA"

	docHeader = keyColumn + ";" + nameColumn + ";" + valueColumn
)

func testKey(model string, serial int) string {
	return fmt.Sprintf("35240112345678000190%s%022d", model, serial)
}

func docConfig() *config.Config {
	cfg := config.Default()
	cfg.DocColumns = map[string]string{
		config.DocumentKeyColumn: keyColumn,
		"nome_participante":      nameColumn,
		config.ValueColumn:       valueColumn,
	}
	return cfg
}

func writeDoc(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	content := strings.Join(append([]string{docHeader}, rows...), "\n") + "\n"
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRunMatchesAndStages(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	k1 := testKey(fiscal.ModelNFe, 1)
	k2 := testKey(fiscal.ModelNFe, 2)
	unknown := testKey(fiscal.ModelNFe, 9)

	fileA := writeDoc(t, dir, "a_docs.csv",
		k1+";Fornecedor Alfa;10,00",
		unknown+";Fornecedor Beta;20,00",
		"chave invalida;Fornecedor Gama;30,00",
	)
	fileB := writeDoc(t, dir, "b_docs.csv",
		k2+";Fornecedor Delta;40,00",
	)

	keys := fiscal.NewKeySet(k1, k2)
	result := Run([]string{fileB, fileA}, target, keys, docConfig())

	assert.Equal(t, fiscal.NewKeySet(k1, k2), result.MatchedKeys)
	assert.Equal(t, int64(4), result.RowsScanned)
	assert.Equal(t, 2, result.MatchedRows)
	assert.Equal(t, 0, result.Failures)

	// Results come back in lexicographic path order regardless of the
	// order the paths were handed in.
	require.Len(t, result.Files, 2)
	assert.Equal(t, fileA, result.Files[0].Path)
	assert.Equal(t, fileB, result.Files[1].Path)

	// Only the first file's staging output carries the header.
	linesA := readLines(t, result.Files[0].StagingPath)
	require.Len(t, linesA, 2)
	assert.Equal(t, docHeader, linesA[0])
	assert.Equal(t, k1+";Fornecedor Alfa;10,00", linesA[1])

	linesB := readLines(t, result.Files[1].StagingPath)
	require.Len(t, linesB, 1)
	assert.Equal(t, k2+";Fornecedor Delta;40,00", linesB[0])
}

func TestRunNormalizesStagedFields(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	key := testKey(fiscal.ModelCTe, 1)
	writeDoc(t, dir, "a_docs.csv",
		key+";TRANSPORTES    IRMAOS\t\tLTDA;1,00",
	)

	result := Run([]string{filepath.Join(dir, "a_docs.csv")}, target, fiscal.NewKeySet(key), docConfig())

	lines := readLines(t, result.Files[0].StagingPath)
	assert.Equal(t, key+";TRANSPORTES IRMAOS LTDA;1,00", lines[1])
}

func TestRunIsolatesSchemaFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	k1 := testKey(fiscal.ModelNFe, 1)
	fileA := writeDoc(t, dir, "a_docs.csv", k1+";Fornecedor Alfa;10,00")

	fileB := filepath.Join(dir, "b_docs.csv")
	require.NoError(t, os.WriteFile(fileB,
		[]byte("Outra Coluna;Mais Uma\nx;y\n"), 0o644))

	result := Run([]string{fileA, fileB}, target, fiscal.NewKeySet(k1), docConfig())

	assert.Equal(t, 1, result.Failures)
	assert.Equal(t, fiscal.NewKeySet(k1), result.MatchedKeys)
	assert.Equal(t, int64(1), result.RowsScanned)

	var missing *validation.MissingColumnError
	require.ErrorAs(t, result.Files[1].Err, &missing)
	assert.Empty(t, result.Files[1].StagingPath)
	assert.False(t, utils.FileExists(utils.StagingPath(target, fileB)))
}

func TestRunRollsBackMidFileFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	k1 := testKey(fiscal.ModelNFe, 1)
	k2 := testKey(fiscal.ModelNFe, 2)

	fileA := writeDoc(t, dir, "a_docs.csv", k1+";Fornecedor Alfa;10,00")
	fileB := writeDoc(t, dir, "b_docs.csv",
		k2+";Fornecedor Beta;20,00",
		"linha;curta",
	)

	result := Run([]string{fileA, fileB}, target, fiscal.NewKeySet(k1, k2), docConfig())

	var count *validation.ColumnCountError
	require.ErrorAs(t, result.Files[1].Err, &count)
	assert.Equal(t, 3, count.Row)

	// The failed file contributes nothing, not even its rows scanned
	// before the bad one.
	assert.Equal(t, fiscal.NewKeySet(k1), result.MatchedKeys)
	assert.Equal(t, int64(1), result.RowsScanned)
	assert.False(t, utils.FileExists(utils.StagingPath(target, fileB)))
}

func TestRunTracksValues(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	k1 := testKey(fiscal.ModelNFe, 1)
	k2 := testKey(fiscal.ModelNFe, 2)
	k3 := testKey(fiscal.ModelCTe, 3)
	unknown := testKey(fiscal.ModelNFe, 9)

	writeDoc(t, dir, "a_docs.csv",
		k1+";Fornecedor Alfa;1.234,56",
		k2+";Fornecedor Beta;100,00",
		k3+";Transportadora Delta;50,00",
		unknown+";Fornecedor Gama;999,99",
		k1+";Fornecedor Alfa;sem valor",
	)

	cfg := docConfig()
	cfg.TrackValues = true

	result := Run([]string{filepath.Join(dir, "a_docs.csv")}, target, fiscal.NewKeySet(k1, k2, k3), cfg)

	require.Equal(t, 0, result.Failures)
	assert.True(t, result.TotalValue.Equal(decimal.RequireFromString("1384.56")),
		"got %s", result.TotalValue)
	assert.True(t, result.ModelValues["55"].Equal(decimal.RequireFromString("1334.56")),
		"got %s", result.ModelValues["55"])
	assert.True(t, result.ModelValues["57"].Equal(decimal.RequireFromString("50.00")),
		"got %s", result.ModelValues["57"])
	assert.Equal(t, 4, result.MatchedRows)
}

func TestRunResultIndependentOfConcurrency(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")

	var paths []string
	keys := fiscal.NewKeySet()
	for i := range 6 {
		key := testKey(fiscal.ModelNFe, i)
		keys.Add(key)
		paths = append(paths, writeDoc(t, dir, fmt.Sprintf("%02d_docs.csv", i),
			key+";Fornecedor;1,00"))
	}

	sequentialCfg := docConfig()
	sequentialCfg.MaxConcurrency = 1
	sequential := Run(paths, target, keys, sequentialCfg)
	// Remove staging before the second pass reuses the same paths.
	_, err := MergeStaging(target, sequential.Files)
	require.NoError(t, err)

	parallelCfg := docConfig()
	parallelCfg.MaxConcurrency = 4
	parallel := Run(paths, target, keys, parallelCfg)

	assert.Equal(t, sequential.MatchedKeys, parallel.MatchedKeys)
	assert.Equal(t, sequential.RowsScanned, parallel.RowsScanned)
	assert.Equal(t, sequential.MatchedRows, parallel.MatchedRows)
}
