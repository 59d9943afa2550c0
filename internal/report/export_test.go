package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

func missingGap(keys ...string) *Gap {
	return Analyze(fiscal.NewKeySet(keys...), fiscal.NewKeySet())
}

func TestExportMissingChunksByOffset(t *testing.T) {
	keys := make([]string, 5)
	for i := range keys {
		keys[i] = testKey(fiscal.ModelNFe, i)
	}
	base := filepath.Join(t.TempDir(), "saida")

	created, err := ExportMissing(missingGap(keys...), base, 2)
	require.NoError(t, err)

	require.Equal(t, []string{
		fmt.Sprintf("%s-Nota Fiscal Eletrônica: NF-e-%06d.txt", base, 0),
		fmt.Sprintf("%s-Nota Fiscal Eletrônica: NF-e-%06d.txt", base, 2),
		fmt.Sprintf("%s-Nota Fiscal Eletrônica: NF-e-%06d.txt", base, 4),
	}, created)

	first, err := os.ReadFile(created[0])
	require.NoError(t, err)
	assert.Equal(t, keys[0]+"\n"+keys[1]+"\n", string(first))

	last, err := os.ReadFile(created[2])
	require.NoError(t, err)
	assert.Equal(t, keys[4]+"\n", string(last))
}

func TestExportMissingGroupsByModel(t *testing.T) {
	gap := missingGap(
		testKey(fiscal.ModelCTe, 1),
		testKey(fiscal.ModelNFe, 1),
	)
	base := filepath.Join(t.TempDir(), "saida")

	created, err := ExportMissing(gap, base, 900)
	require.NoError(t, err)
	require.Len(t, created, 2)

	// Model 55 exports before model 57.
	assert.Contains(t, created[0], "NF-e")
	assert.Contains(t, created[1], "CT-e")

	cte, err := os.ReadFile(created[1])
	require.NoError(t, err)
	assert.Equal(t, testKey(fiscal.ModelCTe, 1)+"\n", string(cte))
}

func TestExportMissingRejectsNonPositiveChunkSize(t *testing.T) {
	gap := missingGap(testKey(fiscal.ModelNFe, 1))

	for _, size := range []int{0, -1} {
		_, err := ExportMissing(gap, filepath.Join(t.TempDir(), "saida"), size)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chunk size must be positive")
	}
}

func TestExportMissingNothingToExport(t *testing.T) {
	key := testKey(fiscal.ModelNFe, 1)
	gap := Analyze(fiscal.NewKeySet(key), fiscal.NewKeySet(key))
	dir := t.TempDir()

	created, err := ExportMissing(gap, filepath.Join(dir, "saida"), 900)
	require.NoError(t, err)
	assert.Empty(t, created)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExportMissingKeysSortedWithinChunk(t *testing.T) {
	gap := missingGap(
		testKey(fiscal.ModelNFe, 30),
		testKey(fiscal.ModelNFe, 4),
		testKey(fiscal.ModelNFe, 17),
	)
	base := filepath.Join(t.TempDir(), "saida")

	created, err := ExportMissing(gap, base, 900)
	require.NoError(t, err)
	require.Len(t, created, 1)

	content, err := os.ReadFile(created[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	assert.Equal(t, []string{
		testKey(fiscal.ModelNFe, 4),
		testKey(fiscal.ModelNFe, 17),
		testKey(fiscal.ModelNFe, 30),
	}, lines)
}
