package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

func testKey(model string, serial int) string {
	return fmt.Sprintf("35240112345678000190%s%022d", model, serial)
}

func TestAnalyzePartitionsAndDiffs(t *testing.T) {
	nfe1 := testKey(fiscal.ModelNFe, 1)
	nfe2 := testKey(fiscal.ModelNFe, 2)
	cte1 := testKey(fiscal.ModelCTe, 3)

	ledger := fiscal.NewKeySet(nfe1, nfe2, cte1)
	matched := fiscal.NewKeySet(nfe1, cte1)

	gap := Analyze(ledger, matched)

	assert.Equal(t, fiscal.NewKeySet(nfe1, nfe2), gap.Ledger["55"])
	assert.Equal(t, fiscal.NewKeySet(cte1), gap.Ledger["57"])
	assert.Equal(t, fiscal.NewKeySet(nfe1), gap.Matched["55"])
	assert.Equal(t, fiscal.KeyMap{"55": fiscal.NewKeySet(nfe2)}, gap.Missing)
	assert.Equal(t, 1, gap.MissingTotal())
	assert.Equal(t, []string{"55", "57"}, gap.Models())
}

// The union of the per-model missing sets must equal the global set
// difference, with nothing extra and nothing dropped.
func TestAnalyzeMissingUnionMatchesGlobalDifference(t *testing.T) {
	ledger := fiscal.NewKeySet()
	matched := fiscal.NewKeySet()
	for i := range 50 {
		model := fiscal.ModelNFe
		if i%3 == 0 {
			model = fiscal.ModelCTe
		}
		key := testKey(model, i)
		ledger.Add(key)
		if i%2 == 0 {
			matched.Add(key)
		}
	}

	gap := Analyze(ledger, matched)

	global := fiscal.NewKeySet()
	for key := range ledger {
		if !matched.Contains(key) {
			global.Add(key)
		}
	}
	assert.Equal(t, global, gap.AllMissing())
}

func TestAnalyzeExcludesShortKeys(t *testing.T) {
	ledger := fiscal.NewKeySet("123")

	gap := Analyze(ledger, fiscal.NewKeySet())

	assert.Empty(t, gap.Ledger)
	assert.Empty(t, gap.AllMissing())
}

func TestWriteBreakdown(t *testing.T) {
	ledger := fiscal.NewKeySet()
	matched := fiscal.NewKeySet()
	for i := range 1100 {
		key := testKey(fiscal.ModelNFe, i)
		ledger.Add(key)
		if i < 1000 {
			matched.Add(key)
		}
	}

	var out strings.Builder
	Analyze(ledger, matched).WriteBreakdown(&out)

	assert.Contains(t, out.String(),
		"[55] Nota Fiscal Eletrônica: NF-e: 1.100 keys, 1.000 matched, 100 missing")
}

func TestWriteMissingNoticeAllFound(t *testing.T) {
	key := testKey(fiscal.ModelNFe, 1)
	gap := Analyze(fiscal.NewKeySet(key), fiscal.NewKeySet(key))

	var out strings.Builder
	gap.WriteMissingNotice(&out, false)

	assert.Equal(t, "All ledger keys were found among the fiscal documents.\n", out.String())
}

func TestWriteMissingNoticeSingleKeyIsAlwaysListed(t *testing.T) {
	key := testKey(fiscal.ModelCTe, 7)
	gap := Analyze(fiscal.NewKeySet(key), fiscal.NewKeySet())

	var out strings.Builder
	gap.WriteMissingNotice(&out, false)

	text := out.String()
	assert.Contains(t, text, "1 ledger key was not found")
	assert.Contains(t, text, key)
	assert.Contains(t, text, "Conhecimento de Transporte Eletrônico: CT-e")
}

func TestWriteMissingNoticeManyKeys(t *testing.T) {
	ledger := fiscal.NewKeySet()
	for i := range 3 {
		ledger.Add(testKey(fiscal.ModelNFe, i))
	}
	gap := Analyze(ledger, fiscal.NewKeySet())

	var quiet strings.Builder
	gap.WriteMissingNotice(&quiet, false)
	assert.Contains(t, quiet.String(), "3 ledger keys were not found")
	assert.NotContains(t, quiet.String(), testKey(fiscal.ModelNFe, 0))

	var chatty strings.Builder
	gap.WriteMissingNotice(&chatty, true)
	for i := range 3 {
		assert.Contains(t, chatty.String(), testKey(fiscal.ModelNFe, i))
	}
}

func TestWriteMissingNoticeListsInStableOrder(t *testing.T) {
	ledger := fiscal.NewKeySet(
		testKey(fiscal.ModelCTe, 2),
		testKey(fiscal.ModelNFe, 9),
		testKey(fiscal.ModelCTe, 1),
	)
	gap := Analyze(ledger, fiscal.NewKeySet())

	var out strings.Builder
	gap.WriteMissingNotice(&out, true)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	// Model 55 before 57, keys sorted within a model.
	assert.Contains(t, lines[1], testKey(fiscal.ModelNFe, 9))
	assert.Contains(t, lines[2], testKey(fiscal.ModelCTe, 1))
	assert.Contains(t, lines[3], testKey(fiscal.ModelCTe, 2))
}
