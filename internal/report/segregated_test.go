package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sped-tools/efd-reconcile/internal/fiscal"
)

func TestSegregatedPartitionsByModel(t *testing.T) {
	nfe := testKey(fiscal.ModelNFe, 1)
	cte := testKey(fiscal.ModelCTe, 2)

	segregated := Segregated(fiscal.NewKeySet(nfe, cte, "123"))

	assert.Equal(t, fiscal.KeyMap{
		"55": fiscal.NewKeySet(nfe),
		"57": fiscal.NewKeySet(cte),
	}, segregated)
}

func TestWriteSegregatedRunningTotal(t *testing.T) {
	keys := fiscal.NewKeySet()
	for i := range 1100 {
		keys.Add(testKey(fiscal.ModelNFe, i))
	}
	keys.Add(testKey(fiscal.ModelCTe, 1))
	keys.Add(testKey(fiscal.ModelCTe, 2))

	var out strings.Builder
	WriteSegregated(&out, "EFD Contribuições", keys, false)

	text := out.String()
	assert.Contains(t, text, "--- Key report: EFD Contribuições ---")
	assert.Contains(t, text, "model 55 : Nota Fiscal Eletrônica: NF-e")
	assert.Contains(t, text, "model 57 : Conhecimento de Transporte Eletrônico: CT-e")
	// Model 55 prints first, so its line carries the grouped count and the
	// CT-e line carries the grand total.
	assert.Contains(t, text, "1.100")
	assert.Contains(t, text, "1.102")
	assert.NotContains(t, text, "->")
}

func TestWriteSegregatedKeyDetail(t *testing.T) {
	first := testKey(fiscal.ModelNFe, 1)
	second := testKey(fiscal.ModelNFe, 2)

	var out strings.Builder
	WriteSegregated(&out, "Documentos Fiscais", fiscal.NewKeySet(second, first), true)

	text := out.String()
	assert.Contains(t, text, "Key detail:")
	firstIdx := strings.Index(text, "  -> "+first)
	secondIdx := strings.Index(text, "  -> "+second)
	assert.Greater(t, firstIdx, 0)
	assert.Greater(t, secondIdx, firstIdx)
}
