package fiscal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSpaces(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no runs", "a b c", "a b c"},
		{"double space", "a  b", "a b"},
		{"long run", "a     b", "a b"},
		{"tabs count as whitespace", "a\t\tb", "a b"},
		{"mixed run", "a \t b", "a b"},
		{"multiple runs", "a  b   c", "a b c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSpaces(tt.in))
		})
	}
}

func TestParseValue(t *testing.T) {
	got, ok := ParseValue("1.234,56")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("1234.56")))

	got, ok = ParseValue("0,01")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("0.01")))

	// Dot-decimal input passes through untouched.
	got, ok = ParseValue("99.5")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("99.5")))

	_, ok = ParseValue("")
	assert.False(t, ok)

	_, ok = ParseValue("n/d")
	assert.False(t, ok)
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "Nota Fiscal Eletrônica: NF-e", ModelName("55"))
	assert.Equal(t, "Conhecimento de Transporte Eletrônico: CT-e", ModelName("57"))
	assert.Equal(t, "Nota Fiscal", ModelName("01"))
	assert.Equal(t, "Modelo Desconhecido", ModelName("99"))
	assert.Equal(t, "Modelo Desconhecido", ModelName(""))
}
