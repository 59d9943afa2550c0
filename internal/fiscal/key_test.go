package fiscal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample keys used across the package tests. Model code sits at offset 20.
var (
	keyNFe = "35240112345678000190" + "55" + "0010000000011000000001"
	keyCTe = "35240198765432000109" + "57" + "0010000000012000000002"
)

func TestKeyFixturesAreWellFormed(t *testing.T) {
	require.Len(t, keyNFe, KeyLength)
	require.Len(t, keyCTe, KeyLength)
	require.True(t, IsWellFormed(keyNFe))
	require.True(t, IsWellFormed(keyCTe))
}

func TestStripNonDigits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "12345", "12345"},
		{"spaces and quotes", ` "  123 45 " `, "12345"},
		{"letters interleaved", "NFe35abc124", "35124"},
		{"empty", "", ""},
		{"only junk", "abc-: ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripNonDigits(tt.in))
		})
	}
}

func TestIsWellFormed(t *testing.T) {
	assert.True(t, IsWellFormed(strings.Repeat("4", 44)))
	assert.False(t, IsWellFormed(strings.Repeat("4", 43)))
	assert.False(t, IsWellFormed(strings.Repeat("4", 45)))
	assert.False(t, IsWellFormed(strings.Repeat("4", 43)+"x"))
	assert.False(t, IsWellFormed(""))
}

func TestNormalizeKey(t *testing.T) {
	got, ok := NormalizeKey("NFe: " + keyNFe)
	require.True(t, ok)
	assert.Equal(t, keyNFe, got)

	// Stripping may not rescue a key with the wrong digit count.
	_, ok = NormalizeKey(keyNFe + "9")
	assert.False(t, ok)

	_, ok = NormalizeKey("")
	assert.False(t, ok)
}

func TestModelCode(t *testing.T) {
	assert.Equal(t, "55", ModelCode(keyNFe))
	assert.Equal(t, "57", ModelCode(keyCTe))
	assert.Equal(t, "", ModelCode("too short"))
}

func TestIsModel(t *testing.T) {
	assert.True(t, IsModel(keyNFe, ModelNFe))
	assert.True(t, IsModel(keyCTe, ModelCTe))
	assert.False(t, IsModel(keyNFe, ModelCTe))

	// A correct model code is not enough when the length is wrong.
	assert.False(t, IsModel(keyNFe[:43], ModelNFe))
}

func TestKeySetOperations(t *testing.T) {
	s := NewKeySet("b", "a")
	s.Add("c")
	s.Add("c")

	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("z"))
	assert.Equal(t, []string{"a", "b", "c"}, s.Sorted())

	other := NewKeySet("c", "d")
	s.Merge(other)
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.Sorted())

	clone := s.Clone()
	clone.Add("e")
	assert.False(t, s.Contains("e"))
}

func TestKeyMapInsertAndMerge(t *testing.T) {
	m := make(KeyMap)
	m.Insert("k1", "v1")
	m.Insert("k1", "v2")
	m.Insert("k2", "v3")

	assert.Equal(t, 3, m.TotalMembers())
	assert.Equal(t, []string{"k1", "k2"}, m.SortedKeys())

	other := make(KeyMap)
	other.Insert("k1", "v9")
	other.Insert("k3", "v3")

	m.Merge(other)
	assert.Equal(t, []string{"v1", "v2", "v9"}, m["k1"].Sorted())
	assert.Equal(t, []string{"k1", "k2", "k3"}, m.SortedKeys())
}

// Merging partial maps must give the same result in any order, because the
// reference loader builds them on parallel workers.
func TestKeyMapMergeIsCommutative(t *testing.T) {
	build := func(order []KeyMap) KeyMap {
		out := make(KeyMap)
		for _, part := range order {
			out.Merge(part)
		}
		return out
	}

	a := KeyMap{"k1": NewKeySet("x")}
	b := KeyMap{"k1": NewKeySet("y"), "k2": NewKeySet("z")}
	c := KeyMap{"k2": NewKeySet("w")}

	ab := build([]KeyMap{a, b, c})
	ba := build([]KeyMap{c, b, a})
	assert.Equal(t, ab, ba)
}
