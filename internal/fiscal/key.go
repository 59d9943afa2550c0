// =============================================================================
// EFD Reconcile - Fiscal Keys
// =============================================================================
//
// This package contains the shared vocabulary of the reconciliation engine:
// the 44-digit fiscal document access key, the set and adjacency-map types
// built from keys, and the field normalization helpers applied to matched
// records. It is imported by every pipeline stage and must not import any
// other internal package.
//
// KEY ANATOMY:
//   An access key is a string of exactly 44 ASCII digits. The two digits at
//   positions 21-22 (1-indexed) encode the document model, e.g. "55" for an
//   NF-e invoice and "57" for a CT-e transport bill. Keys are immutable
//   values; equality and hashing are by exact string content.
//
// =============================================================================

package fiscal

import (
	"maps"
	"slices"
)

// KeyLength is the exact digit count of a fiscal document access key.
const KeyLength = 44

// Document-model codes referenced directly by the engine.
const (
	// ModelNFe identifies an electronic invoice (Nota Fiscal Eletrônica).
	ModelNFe = "55"

	// ModelCTe identifies an electronic transport bill
	// (Conhecimento de Transporte Eletrônico).
	ModelCTe = "57"
)

// =============================================================================
// KEY OPERATIONS
// =============================================================================

// StripNonDigits returns s with every non-digit character removed.
// The common case (already all digits) returns s without allocating.
func StripNonDigits(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// IsWellFormed reports whether key consists of exactly 44 ASCII digits.
func IsWellFormed(key string) bool {
	if len(key) != KeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeKey strips non-digit characters from raw and reports whether the
// result is a well-formed key. Callers must ignore the returned string when
// ok is false.
func NormalizeKey(raw string) (key string, ok bool) {
	key = StripNonDigits(raw)
	return key, len(key) == KeyLength
}

// ModelCode returns the 2-digit document-model code embedded at positions
// 21-22 of the key, or "" when the key is too short to carry one.
func ModelCode(key string) string {
	if len(key) < 22 {
		return ""
	}
	return key[20:22]
}

// IsModel reports whether key has the full 44-digit length and carries the
// given document-model code.
func IsModel(key, model string) bool {
	return len(key) == KeyLength && key[20:22] == model
}

// =============================================================================
// KEY SET
// =============================================================================

// KeySet is an unordered set of document keys.
type KeySet map[string]struct{}

// NewKeySet builds a set from the given keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts key into the set.
func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}

// Contains reports whether key is in the set.
func (s KeySet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Merge unions other into s.
func (s KeySet) Merge(other KeySet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Clone returns an independent copy of the set.
func (s KeySet) Clone() KeySet {
	return maps.Clone(s)
}

// Sorted returns the keys in lexicographic order.
func (s KeySet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap relates a document key to the set of keys it references. It is the
// adjacency representation shared by the cargo-note and complementary graphs.
type KeyMap map[string]KeySet

// Insert records member in the set owned by key, creating the set on first use.
func (m KeyMap) Insert(key, member string) {
	set, ok := m[key]
	if !ok {
		set = make(KeySet)
		m[key] = set
	}
	set.Add(member)
}

// InsertAll records every member in the set owned by key.
func (m KeyMap) InsertAll(key string, members KeySet) {
	set, ok := m[key]
	if !ok {
		set = make(KeySet, len(members))
		m[key] = set
	}
	set.Merge(members)
}

// Merge unions every entry of other into m. Merging is commutative and
// associative, which is what lets partial maps built by parallel workers
// collapse into one result regardless of completion order.
func (m KeyMap) Merge(other KeyMap) {
	for key, members := range other {
		m.InsertAll(key, members)
	}
}

// TotalMembers returns the summed cardinality of all member sets.
func (m KeyMap) TotalMembers() int {
	total := 0
	for _, members := range m {
		total += len(members)
	}
	return total
}

// SortedKeys returns the map's keys in lexicographic order.
func (m KeyMap) SortedKeys() []string {
	return slices.Sorted(maps.Keys(m))
}
