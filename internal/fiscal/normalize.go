package fiscal

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// multiSpace matches any run of two or more whitespace characters.
var multiSpace = regexp.MustCompile(`\s{2,}`)

// NormalizeSpaces collapses every run of two or more whitespace characters
// into a single space. Matched records are normalized field by field before
// staging, and merged lines are normalized again before hashing, so the
// dedup hash never distinguishes rows that differ only in padding.
func NormalizeSpaces(s string) string {
	if !multiSpace.MatchString(s) {
		return s
	}
	return multiSpace.ReplaceAllString(s, " ")
}

// ParseValue parses a monetary amount as exported by the fiscal-document
// tooling, which writes Brazilian notation ("1.234,56"). Plain dot-decimal
// input is accepted as well. Returns ok=false for empty or unparseable
// input; callers treat those as absent values, never as errors.
func ParseValue(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
