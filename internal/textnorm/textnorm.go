// Package textnorm canonicalizes free-text answers before comparison.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFC, Unicode case folding and whitespace collapsing.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Equal compares two strings after Normalize.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
