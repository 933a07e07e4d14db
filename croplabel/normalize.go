package croplabel

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel performs Unicode normalization, drops control characters and
// collapses internal whitespace. Case is preserved.
func NormalizeLabel(label string) string {
	normed := norm.NFKC.String(label)
	normed = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, normed)
	return strings.Join(strings.Fields(normed), " ")
}

// FoldKey returns the case-insensitive lookup key for a label.
func FoldKey(label string) string {
	normed := NormalizeLabel(label)
	if normed == "" {
		return ""
	}
	// Casers are stateful, so each call gets its own.
	return norm.NFC.String(cases.Fold().String(normed))
}
