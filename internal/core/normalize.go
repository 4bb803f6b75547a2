package core

import (
	"strings"
	"unicode"
)

// zero-width and BOM runes that spreadsheet exports smuggle into names.
var zeroWidth = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true, // zero width non-joiner
	'\u200d': true, // zero width joiner
	'\ufeff': true, // byte order mark
}

// normalizeName canonicalizes a department name for matching: control and
// zero-width characters are stripped, runs of whitespace collapse to one
// space, and the result is case-folded. Imported spreadsheets routinely
// carry invisible characters that would otherwise break the lookup.
func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsControl(r) || zeroWidth[r]:
			continue
		case unicode.IsSpace(r):
			space = true
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
