package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Accounting", "accounting"},
		{"trims edges", "  Accounting  ", "accounting"},
		{"collapses runs", "Human \t Resources", "human resources"},
		{"case folds", "IT DEPARTMENT", "it department"},
		{"strips zero width space", "Account\u200bing", "accounting"},
		{"strips bom", "\ufeffAccounting", "accounting"},
		{"strips control runes", "Account\u0007ing\n", "accounting"},
		{"empty", "", ""},
		{"only junk", " \u200b\u200c \t ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeName(tc.in))
		})
	}
}

func TestNormalizeName_SpreadsheetVariantsMatch(t *testing.T) {
	// The same department exported three different ways must collapse to a
	// single lookup key.
	canonical := normalizeName("Radiology Department")
	assert.Equal(t, canonical, normalizeName("radiology\u200b department"))
	assert.Equal(t, canonical, normalizeName("  RADIOLOGY\tDEPARTMENT "))
}
