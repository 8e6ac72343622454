package sku

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	zwnj    = '\u200c'
	tatweel = '\u0640'
)

// persianFold maps Arabic code points that keyboards commonly emit to their
// Persian equivalents and Persian/Arabic-Indic digits to ASCII digits.
var persianFold = runes.Map(func(r rune) rune {
	switch {
	case r == '\u064a' || r == '\u0649': // Arabic yeh, alef maksura
		return '\u06cc'
	case r == '\u0643': // Arabic kaf
		return '\u06a9'
	case r == zwnj:
		return ' '
	case r >= '\u06f0' && r <= '\u06f9':
		return '0' + (r - '\u06f0')
	case r >= '\u0660' && r <= '\u0669':
		return '0' + (r - '\u0660')
	}
	return r
})

var dropTatweel = runes.Remove(runes.Predicate(func(r rune) bool { return r == tatweel }))

// Normalize prepares a user-entered attribute value for table lookup.
// Internal whitespace runs (including ZWNJ) collapse to one space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFC, dropTatweel, persianFold)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// NormalizeCode returns the 3-digit ASCII form of a model or color code and
// whether it is well formed. "۲۳۰" becomes "230".
func NormalizeCode(s string) (string, bool) {
	c := Normalize(s)
	if len(c) != 3 {
		return c, false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < '0' || c[i] > '9' {
			return c, false
		}
	}
	return c, true
}
