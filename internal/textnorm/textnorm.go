// Package textnorm canonicalizes free text for grouping and for ASCII-only
// downstream consumers.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldASCII decomposes s, drops combining marks and removes whatever is left
// outside the ASCII range.
func FoldASCII(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return asciiOnly(s)
	}
	return out
}

// Normalize folds s to ASCII, keeps only letters, digits and whitespace and
// collapses whitespace runs into single spaces.
func Normalize(s string) string {
	folded := FoldASCII(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CanonicalEntity is the grouping key for responsible parties. Uppercasing
// runs after folding so compatibility forms such as ligatures end up upper
// case too.
func CanonicalEntity(s string) string {
	return strings.ToUpper(Normalize(s))
}

func asciiOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
