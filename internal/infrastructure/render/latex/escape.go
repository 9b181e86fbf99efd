// Package latex renders grouped violations as a LaTeX complaint document.
package latex

import (
	"fmt"
	"regexp"
	"strings"
)

// AdLibraryURL is the public Ad Library page of a single ad.
const AdLibraryURL = "https://www.facebook.com/ads/library/?id="

var (
	digitRun = regexp.MustCompile(`\d+`)
	linkSpan = regexp.MustCompile(`\\url\{[^}]+\}|\\href\{[^}]+\}\{[^}]+\}`)
)

var specials = map[rune]string{
	'&':  `\&`,
	'%':  `\%`,
	'$':  `\$`,
	'#':  `\#`,
	'_':  `\_`,
	'{':  `\{`,
	'}':  `\}`,
	'~':  `\textasciitilde{}`,
	'^':  `\^{}`,
	'\\': `\textbackslash{}`,
}

// Escaper links ad IDs and escapes LaTeX special characters.
type Escaper struct {
	MinDigits int
	MaxDigits int
}

// LinkIDs wraps every standalone run of MinDigits..MaxDigits digits in an
// \href to the ad's Ad Library page.
func (e Escaper) LinkIDs(text string) string {
	return digitRun.ReplaceAllStringFunc(text, func(n string) string {
		if len(n) < e.MinDigits || len(n) > e.MaxDigits {
			return n
		}
		return fmt.Sprintf(`\href{%s%s}{%s}`, AdLibraryURL, n, n)
	})
}

// Escape links IDs, then escapes specials outside \url and \href spans.
func (e Escaper) Escape(text string) string {
	text = e.LinkIDs(text)

	var b strings.Builder
	last := 0
	for _, span := range linkSpan.FindAllStringIndex(text, -1) {
		escapeInto(&b, text[last:span[0]])
		b.WriteString(text[span[0]:span[1]])
		last = span[1]
	}
	escapeInto(&b, text[last:])
	return b.String()
}

func escapeInto(b *strings.Builder, s string) {
	for _, r := range s {
		if rep, ok := specials[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}
}
