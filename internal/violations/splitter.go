// Package violations turns classifier responses into per-entity lists of
// violation descriptions.
package violations

import (
	"strings"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/textnorm"
)

// Law 208/2015 (parliamentary) and Law 370/2004 (presidential) citation phrases.
const (
	PhraseParliamentary = ", pentru incalcarea articolului 98 t) din LEGEA nr. 208 din 20 iulie 2015, prin"
	PhrasePresidential  = ", pentru incalcarea articolului 55 t) din Legea 370/2004, prin"
)

// Patch is a literal substitution applied to every description.
type Patch struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DefaultPatches corrects the analysis date the classifier was given in the
// parliamentary run.
var DefaultPatches = []Patch{{From: "23.11.2024", To: "30.11.2024"}}

// Splitter separates a police message into the offending entity and the
// description of the offence.
type Splitter struct {
	Phrase  string
	Patches []Patch
}

// NewSplitter builds a splitter for phrase with the given patches.
func NewSplitter(phrase string, patches []Patch) Splitter {
	return Splitter{Phrase: phrase, Patches: patches}
}

// Split folds narrative to ASCII and cuts it on the first occurrence of the
// citation phrase. Without the phrase the whole text is returned as the
// entity part and the description is empty.
func (s Splitter) Split(narrative string) (entityPart, description string) {
	return s.cut(textnorm.FoldASCII(narrative))
}

// SplitVerbatim cuts narrative like Split but keeps its diacritics, for
// outputs that are not typeset.
func (s Splitter) SplitVerbatim(narrative string) (entityPart, description string) {
	return s.cut(narrative)
}

func (s Splitter) cut(text string) (string, string) {
	if s.Phrase == "" {
		return text, ""
	}

	before, after, found := strings.Cut(text, s.Phrase)
	if !found {
		return text, ""
	}

	for _, p := range s.Patches {
		if p.From == "" {
			continue
		}
		after = strings.ReplaceAll(after, p.From, p.To)
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}
