package violations

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitterSplit(t *testing.T) {
	t.Parallel()

	s := NewSplitter(PhraseParliamentary, DefaultPatches)

	entity, description := s.Split("Partidul X" + PhraseParliamentary + " distribuirea a 50 de reclame.")
	assert.Equal(t, "Partidul X", entity)
	assert.Equal(t, "distribuirea a 50 de reclame.", description)
}

func TestSplitterAppliesDatePatch(t *testing.T) {
	t.Parallel()

	s := NewSplitter(PhraseParliamentary, DefaultPatches)

	_, description := s.Split("PNL" + PhraseParliamentary + " reclama activa la 23.11.2024, vazuta si pe 23.11.2024 seara.")
	assert.Equal(t, "reclama activa la 30.11.2024, vazuta si pe 30.11.2024 seara.", description)

	// The entity part is never patched.
	entity, _ := s.Split("Grupul 23.11.2024" + PhraseParliamentary + " ceva")
	assert.Equal(t, "Grupul 23.11.2024", entity)
}

func TestSplitterPhraseMissing(t *testing.T) {
	t.Parallel()

	s := NewSplitter(PhraseParliamentary, DefaultPatches)

	entity, description := s.Split("  Partidul Y a distribuit reclame  ")
	assert.Equal(t, "  Partidul Y a distribuit reclame  ", entity)
	assert.Empty(t, description)
}

func TestSplitterFoldsDiacritics(t *testing.T) {
	t.Parallel()

	s := NewSplitter(PhraseParliamentary, nil)

	entity, description := s.Split("Alianța X, pentru încălcarea articolului 98 t) din LEGEA nr. 208 din 20 iulie 2015, prin postări plătite.")
	assert.Equal(t, "Alianta X", entity)
	assert.Equal(t, "postari platite.", description)
}

func TestSplitterVerbatimKeepsDiacritics(t *testing.T) {
	t.Parallel()

	s := NewSplitter(PhraseParliamentary, DefaultPatches)

	entity, description := s.SplitVerbatim("Alianța X" + PhraseParliamentary + " postări plătite pe 23.11.2024.")
	assert.Equal(t, "Alianța X", entity)
	assert.Equal(t, "postări plătite pe 30.11.2024.", description)

	_, description = s.SplitVerbatim("Alianța X, pentru încălcarea articolului 98 t) din LEGEA nr. 208 din 20 iulie 2015, prin postări.")
	assert.Empty(t, description)
}

func TestSplitterSplitsOnFirstOccurrence(t *testing.T) {
	t.Parallel()

	s := NewSplitter(PhrasePresidential, nil)

	_, description := s.Split("A" + PhrasePresidential + " one" + PhrasePresidential + " two")
	assert.Equal(t, "one"+PhrasePresidential+" two", description)
}

func TestSplitterEmptyDescription(t *testing.T) {
	t.Parallel()

	s := NewSplitter(PhraseParliamentary, nil)

	_, description := s.Split("Partidul Z" + PhraseParliamentary + "   ")
	assert.Empty(t, description)
}
