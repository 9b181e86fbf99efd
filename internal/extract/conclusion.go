package extract

import (
	"fmt"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/textnorm"
)

// Conclusion parses the <output><conclusion> verdict block. Candidates are
// only collected for posts judged to be propaganda.
func Conclusion(raw []byte) (domain.Conclusion, error) {
	text := Text(raw)

	output, ok := Tag(text, TagOutput)
	if !ok {
		return domain.Conclusion{}, fmt.Errorf("%w: no %s block", ErrMalformedResponse, TagOutput)
	}
	block, ok := Tag(output, TagConclusion)
	if !ok {
		return domain.Conclusion{}, fmt.Errorf("%w: no %s block", ErrMalformedResponse, TagConclusion)
	}

	postID, okID := Tag(block, TagPostID)
	decision, okDecision := Tag(block, TagDecision)
	party, okParty := Tag(block, TagResponsible)
	if !okID || !okDecision || !okParty {
		return domain.Conclusion{}, fmt.Errorf("%w: incomplete conclusion", ErrMalformedResponse)
	}

	c := domain.Conclusion{
		PostID:           postID,
		IsPropaganda:     decision == "TRUE",
		ResponsibleParty: textnorm.CanonicalEntity(party),
	}
	if !c.IsPropaganda {
		return c, nil
	}

	for _, cand := range Tags(block, TagCandidate) {
		name, okName := Tag(cand, TagName)
		impact, okImpact := Tag(cand, TagImpact)
		if !okName || !okImpact {
			continue
		}
		c.Candidates = append(c.Candidates, domain.CandidateImpact{
			Name:   name,
			Impact: domain.Impact(impact),
		})
	}
	return c, nil
}
