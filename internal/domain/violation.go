package domain

// ExtractedViolation is what the classifier output says about one ad.
type ExtractedViolation struct {
	Entity    string
	Narrative string
	AdID      string
}

// ClassificationStatus tracks an ad through the classify stage.
type ClassificationStatus string

const (
	StatusClassified ClassificationStatus = "classified"
	StatusFailed     ClassificationStatus = "failed"
	StatusSkipped    ClassificationStatus = "skipped"
)

// Impact is the direction of a post's effect on a candidate.
type Impact string

const (
	ImpactPositive Impact = "POSITIVE"
	ImpactNegative Impact = "NEGATIVE"
)

// CandidateImpact names a candidate affected by a propaganda post.
type CandidateImpact struct {
	Name   string `json:"name"`
	Impact Impact `json:"impact"`
}

// Conclusion is the structured verdict block of a classifier response.
type Conclusion struct {
	PostID           string
	IsPropaganda     bool
	ResponsibleParty string
	Candidates       []CandidateImpact
}
