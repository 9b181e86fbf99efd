package domain

import "time"

// Bounds is a lower/upper range as reported by the Ad Library, with its midpoint.
type Bounds struct {
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	Average    float64 `json:"average"`
}

// NewBounds builds a range and fills in the midpoint.
func NewBounds(lower, upper float64) Bounds {
	return Bounds{LowerBound: lower, UpperBound: upper, Average: (lower + upper) / 2}
}

// Ad is one scraped advertisement record keyed by its archive ID.
type Ad struct {
	ArchiveID       string
	PageID          string
	PageName        string
	Query           string
	Spend           *Bounds
	SpendText       string
	Impressions     *Bounds
	ImpressionsText string
	Currency        string
	AudienceSize    string
	CreatedAt       string
	StartDate       string
	EndDate         string
	BodyText        string
	ImageURLs       []string
	Raw             map[string]any
}

// ProcessedAds is the document written after a scrape: metadata, ads and summary counts.
type ProcessedAds struct {
	Metadata ResultsMetadata  `json:"metadata"`
	Ads      []map[string]any `json:"ads"`
	Summary  AdsSummary       `json:"summary"`
}

// ResultsMetadata describes one scrape run.
type ResultsMetadata struct {
	Timestamp  time.Time `json:"timestamp"`
	TotalAds   int       `json:"total_ads"`
	QueryCount int       `json:"query_count"`
}

// AdsSummary counts ads per query, page and creation day.
type AdsSummary struct {
	ByQuery map[string]int `json:"by_query"`
	ByPage  map[string]int `json:"by_page"`
	ByDate  map[string]int `json:"by_date"`
}
