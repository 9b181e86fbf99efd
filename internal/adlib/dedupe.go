package adlib

import (
	"sort"
	"strings"
	"time"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
)

// Dedupe keeps the first record for every archive ID. Records without an ID
// are dropped. The second return counts everything removed.
func Dedupe(ads []map[string]any) ([]map[string]any, int) {
	seen := make(map[string]struct{}, len(ads))
	unique := make([]map[string]any, 0, len(ads))
	for _, ad := range ads {
		id := ID(ad)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, ad)
	}
	return unique, len(ads) - len(unique)
}

// Summarize counts ads per query, page and creation day.
func Summarize(ads []map[string]any) domain.AdsSummary {
	summary := domain.AdsSummary{
		ByQuery: map[string]int{},
		ByPage:  map[string]int{},
		ByDate:  map[string]int{},
	}
	for _, ad := range ads {
		summary.ByQuery[orUnknown(stringField(ad, "query"))]++
		summary.ByPage[orUnknown(stringField(ad, "page_name"))]++
		if day, _, _ := strings.Cut(stringField(ad, "ad_creation_time"), "T"); day != "" {
			summary.ByDate[day]++
		}
	}
	return summary
}

// Process de-duplicates ads and wraps them with run metadata and summaries.
func Process(ads []map[string]any, now time.Time) (domain.ProcessedAds, int) {
	unique, dropped := Dedupe(ads)

	queries := map[string]struct{}{}
	for _, ad := range unique {
		queries[stringField(ad, "query")] = struct{}{}
	}

	return domain.ProcessedAds{
		Metadata: domain.ResultsMetadata{
			Timestamp:  now.UTC(),
			TotalAds:   len(unique),
			QueryCount: len(queries),
		},
		Ads:     unique,
		Summary: Summarize(unique),
	}, dropped
}

// Index maps archive IDs to parsed ads. The first record wins.
func Index(ads []map[string]any) map[string]domain.Ad {
	out := make(map[string]domain.Ad, len(ads))
	for _, raw := range ads {
		id := ID(raw)
		if id == "" {
			continue
		}
		if _, ok := out[id]; ok {
			continue
		}
		out[id] = FromRaw(raw)
	}
	return out
}

// TopPages returns up to n page names ordered by value, highest first.
func TopPages(totals map[string]float64, n int) []string {
	pages := make([]string, 0, len(totals))
	for page := range totals {
		pages = append(pages, page)
	}
	sort.SliceStable(pages, func(i, j int) bool {
		if totals[pages[i]] == totals[pages[j]] {
			return pages[i] < pages[j]
		}
		return totals[pages[i]] > totals[pages[j]]
	})
	if n > 0 && len(pages) > n {
		pages = pages[:n]
	}
	return pages
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
