// Package grading scores parsed classifier verdicts against ad metadata and
// summarises violations, false positives and candidate impact.
package grading

import (
	"math"
	"sort"
	"time"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
)

// TopCandidates is how many candidates each impact side lists.
const TopCandidates = 5

// Entry is one verdict joined with its ad metadata.
type Entry struct {
	PostID       string                   `json:"post_id"`
	Party        string                   `json:"responsible_party"`
	IsPropaganda bool                     `json:"is_propaganda"`
	Candidates   []domain.CandidateImpact `json:"candidates"`
	Reach        float64                  `json:"reach"`
	Spend        float64                  `json:"spend"`
	Currency     string                   `json:"currency"`
	StartDate    *string                  `json:"start_date"`
	EndDate      *string                  `json:"end_date"`
	HasMetadata  bool                     `json:"-"`
}

// Weight is the impact weight of the post: reach times spend over a million.
func (e Entry) Weight() float64 {
	return e.Reach * e.Spend / 1e6
}

// Summary is the document written to analysis_summary.json.
type Summary struct {
	AnalysisTimestamp string            `json:"analysis_timestamp"`
	Violations        ViolationsSummary `json:"violations_summary"`
	Impact            ImpactAnalysis    `json:"impact_analysis"`
}

// ViolationsSummary counts confirmed violations and false positives.
type ViolationsSummary struct {
	TotalAnalyzed         int                `json:"total_analyzed"`
	TotalViolations       int                `json:"total_violations"`
	TotalFalsePositives   int                `json:"total_false_positives"`
	FalsePositiveRate     float64            `json:"false_positive_rate"`
	ViolationsByParty     map[string]int     `json:"violations_by_party"`
	FalsePositivesByParty map[string]int     `json:"false_positives_by_party"`
	PrecisionByParty      map[string]float64 `json:"precision_by_party"`
	TotalReach            float64            `json:"total_reach"`
	TotalSpend            float64            `json:"total_spend"`
	AvgSpendByParty       map[string]float64 `json:"avg_severity_by_party"`
	ReachByParty          map[string]float64 `json:"reach_by_party"`
}

// ImpactAnalysis splits candidate mentions by direction.
type ImpactAnalysis struct {
	Positive ImpactSide `json:"positive_impact"`
	Negative ImpactSide `json:"negative_impact"`
}

// ImpactSide totals one direction and ranks candidates by weight.
type ImpactSide struct {
	TotalSpend  float64          `json:"total_spend"`
	TotalReach  float64          `json:"total_reach"`
	TotalPosts  int              `json:"total_posts"`
	ByCandidate []CandidateScore `json:"by_candidate"`
}

// CandidateScore aggregates the posts mentioning one candidate.
type CandidateScore struct {
	Candidate   string   `json:"candidate"`
	TotalSpend  float64  `json:"total_spend"`
	TotalReach  float64  `json:"total_reach"`
	ImpactScore float64  `json:"impact_score"`
	Parties     []string `json:"parties"`
}

// Analyze builds the summary for entries.
func Analyze(entries []Entry, now time.Time) Summary {
	v := ViolationsSummary{
		TotalAnalyzed:         len(entries),
		ViolationsByParty:     map[string]int{},
		FalsePositivesByParty: map[string]int{},
		PrecisionByParty:      map[string]float64{},
		AvgSpendByParty:       map[string]float64{},
		ReachByParty:          map[string]float64{},
	}

	totalByParty := map[string]int{}
	spendByParty := map[string]float64{}
	for _, e := range entries {
		totalByParty[e.Party]++
		if !e.IsPropaganda {
			v.TotalFalsePositives++
			v.FalsePositivesByParty[e.Party]++
			continue
		}
		v.TotalViolations++
		v.ViolationsByParty[e.Party]++
		v.TotalReach += e.Reach
		v.TotalSpend += e.Spend
		v.ReachByParty[e.Party] += e.Reach
		spendByParty[e.Party] += e.Spend
	}

	if v.TotalAnalyzed > 0 {
		v.FalsePositiveRate = float64(v.TotalFalsePositives) / float64(v.TotalAnalyzed)
	}
	for party, total := range totalByParty {
		v.PrecisionByParty[party] = float64(v.ViolationsByParty[party]) / float64(total)
	}
	for party, n := range v.ViolationsByParty {
		v.AvgSpendByParty[party] = spendByParty[party] / float64(n)
	}

	return Summary{
		AnalysisTimestamp: now.Format("2006-01-02_15-04-05"),
		Violations:        v,
		Impact: ImpactAnalysis{
			Positive: impactSide(entries, domain.ImpactPositive),
			Negative: impactSide(entries, domain.ImpactNegative),
		},
	}
}

// FalsePositiveRates returns the per-party false positive percentage,
// rounded to two decimals.
func (v ViolationsSummary) FalsePositiveRates() map[string]float64 {
	rates := map[string]float64{}
	for party, fp := range v.FalsePositivesByParty {
		total := fp + v.ViolationsByParty[party]
		rates[party] = math.Round(float64(fp)/float64(total)*100*100) / 100
	}
	return rates
}

type candidateAcc struct {
	spend, reach, weight float64
	parties              map[string]struct{}
}

func impactSide(entries []Entry, impact domain.Impact) ImpactSide {
	var side ImpactSide
	acc := map[string]*candidateAcc{}

	for _, e := range entries {
		if !e.IsPropaganda {
			continue
		}
		for _, c := range e.Candidates {
			if c.Impact != impact {
				continue
			}
			side.TotalPosts++
			side.TotalSpend += e.Spend
			side.TotalReach += e.Reach

			a, ok := acc[c.Name]
			if !ok {
				a = &candidateAcc{parties: map[string]struct{}{}}
				acc[c.Name] = a
			}
			a.spend += e.Spend
			a.reach += e.Reach
			a.weight += e.Weight()
			a.parties[e.Party] = struct{}{}
		}
	}

	scores := make([]CandidateScore, 0, len(acc))
	for name, a := range acc {
		parties := make([]string, 0, len(a.parties))
		for p := range a.parties {
			parties = append(parties, p)
		}
		sort.Strings(parties)
		scores = append(scores, CandidateScore{
			Candidate:   name,
			TotalSpend:  a.spend,
			TotalReach:  a.reach,
			ImpactScore: math.Abs(a.weight),
			Parties:     parties,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].ImpactScore == scores[j].ImpactScore {
			return scores[i].Candidate < scores[j].Candidate
		}
		return scores[i].ImpactScore > scores[j].ImpactScore
	})
	if len(scores) > TopCandidates {
		scores = scores[:TopCandidates]
	}
	side.ByCandidate = scores
	return side
}
