package usecase

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/adlib"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/grading"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/infrastructure/render/excel"
)

// GradeResult is the outcome of one grading run.
type GradeResult struct {
	Summary     grading.Summary
	Counts      grading.Counts
	SummaryPath string
	ChartsPath  string
}

// GradeStage scores verdicts against metadata and writes the summary and
// the charts workbook.
type GradeStage struct {
	grader   *grading.Grader
	metadata grading.Metadata
	topPages int
	logger   *slog.Logger
	now      func() time.Time
}

// NewGradeStage builds the stage. topPages bounds the per-page charts.
func NewGradeStage(metadata grading.Metadata, extensions []string, topPages int, logger *slog.Logger) *GradeStage {
	logger = orDefault(logger)
	return &GradeStage{
		grader:   grading.NewGrader(metadata, extensions, logger),
		metadata: metadata,
		topPages: topPages,
		logger:   logger,
		now:      time.Now,
	}
}

// Run grades every verdict in inputDir and writes into outputDir.
func (s *GradeStage) Run(inputDir, outputDir string) (GradeResult, error) {
	entries, counts, err := s.grader.Collect(inputDir)
	if err != nil {
		return GradeResult{}, err
	}
	if len(entries) == 0 {
		return GradeResult{Counts: counts}, fmt.Errorf("no verdicts to grade in %s", inputDir)
	}

	summary := grading.Analyze(entries, s.now())
	res := GradeResult{Summary: summary, Counts: counts}

	res.SummaryPath, err = grading.WriteSummary(outputDir, summary)
	if err != nil {
		return res, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return res, fmt.Errorf("create %s: %w", outputDir, err)
	}
	chartsPath := filepath.Join(outputDir, excel.ChartsFileName)
	if err := excel.WriteCharts(chartsPath, s.charts(summary)); err != nil {
		return res, err
	}
	res.ChartsPath = chartsPath

	s.logger.Info("grading finished",
		"analyzed", summary.Violations.TotalAnalyzed,
		"violations", summary.Violations.TotalViolations,
		"false_positives", summary.Violations.TotalFalsePositives)
	return res, nil
}

func (s *GradeStage) charts(summary grading.Summary) []excel.BarChart {
	v := summary.Violations

	spend := map[string]float64{}
	impressions := map[string]float64{}
	for _, raw := range s.metadata {
		ad := adlib.FromRaw(raw)
		page := ad.PageName
		if page == "" {
			page = "unknown"
		}
		if ad.Spend != nil {
			spend[page] += ad.Spend.Average
		}
		if ad.Impressions != nil {
			impressions[page] += ad.Impressions.Average
		}
	}

	counts := make(map[string]float64, len(v.ViolationsByParty))
	for party, n := range v.ViolationsByParty {
		counts[party] = float64(n)
	}

	return []excel.BarChart{
		pageChart("Top spend", "Spend by page", "spend", spend, s.topPages),
		pageChart("Top impressions", "Impressions by page", "impressions", impressions, s.topPages),
		partyChart("Violations", "Violations by party", "violations", counts),
		partyChart("Reach", "Total reach by party", "reach", v.ReachByParty),
		partyChart("Spend", "Average spend by party", "spend", v.AvgSpendByParty),
		partyChart("False positives", "False positive rate by party (%)", "rate", v.FalsePositiveRates()),
		partyChart("Precision", "Precision by party", "precision", v.PrecisionByParty),
	}
}

func pageChart(sheet, title, name string, totals map[string]float64, n int) excel.BarChart {
	labels := adlib.TopPages(totals, n)
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = totals[l]
	}
	return excel.BarChart{Sheet: sheet, Title: title, ValueName: name, Labels: labels, Values: values}
}

func partyChart(sheet, title, name string, byParty map[string]float64) excel.BarChart {
	labels := make([]string, 0, len(byParty))
	for p := range byParty {
		labels = append(labels, p)
	}
	sort.Strings(labels)
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = byParty[l]
	}
	return excel.BarChart{Sheet: sheet, Title: title, ValueName: name, Labels: labels, Values: values}
}
