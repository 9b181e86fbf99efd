package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/extract"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/infrastructure/render/excel"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/violations"
)

const (
	pageURL      = "https://www.facebook.com/"
	adLibraryURL = "https://www.facebook.com/ads/library/?id="
)

// ReportResult describes one report run. Path is empty when no row matched.
type ReportResult struct {
	Path      string
	Rows      int
	Unmatched int
	Files     violations.Result
}

// ReportStage joins extracted violations with scraped ad metadata.
type ReportStage struct {
	aggregator *violations.Aggregator
	logger     *slog.Logger
}

// NewReportStage wires the aggregator used to read responses.
func NewReportStage(aggregator *violations.Aggregator, logger *slog.Logger) *ReportStage {
	return &ReportStage{aggregator: aggregator, logger: orDefault(logger)}
}

// Rows builds one row per violation whose ad is in ads. The ad ID comes
// from the response filename, falling back to the post_id marker. Summaries
// keep their diacritics unless the phrase only matched after folding.
func (s *ReportStage) Rows(ctx context.Context, inputDir string, ads map[string]domain.Ad) ([]excel.ReportRow, int, violations.Result, error) {
	records, files, err := s.aggregator.Records(ctx, inputDir)
	if err != nil {
		return nil, 0, files, err
	}

	var (
		rows      []excel.ReportRow
		unmatched int
	)
	for _, r := range records {
		id := extract.AdIDFromFilename(r.File)
		if id == "" {
			id = r.AdID
		}
		ad, ok := ads[id]
		if !ok {
			unmatched++
			s.logger.Debug("ad not in results", "ad_id", id, "file", r.File)
			continue
		}
		summary := r.VerbatimDescription
		if summary == "" {
			summary = r.Description
		}
		rows = append(rows, reportRow(ad, summary))
	}
	return rows, unmatched, files, nil
}

// Run writes the report workbook into outputDir.
func (s *ReportStage) Run(ctx context.Context, inputDir, outputDir string, ads map[string]domain.Ad) (ReportResult, error) {
	rows, unmatched, files, err := s.Rows(ctx, inputDir, ads)
	if err != nil {
		return ReportResult{}, err
	}

	res := ReportResult{Rows: len(rows), Unmatched: unmatched, Files: files}
	s.logger.Info("violations joined", "rows", res.Rows, "unmatched", unmatched, "files", files.Files)

	if len(rows) == 0 {
		s.logger.Warn("no valid violations found")
		return res, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return res, fmt.Errorf("create %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, excel.ReportFileName)
	if err := excel.WriteReport(path, rows); err != nil {
		return res, err
	}

	res.Path = path
	s.logger.Info("report written", "path", path)
	return res, nil
}

func reportRow(ad domain.Ad, summary string) excel.ReportRow {
	row := excel.ReportRow{
		PageName:    ad.PageName,
		AdsLink:     adLibraryURL + ad.ArchiveID,
		Spend:       ad.SpendText,
		Impressions: ad.ImpressionsText,
		StartDate:   ad.StartDate,
		EndDate:     ad.EndDate,
		Summary:     summary,
	}
	if ad.PageID != "" {
		row.PageLink = pageURL + ad.PageID
	}
	return row
}
