package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/adlib"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/ports"
)

// PipelineDirs are the directories the chained stages hand files through.
type PipelineDirs struct {
	Analysis  string
	Complaint string
	Report    string
}

// PipelineDeps wires all stages into the end-to-end run.
type PipelineDeps struct {
	Scraper   *Scraper
	Classify  *ClassifyStage
	Complaint *ComplaintStage
	Report    *ReportStage
	Notifier  ports.Notifier
	Dirs      PipelineDirs
	Logger    *slog.Logger
}

// PipelineResult collects the per-stage results of one run.
type PipelineResult struct {
	Scrape    ScrapeResult
	Classify  ClassifyResult
	Complaint ComplaintResult
	Report    ReportResult
}

// Pipeline runs scrape, classify, complaint and report in order.
type Pipeline struct {
	scraper   *Scraper
	classify  *ClassifyStage
	complaint *ComplaintStage
	report    *ReportStage
	notifier  ports.Notifier
	dirs      PipelineDirs
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		scraper:   deps.Scraper,
		classify:  deps.Classify,
		complaint: deps.Complaint,
		report:    deps.Report,
		notifier:  deps.Notifier,
		dirs:      deps.Dirs,
		logger:    orDefault(deps.Logger),
	}
}

// Run executes every configured stage. A missing stage is skipped.
func (p *Pipeline) Run(ctx context.Context) (PipelineResult, error) {
	var res PipelineResult

	if p.scraper == nil {
		return res, fmt.Errorf("scrape stage is not configured")
	}
	scrape, err := p.scraper.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("scrape: %w", err)
	}
	res.Scrape = scrape

	raw, err := adlib.LoadAds(scrape.ResultsPath)
	if err != nil {
		return res, fmt.Errorf("load results: %w", err)
	}
	ads := make([]domain.Ad, 0, len(raw))
	for _, r := range raw {
		ads = append(ads, adlib.FromRaw(r))
	}

	if p.classify != nil {
		res.Classify, err = p.classify.Run(ctx, ads)
		if err != nil {
			return res, fmt.Errorf("classify: %w", err)
		}
	}

	if p.complaint != nil {
		res.Complaint, err = p.complaint.Run(ctx, p.dirs.Analysis, p.dirs.Complaint)
		if err != nil {
			return res, fmt.Errorf("complaint: %w", err)
		}
	}

	if p.report != nil {
		res.Report, err = p.report.Run(ctx, p.dirs.Analysis, p.dirs.Report, adlib.Index(raw))
		if err != nil {
			return res, fmt.Errorf("report: %w", err)
		}
	}

	if p.notifier != nil && res.Classify.Successful > 0 {
		if err := p.notifier.PublishDigest(ctx, buildDigestMessage(res)); err != nil {
			p.logger.Warn("publish digest", "error", err)
		}
	}

	return res, nil
}

func buildDigestMessage(res PipelineResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Observator run*\n")
	fmt.Fprintf(&b, "Ads scraped: %d (new in store: %d)\n", res.Scrape.Kept, res.Scrape.Stored)
	fmt.Fprintf(&b, "Classified: %d, failed: %d, skipped: %d\n",
		res.Classify.Successful, res.Classify.Failed, res.Classify.Skipped)
	fmt.Fprintf(&b, "Violations: %d across %d entities\n", res.Complaint.Items, res.Complaint.Entities)
	if res.Complaint.Path != "" {
		fmt.Fprintf(&b, "Complaint: %s\n", res.Complaint.Path)
	}
	if res.Report.Path != "" {
		fmt.Fprintf(&b, "Report: %s\n", res.Report.Path)
	}
	return b.String()
}
