package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/adlib"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/config"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/grading"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/infrastructure/apify"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/infrastructure/gemini"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/infrastructure/parser"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/infrastructure/render/latex"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/infrastructure/scheduler"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/infrastructure/storage"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/infrastructure/telegram"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/logging"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/ports"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/scanner"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/usecase"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/violations"
)

// Application wires configs to use cases. Adapters that need credentials or
// open files are built on first use so commands only pay for what they run.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	storeOnce sync.Once
	store     *storage.SQLiteRepository
	storeErr  error
}

// New builds an application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Close releases the ad store, if one was opened.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// Scrape fetches ads from every configured source and writes the results.
func (a *Application) Scrape(ctx context.Context) (usecase.ScrapeResult, error) {
	scraper, err := a.scraper(ctx)
	if err != nil {
		return usecase.ScrapeResult{}, err
	}
	return scraper.Run(ctx)
}

// MergeCSV merges Ad Library CSV exports into the enriched metadata file.
func (a *Application) MergeCSV(dir string, cutoff time.Time, out string) (int, error) {
	if out == "" {
		out = a.cfg.Grade.Metadata
	}
	ads, err := adlib.MergeCSV(dir, cutoff)
	if err != nil {
		return 0, err
	}
	if err := adlib.WriteEnriched(out, ads); err != nil {
		return 0, err
	}
	a.logger.Info("csv exports merged", "dir", dir, "ads", len(ads), "path", out)
	return len(ads), nil
}

// Classify sends the ads of a results file to the classifier. An empty path
// picks the newest results file.
func (a *Application) Classify(ctx context.Context, resultsPath string) (usecase.ClassifyResult, error) {
	raw, err := a.loadResults(resultsPath)
	if err != nil {
		return usecase.ClassifyResult{}, err
	}
	stage, err := a.classifyStage(ctx)
	if err != nil {
		return usecase.ClassifyResult{}, err
	}

	ads := make([]domain.Ad, 0, len(raw))
	for _, r := range raw {
		ads = append(ads, adlib.FromRaw(r))
	}
	return stage.Run(ctx, ads)
}

// Complaint aggregates responses and writes the LaTeX complaint.
func (a *Application) Complaint(ctx context.Context) (usecase.ComplaintResult, error) {
	stage, err := a.complaintStage()
	if err != nil {
		return usecase.ComplaintResult{}, err
	}
	return stage.Run(ctx, a.cfg.Paths.Analysis, a.cfg.Paths.Plangeri)
}

// Report joins responses with the ads of a results file and writes the
// workbook. An empty path picks the newest results file.
func (a *Application) Report(ctx context.Context, resultsPath string) (usecase.ReportResult, error) {
	raw, err := a.loadResults(resultsPath)
	if err != nil {
		return usecase.ReportResult{}, err
	}
	return a.reportStage().Run(ctx, a.cfg.Paths.Analysis, a.cfg.Paths.Reports, adlib.Index(raw))
}

// Grade scores verdicts against the enriched metadata.
func (a *Application) Grade() (usecase.GradeResult, error) {
	meta, err := grading.LoadMetadata(a.cfg.Grade.Metadata)
	if err != nil {
		return usecase.GradeResult{}, err
	}
	stage := usecase.NewGradeStage(meta, a.cfg.Complaint.Extensions, a.cfg.Grade.TopPages,
		a.logger.With("component", "grade"))
	return stage.Run(a.cfg.Paths.Analysis, a.cfg.Paths.Graphs)
}

// Run performs one end-to-end pipeline execution.
func (a *Application) Run(ctx context.Context) (usecase.PipelineResult, error) {
	pipeline, err := a.pipeline(ctx)
	if err != nil {
		return usecase.PipelineResult{}, err
	}
	return pipeline.Run(ctx)
}

// Watch reruns the pipeline on the configured interval until ctx is done.
func (a *Application) Watch(ctx context.Context) error {
	pipeline, err := a.pipeline(ctx)
	if err != nil {
		return err
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Schedule.Interval)
	sched := usecase.NewScheduler(driver, pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("watching", "interval", a.cfg.Schedule.Interval.String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return sched.Stop(stopCtx)
}

func (a *Application) pipeline(ctx context.Context) (*usecase.Pipeline, error) {
	scraper, err := a.scraper(ctx)
	if err != nil {
		return nil, err
	}
	classify, err := a.classifyStage(ctx)
	if err != nil {
		return nil, err
	}
	complaint, err := a.complaintStage()
	if err != nil {
		return nil, err
	}

	var notifier ports.Notifier
	if n := telegram.NewNotifier(a.cfg.Telegram, nil); n.Enabled() {
		notifier = n
	}

	return usecase.NewPipeline(usecase.PipelineDeps{
		Scraper:   scraper,
		Classify:  classify,
		Complaint: complaint,
		Report:    a.reportStage(),
		Notifier:  notifier,
		Dirs: usecase.PipelineDirs{
			Analysis:  a.cfg.Paths.Analysis,
			Complaint: a.cfg.Paths.Plangeri,
			Report:    a.cfg.Paths.Reports,
		},
		Logger: a.logger.With("component", "pipeline"),
	}), nil
}

func (a *Application) scraper(ctx context.Context) (*usecase.Scraper, error) {
	repo, err := a.repository(ctx)
	if err != nil {
		return nil, err
	}

	registry := scanner.NewRegistry()
	apifyClient := apify.NewClient(a.cfg.Apify, nil, a.logger.With("component", "apify"))
	registry.Register(parser.NewApifyScanner(apifyClient, a.cfg.Apify.Input, a.logger.With("component", "scanner.apify")))
	registry.Register(parser.NewCSVScanner("exports", a.logger.With("component", "scanner.csv")))

	source := parser.NewStrategySource(registry, a.cfg.Sources, a.logger.With("component", "source"))
	return usecase.NewScraper(source, repo, a.cfg.Paths.Results, a.logger.With("component", "scrape")), nil
}

func (a *Application) classifyStage(ctx context.Context) (*usecase.ClassifyStage, error) {
	prompts, err := gemini.LoadPrompts(a.cfg.Paths.Prompts)
	if err != nil {
		return nil, err
	}
	classifier, err := gemini.New(ctx, a.cfg.Gemini, prompts, a.cfg.Paths.Images, a.logger.With("component", "gemini"))
	if err != nil {
		return nil, err
	}
	repo, err := a.repository(ctx)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if rps := a.cfg.Classify.RequestsPerSecond; rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}

	return usecase.NewClassifyStage(
		usecase.ClassifyDeps{
			Classifier: classifier,
			Repository: repo,
			Limiter:    limiter,
			Logger:     a.logger.With("component", "classify"),
		},
		usecase.ClassifyOptions{
			OutputDir: a.cfg.Paths.Analysis,
			Workers:   a.cfg.Classify.Workers,
			MaxAds:    a.cfg.Classify.MaxAds,
		},
	), nil
}

func (a *Application) complaintStage() (*usecase.ComplaintStage, error) {
	renderer, err := latex.NewRenderer(a.cfg.Complaint)
	if err != nil {
		return nil, err
	}
	return usecase.NewComplaintStage(a.aggregator(), renderer, latex.FileName, a.logger.With("component", "complaint")), nil
}

func (a *Application) reportStage() *usecase.ReportStage {
	return usecase.NewReportStage(a.aggregator(), a.logger.With("component", "report"))
}

func (a *Application) aggregator() *violations.Aggregator {
	c := a.cfg.Complaint
	return violations.NewAggregator(violations.Options{
		Splitter:   c.Splitter(),
		GroupBy:    violations.GroupBy(c.GroupBy),
		Workers:    c.Workers,
		Extensions: c.Extensions,
	}, a.logger.With("component", "aggregator"))
}

// repository opens the SQLite store once. Without a DSN the stages run
// file-only and the returned repository is nil.
func (a *Application) repository(ctx context.Context) (ports.AdRepository, error) {
	if a.cfg.Store.DSN == "" {
		return nil, nil
	}
	a.storeOnce.Do(func() {
		a.store, a.storeErr = storage.Open(ctx, a.cfg.Store.DSN)
	})
	if a.storeErr != nil {
		return nil, fmt.Errorf("open ad store: %w", a.storeErr)
	}
	return a.store, nil
}

func (a *Application) loadResults(path string) ([]map[string]any, error) {
	if path == "" {
		latest, err := adlib.LatestResults(a.cfg.Paths.Results)
		if err != nil {
			if errors.Is(err, adlib.ErrNoResults) {
				return nil, fmt.Errorf("%w: run scrape first", err)
			}
			return nil, err
		}
		path = latest
	}
	a.logger.Info("loading results", "path", path)
	return adlib.LoadAds(path)
}
