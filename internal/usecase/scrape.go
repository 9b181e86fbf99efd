package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/adlib"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/ports"
)

// ScrapeResult reports where a scrape run wrote its files.
type ScrapeResult struct {
	ResultsPath string
	SummaryPath string
	Fetched     int
	Kept        int
	Dropped     int
	Stored      int
}

// Scraper fetches ads from every source and writes the results document.
type Scraper struct {
	source     ports.AdSource
	repository ports.AdRepository
	resultsDir string
	logger     *slog.Logger
	now        func() time.Time
}

// NewScraper wires the source with the optional repository.
func NewScraper(source ports.AdSource, repository ports.AdRepository, resultsDir string, logger *slog.Logger) *Scraper {
	return &Scraper{
		source:     source,
		repository: repository,
		resultsDir: resultsDir,
		logger:     orDefault(logger),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run fetches, de-duplicates, writes and (when a repository is set) stores ads.
func (s *Scraper) Run(ctx context.Context) (ScrapeResult, error) {
	if s.source == nil {
		return ScrapeResult{}, fmt.Errorf("ad source is not configured")
	}

	raw, err := s.source.FetchAds(ctx)
	if err != nil {
		return ScrapeResult{}, fmt.Errorf("fetch ads: %w", err)
	}

	now := s.now()
	processed, dropped := adlib.Process(raw, now)
	s.logger.Info("ads processed", "fetched", len(raw), "kept", len(processed.Ads), "dropped", dropped)

	resultsPath, summaryPath, err := adlib.WriteResults(s.resultsDir, processed, now)
	if err != nil {
		return ScrapeResult{}, err
	}

	res := ScrapeResult{
		ResultsPath: resultsPath,
		SummaryPath: summaryPath,
		Fetched:     len(raw),
		Kept:        len(processed.Ads),
		Dropped:     dropped,
	}

	if s.repository != nil {
		ads := make([]domain.Ad, 0, len(processed.Ads))
		for _, r := range processed.Ads {
			ads = append(ads, adlib.FromRaw(r))
		}
		stored, err := s.repository.SaveAds(ctx, ads)
		if err != nil {
			return res, fmt.Errorf("store ads: %w", err)
		}
		res.Stored = stored
	}

	return res, nil
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
