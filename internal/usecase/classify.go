package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/ports"
)

// ClassifyResult counts ads per final status of one run.
type ClassifyResult struct {
	Successful int
	Failed     int
	Skipped    int
}

// Total is the number of ads the run looked at.
func (r ClassifyResult) Total() int {
	return r.Successful + r.Failed + r.Skipped
}

// ClassifyOptions bounds a classify run.
type ClassifyOptions struct {
	OutputDir string
	Workers   int
	MaxAds    int
}

// ClassifyDeps wires the driven adapters of the classify stage.
type ClassifyDeps struct {
	Classifier ports.Classifier
	Repository ports.AdRepository
	Limiter    *rate.Limiter
	Logger     *slog.Logger
}

// ClassifyStage sends every pending ad to the classifier and writes one
// response file per ad.
type ClassifyStage struct {
	classifier ports.Classifier
	repository ports.AdRepository
	limiter    *rate.Limiter
	logger     *slog.Logger
	opts       ClassifyOptions
}

// NewClassifyStage applies defaults to opts.
func NewClassifyStage(deps ClassifyDeps, opts ClassifyOptions) *ClassifyStage {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &ClassifyStage{
		classifier: deps.Classifier,
		repository: deps.Repository,
		limiter:    deps.Limiter,
		logger:     orDefault(deps.Logger),
		opts:       opts,
	}
}

// OutputPath is the response file for an ad.
func (s *ClassifyStage) OutputPath(adID string) string {
	return filepath.Join(s.opts.OutputDir, "ad_"+adID+".json")
}

// Run classifies ads with a bounded pool. Per-ad failures are counted and
// logged; only a cancelled context or an unusable output directory fails
// the run. Ads not reached before cancellation are left uncounted and
// unrecorded so the next run picks them up.
func (s *ClassifyStage) Run(ctx context.Context, ads []domain.Ad) (ClassifyResult, error) {
	if s.classifier == nil {
		return ClassifyResult{}, fmt.Errorf("classifier is not configured")
	}
	if err := os.MkdirAll(s.opts.OutputDir, 0o755); err != nil {
		return ClassifyResult{}, fmt.Errorf("create output dir: %w", err)
	}

	if s.opts.MaxAds > 0 && len(ads) > s.opts.MaxAds {
		ads = ads[:s.opts.MaxAds]
	}

	done, err := s.alreadyClassified(ctx, ads)
	if err != nil {
		return ClassifyResult{}, err
	}

	s.logger.Info("classify started", "ads", len(ads), "workers", s.opts.Workers)

	statuses := make([]domain.ClassificationStatus, len(ads))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, ad := range ads {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			statuses[i] = s.classifyOne(ctx, ad, done[ad.ArchiveID])
			return nil
		})
	}
	_ = g.Wait()

	var res ClassifyResult
	for _, st := range statuses {
		switch st {
		case domain.StatusClassified:
			res.Successful++
		case domain.StatusSkipped:
			res.Skipped++
		case domain.StatusFailed:
			res.Failed++
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	s.logger.Info("classify finished",
		"successful", res.Successful, "failed", res.Failed, "skipped", res.Skipped, "total", res.Total())
	return res, nil
}

func (s *ClassifyStage) alreadyClassified(ctx context.Context, ads []domain.Ad) (map[string]bool, error) {
	if s.repository == nil || len(ads) == 0 {
		return map[string]bool{}, nil
	}
	ids := make([]string, len(ads))
	for i, ad := range ads {
		ids[i] = ad.ArchiveID
	}
	done, err := s.repository.AlreadyClassified(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load classified: %w", err)
	}
	return done, nil
}

func (s *ClassifyStage) classifyOne(ctx context.Context, ad domain.Ad, stored bool) domain.ClassificationStatus {
	if ad.ArchiveID == "" {
		s.logger.Warn("ad without archive id")
		return domain.StatusFailed
	}

	out := s.OutputPath(ad.ArchiveID)
	if _, err := os.Stat(out); err == nil || stored {
		s.logger.Debug("already classified", "ad_id", ad.ArchiveID)
		return domain.StatusSkipped
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ""
			}
			return domain.StatusFailed
		}
	}

	status := domain.StatusClassified
	raw, err := s.classifier.Classify(ctx, ad)
	if err == nil {
		err = writeFileAtomic(out, raw)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ""
		}
		s.logger.Error("classify ad", "ad_id", ad.ArchiveID, "error", err)
		status = domain.StatusFailed
	} else {
		s.logger.Info("ad classified", "ad_id", ad.ArchiveID)
	}

	if s.repository != nil {
		if err := s.repository.MarkClassified(ctx, ad.ArchiveID, status); err != nil {
			s.logger.Warn("record classification", "ad_id", ad.ArchiveID, "error", err)
		}
	}
	return status
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
