package parser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/adlib"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/config"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/ports"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/scanner"
)

// StrategySource implements AdSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.AdSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// FetchAds runs every configured source in order and merges the records,
// keeping the first record seen per ad_archive_id.
func (s *StrategySource) FetchAds(ctx context.Context) ([]map[string]any, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch ads", "sources", len(s.sources))

	var aggregated []map[string]any
	for _, src := range s.sources {
		s.debug("process source", "source", src.Name, "scanner", src.Scanner)
		strategy, err := s.registry.Resolve(src.Scanner)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		results, err := strategy.Scan(ctx, scanner.Request{
			SourceName: src.Name,
			Options:    src.Options,
		})
		if err != nil {
			return nil, fmt.Errorf("scan source %s: %w", src.Name, err)
		}

		s.debug("source produced ads", "source", src.Name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	unique, dropped := adlib.Dedupe(aggregated)
	if s.logger != nil && dropped > 0 {
		s.logger.Info("removed duplicate ads", "dropped", dropped)
	}
	s.debug("strategy source done", "total_ads", len(unique))
	return unique, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
