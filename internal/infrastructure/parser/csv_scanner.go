package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/adlib"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/scanner"
)

// CSVScanner loads Ad Library report exports from a directory.
type CSVScanner struct {
	defaultDir string
	logger     *slog.Logger
}

var _ scanner.Scanner = (*CSVScanner)(nil)

// NewCSVScanner builds a scanner reading defaultDir unless a request sets "dir".
func NewCSVScanner(defaultDir string, logger *slog.Logger) *CSVScanner {
	return &CSVScanner{defaultDir: defaultDir, logger: logger}
}

func (s *CSVScanner) Name() string { return "csv" }

// Scan merges every CSV under the "dir" option. The optional "cutoff" option
// (YYYY-MM-DD) drops ads whose delivery stopped earlier.
func (s *CSVScanner) Scan(_ context.Context, req scanner.Request) ([]map[string]any, error) {
	dir := req.Option("dir", s.defaultDir)

	var cutoff time.Time
	if raw := req.Option("cutoff", ""); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, fmt.Errorf("parse cutoff %q: %w", raw, err)
		}
		cutoff = parsed
	}

	rows, err := adlib.MergeCSV(dir, cutoff)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Debug("csv exports loaded", "source", req.SourceName, "dir", dir, "rows", len(rows))
	}
	return rows, nil
}
