package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/ports"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/violations"
)

// ComplaintResult describes one complaint run. Path is empty when no
// violation survived and no document was written.
type ComplaintResult struct {
	Path     string
	Entities int
	Items    int
	Files    violations.Result
}

// ComplaintStage aggregates classifier responses and renders the complaint.
type ComplaintStage struct {
	aggregator *violations.Aggregator
	renderer   ports.ComplaintRenderer
	fileName   string
	logger     *slog.Logger
}

// NewComplaintStage wires the aggregator with a renderer writing fileName.
func NewComplaintStage(aggregator *violations.Aggregator, renderer ports.ComplaintRenderer, fileName string, logger *slog.Logger) *ComplaintStage {
	return &ComplaintStage{
		aggregator: aggregator,
		renderer:   renderer,
		fileName:   fileName,
		logger:     orDefault(logger),
	}
}

// Run reads responses from inputDir and writes the document to outputDir.
func (s *ComplaintStage) Run(ctx context.Context, inputDir, outputDir string) (ComplaintResult, error) {
	groups, files, err := s.aggregator.AggregateDir(ctx, inputDir)
	if err != nil {
		return ComplaintResult{}, err
	}

	res := ComplaintResult{Entities: groups.Len(), Items: groups.Total(), Files: files}
	s.logger.Info("responses aggregated",
		"files", files.Files, "extracted", files.Extracted, "malformed", files.Malformed,
		"empty_split", files.EmptySplit, "entities", res.Entities, "violations", res.Items)

	if groups.Len() == 0 {
		s.logger.Warn("no valid violations found")
		return res, nil
	}

	entities := groups.Entities()
	doc, err := s.renderer.Render(entities, groups.Map())
	if err != nil {
		return res, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return res, fmt.Errorf("create %s: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, s.fileName)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return res, fmt.Errorf("write complaint: %w", err)
	}

	res.Path = path
	s.logger.Info("complaint written", "path", path)
	return res, nil
}
