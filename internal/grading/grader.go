package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/extract"
)

// SummaryFileName is the JSON written by WriteSummary.
const SummaryFileName = "analysis_summary.json"

// Counts reports what a collection pass saw.
type Counts struct {
	Files           int
	Parsed          int
	Malformed       int
	MissingMetadata int
}

// Grader reads verdict files and joins them with metadata.
type Grader struct {
	metadata   Metadata
	extensions []string
	logger     *slog.Logger
}

// NewGrader builds a grader reading files with the given extensions.
func NewGrader(metadata Metadata, extensions []string, logger *slog.Logger) *Grader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Grader{metadata: metadata, extensions: extensions, logger: logger}
}

// Collect parses every verdict file in dir, in filename order.
func (g *Grader) Collect(dir string) ([]Entry, Counts, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, Counts{}, fmt.Errorf("list verdicts in %s: %w", dir, err)
	}

	var (
		entries []Entry
		counts  Counts
	)
	for _, de := range dirEntries {
		if de.IsDir() || !g.accepts(de.Name()) {
			continue
		}
		counts.Files++

		raw, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			g.logger.Warn("read verdict", "file", de.Name(), "error", err)
			continue
		}
		c, err := extract.Conclusion(raw)
		if err != nil {
			if errors.Is(err, extract.ErrMalformedResponse) {
				counts.Malformed++
			}
			g.logger.Debug("skip verdict", "file", de.Name(), "error", err)
			continue
		}

		e := Join(c, g.metadata)
		if !e.HasMetadata {
			counts.MissingMetadata++
			g.logger.Warn("no metadata for post", "post_id", c.PostID)
		}
		counts.Parsed++
		entries = append(entries, e)
	}
	return entries, counts, nil
}

func (g *Grader) accepts(name string) bool {
	if len(g.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range g.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// WriteSummary writes the summary as indented JSON into dir.
func WriteSummary(dir string, s Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	path := filepath.Join(dir, SummaryFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}
