package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/scanner"
)

// ActorRunner executes the Ad Library actor and returns its dataset items.
type ActorRunner interface {
	RunActor(ctx context.Context, input []byte) ([]map[string]any, error)
}

// ApifyScanner scrapes the Meta Ad Library through an Apify actor run. The
// actor input is read from a JSON file (search URLs, count, filters).
type ApifyScanner struct {
	runner       ActorRunner
	defaultInput string
	logger       *slog.Logger
}

var _ scanner.Scanner = (*ApifyScanner)(nil)

// NewApifyScanner wires the runner with the default actor input file.
func NewApifyScanner(runner ActorRunner, defaultInput string, logger *slog.Logger) *ApifyScanner {
	return &ApifyScanner{runner: runner, defaultInput: defaultInput, logger: logger}
}

func (s *ApifyScanner) Name() string { return "apify" }

// Scan runs the actor with the input file named by the "input" option.
func (s *ApifyScanner) Scan(ctx context.Context, req scanner.Request) ([]map[string]any, error) {
	if s.runner == nil {
		return nil, fmt.Errorf("apify runner is not configured")
	}

	path := req.Option("input", s.defaultInput)
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actor input: %w", err)
	}
	if !json.Valid(input) {
		return nil, fmt.Errorf("actor input %s is not valid JSON", path)
	}

	if s.logger != nil {
		s.logger.Info("running actor", "source", req.SourceName, "input", path)
	}
	return s.runner.RunActor(ctx, input)
}
