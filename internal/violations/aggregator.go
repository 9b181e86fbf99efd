package violations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/extract"
)

// DefaultExtensions are the response file types read by the aggregator.
var DefaultExtensions = []string{".json", ".xml"}

// Record is the contribution of one response file. Description is folded to
// ASCII; VerbatimDescription keeps the original diacritics and is empty when
// the phrase only matches after folding.
type Record struct {
	File                string
	AdID                string
	Entity              string
	Description         string
	VerbatimDescription string
}

// Options configures an Aggregator.
type Options struct {
	Splitter   Splitter
	GroupBy    GroupBy
	Workers    int
	Extensions []string
}

// Aggregator reads a directory of classifier responses and groups the
// violations they describe by responsible entity.
type Aggregator struct {
	splitter   Splitter
	groupBy    GroupBy
	workers    int
	extensions []string
	logger     *slog.Logger
}

// NewAggregator applies defaults to opts.
func NewAggregator(opts Options, logger *slog.Logger) *Aggregator {
	if opts.GroupBy == "" {
		opts.GroupBy = GroupRaw
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Aggregator{
		splitter:   opts.Splitter,
		groupBy:    opts.GroupBy,
		workers:    opts.Workers,
		extensions: opts.Extensions,
		logger:     logger,
	}
}

// AggregateDir groups every usable response file in dir.
func (a *Aggregator) AggregateDir(ctx context.Context, dir string) (*Groups, Result, error) {
	records, res, err := a.Records(ctx, dir)
	if err != nil {
		return nil, res, err
	}
	return a.Aggregate(records), res, nil
}

// Aggregate folds records into groups in slice order.
func (a *Aggregator) Aggregate(records []Record) *Groups {
	groups := NewGroups(a.groupBy)
	for _, r := range records {
		groups.Add(r.Entity, r.Description)
	}
	return groups
}

// Records returns one record per usable file in dir, ordered by filename.
// Unusable files are logged and counted; they never fail the batch.
func (a *Aggregator) Records(ctx context.Context, dir string) ([]Record, Result, error) {
	files, err := a.listFiles(dir)
	if err != nil {
		return nil, Result{}, err
	}

	outcomes := make([]outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = a.processFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Result{}, fmt.Errorf("read responses: %w", err)
	}

	var (
		records []Record
		res     Result
	)
	for i, o := range outcomes {
		res = res.Add(o.tally())
		switch {
		case o.err == nil:
			records = append(records, o.record)
		case errors.Is(o.err, ErrEmptyAfterSplit):
			a.logger.Debug("no violation description", "file", filepath.Base(files[i]))
		default:
			a.logger.Warn("skip response", "file", filepath.Base(files[i]), "error", o.err)
		}
	}
	return records, res, nil
}

type outcome struct {
	record Record
	err    error
}

func (o outcome) tally() Result {
	res := Result{Files: 1}
	switch {
	case o.err == nil:
		res.Extracted = 1
	case errors.Is(o.err, ErrEmptyAfterSplit):
		res.Extracted = 1
		res.EmptySplit = 1
	case errors.Is(o.err, extract.ErrMalformedResponse):
		res.Malformed = 1
	default:
		res.ReadErrors = 1
	}
	return res
}

func (a *Aggregator) processFile(path string) outcome {
	raw, err := os.ReadFile(path)
	if err != nil {
		return outcome{err: fmt.Errorf("read %s: %w", filepath.Base(path), err)}
	}

	v, ok := extract.Violation(raw)
	if !ok {
		return outcome{err: extract.ErrMalformedResponse}
	}

	_, description := a.splitter.Split(v.Narrative)
	if description == "" {
		return outcome{err: ErrEmptyAfterSplit}
	}

	_, verbatim := a.splitter.SplitVerbatim(v.Narrative)

	adID := v.AdID
	if adID == "" {
		adID = extract.AdIDFromFilename(filepath.Base(path))
	}
	return outcome{record: Record{
		File:                filepath.Base(path),
		AdID:                adID,
		Entity:              v.Entity,
		Description:         description,
		VerbatimDescription: verbatim,
	}}
}

func (a *Aggregator) listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list responses in %s: %w", dir, err)
	}

	// os.ReadDir sorts by filename, which pins processing order.
	var files []string
	for _, e := range entries {
		if e.IsDir() || !a.accepts(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func (a *Aggregator) accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range a.extensions {
		if ext == want {
			return true
		}
	}
	return false
}
