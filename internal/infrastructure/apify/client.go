// Package apify runs the Meta Ad Library scraper actor on the Apify platform.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/config"
)

// Actor run states reported by the platform.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
	StatusTimedOut  = "TIMED-OUT"
)

// ErrRunFailed is returned when the actor run ends in a terminal failure state.
var ErrRunFailed = errors.New("actor run failed")

// Run is the subset of the run object the client reads.
type Run struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

type runEnvelope struct {
	Data Run `json:"data"`
}

// Client talks to the Apify REST API for a single actor.
type Client struct {
	baseURL string
	actor   string
	token   string
	poll    time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a reusable client. A nil httpClient gets a default one.
func NewClient(cfg config.ApifyConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		actor:   cfg.Actor,
		token:   cfg.Token,
		poll:    poll,
		http:    httpClient,
		logger:  logger,
	}
}

// RunActor starts the actor with input, waits for it to finish and returns
// the dataset items it produced.
func (c *Client) RunActor(ctx context.Context, input []byte) ([]map[string]any, error) {
	if c.token == "" {
		return nil, fmt.Errorf("apify token is not configured")
	}

	run, err := c.StartRun(ctx, input)
	if err != nil {
		return nil, err
	}
	c.logger.Info("actor run started", "run_id", run.ID)

	run, err = c.WaitRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	items, err := c.DatasetItems(ctx, run.DefaultDatasetID)
	if err != nil {
		return nil, err
	}
	c.logger.Info("actor run finished", "run_id", run.ID, "items", len(items))
	return items, nil
}

// StartRun launches an asynchronous actor run.
func (c *Client) StartRun(ctx context.Context, input []byte) (Run, error) {
	var env runEnvelope
	if err := c.do(ctx, http.MethodPost, c.actorPath("runs"), input, &env); err != nil {
		return Run{}, fmt.Errorf("start run: %w", err)
	}
	if env.Data.ID == "" {
		return Run{}, fmt.Errorf("start run: response has no run id")
	}
	return env.Data, nil
}

// WaitRun polls the run until it succeeds, fails or ctx is done.
func (c *Client) WaitRun(ctx context.Context, runID string) (Run, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		var env runEnvelope
		if err := c.do(ctx, http.MethodGet, c.actorPath("runs", runID), nil, &env); err != nil {
			return Run{}, fmt.Errorf("check run %s: %w", runID, err)
		}

		status := env.Data.Status
		c.logger.Debug("run status", "run_id", runID, "status", status)

		switch status {
		case StatusSucceeded:
			return env.Data, nil
		case StatusFailed, StatusAborted, StatusTimedOut:
			return env.Data, fmt.Errorf("run %s: %w with status %s", runID, ErrRunFailed, status)
		}

		select {
		case <-ctx.Done():
			return Run{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// DatasetItems downloads every item of a dataset.
func (c *Client) DatasetItems(ctx context.Context, datasetID string) ([]map[string]any, error) {
	if datasetID == "" {
		return nil, fmt.Errorf("dataset items: empty dataset id")
	}

	var items []map[string]any
	path := "/v2/datasets/" + url.PathEscape(datasetID) + "/items?format=json&clean=true"
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, fmt.Errorf("dataset items: %w", err)
	}
	return items, nil
}

func (c *Client) actorPath(parts ...string) string {
	segments := []string{"/v2/acts", url.PathEscape(c.actor)}
	for _, p := range parts {
		segments = append(segments, url.PathEscape(p))
	}
	return strings.Join(segments, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, v any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(excerpt)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
