package adlib

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
)

const resultsStamp = "20060102_150405"

var resultsName = regexp.MustCompile(`^fb_ads_results_[0-9]+.*\.json$`)

// ErrNoResults is returned when a directory holds no results file.
var ErrNoResults = errors.New("no results files found")

// WriteResults stores the processed listing and its summary side by side.
func WriteResults(dir string, processed domain.ProcessedAds, now time.Time) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create results dir: %w", err)
	}

	stamp := now.UTC().Format(resultsStamp)
	fullPath := filepath.Join(dir, "fb_ads_results_"+stamp+".json")
	summaryPath := filepath.Join(dir, "fb_ads_summary_"+stamp+".json")

	if err := writeJSON(fullPath, processed); err != nil {
		return "", "", err
	}
	if err := writeJSON(summaryPath, processed.Summary); err != nil {
		return "", "", err
	}
	return fullPath, summaryPath, nil
}

// LatestResults returns the most recently modified results file in dir.
func LatestResults(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list results in %s: %w", dir, err)
	}

	var (
		latest  string
		latestT time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !resultsName.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestT) {
			latest = filepath.Join(dir, e.Name())
			latestT = info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%s: %w", dir, ErrNoResults)
	}
	return latest, nil
}

// LoadAds reads raw ad records from either a results document ({"ads": [...]})
// or a bare JSON array of enriched records. Numbers are kept as json.Number so
// long archive IDs survive.
func LoadAds(path string) ([]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ads %s: %w", path, err)
	}
	raw = bytes.TrimSpace(raw)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if len(raw) > 0 && raw[0] == '[' {
		var ads []map[string]any
		if err := dec.Decode(&ads); err != nil {
			return nil, fmt.Errorf("decode ads %s: %w", path, err)
		}
		return ads, nil
	}

	var doc struct {
		Ads []map[string]any `json:"ads"`
	}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode ads %s: %w", path, err)
	}
	return doc.Ads, nil
}

// WriteEnriched stores merged CSV records as a bare JSON array, the shape
// LoadAds and the grading metadata loader accept.
func WriteEnriched(path string, ads []map[string]any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if ads == nil {
		ads = []map[string]any{}
	}
	return writeJSON(path, ads)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
