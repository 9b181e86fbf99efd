package adlib

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var stopTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// MergeCSV merges every Ad Library CSV export in dir into enriched records.
// Rows that stopped delivering before cutoff are dropped; rows without a
// parseable stop time are kept. A zero cutoff disables the filter.
func MergeCSV(dir string, cutoff time.Time) ([]map[string]any, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list exports in %s: %w", dir, err)
	}

	var merged []map[string]any
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		rows, err := readCSV(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		merged = append(merged, rows...)
	}

	kept := merged[:0]
	for _, row := range merged {
		if !cutoff.IsZero() {
			if stop, ok := parseStopTime(stringField(row, "ad_delivery_stop_time")); ok && stop.Before(cutoff) {
				continue
			}
		}
		kept = append(kept, row)
	}

	unique, _ := Dedupe(kept)
	for _, row := range unique {
		enrichRow(row)
	}
	return unique, nil
}

func readCSV(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", filepath.Base(path), err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []map[string]any
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %s: %w", filepath.Base(path), err)
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(rec) && rec[i] != "" {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func enrichRow(row map[string]any) {
	for _, col := range []string{"demographic_distribution", "delivery_by_region"} {
		s, ok := row[col].(string)
		if !ok {
			continue
		}
		var nested []any
		if err := json.Unmarshal([]byte("["+s+"]"), &nested); err != nil {
			row[col] = nil
			continue
		}
		row[col] = nested
	}

	for _, col := range []string{"impressions", "spend"} {
		s, ok := row[col].(string)
		if !ok {
			continue
		}
		b, ok := ParseBounds(s)
		if !ok {
			row[col] = nil
			continue
		}
		row[col] = map[string]any{
			"lower_bound": b.LowerBound,
			"upper_bound": b.UpperBound,
			"average":     b.Average,
		}
	}
}

func parseStopTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range stopTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
