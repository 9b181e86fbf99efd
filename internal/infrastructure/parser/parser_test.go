package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/config"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/scanner"
)

type fakeRunner struct {
	input []byte
	items []map[string]any
	err   error
}

func (f *fakeRunner) RunActor(_ context.Context, input []byte) ([]map[string]any, error) {
	f.input = input
	return f.items, f.err
}

type fixedScanner struct {
	name  string
	items []map[string]any
	err   error
}

func (f fixedScanner) Name() string { return f.name }

func (f fixedScanner) Scan(context.Context, scanner.Request) ([]map[string]any, error) {
	return f.items, f.err
}

func TestApifyScannerReadsInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"count": 100}`), 0o644))

	runner := &fakeRunner{items: []map[string]any{{"ad_archive_id": "1"}}}
	s := NewApifyScanner(runner, filepath.Join(dir, "missing.json"), nil)

	items, err := s.Scan(context.Background(), scanner.Request{Options: map[string]string{"input": input}})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.JSONEq(t, `{"count": 100}`, string(runner.input))
	assert.Equal(t, "apify", s.Name())
}

func TestApifyScannerRejectsBadInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "meta.json")
	require.NoError(t, os.WriteFile(input, []byte(`{not json`), 0o644))

	s := NewApifyScanner(&fakeRunner{}, input, nil)
	_, err := s.Scan(context.Background(), scanner.Request{})
	assert.Error(t, err)

	_, err = NewApifyScanner(&fakeRunner{}, filepath.Join(dir, "nope.json"), nil).Scan(context.Background(), scanner.Request{})
	assert.Error(t, err)

	_, err = NewApifyScanner(nil, input, nil).Scan(context.Background(), scanner.Request{})
	assert.Error(t, err)
}

func TestCSVScanner(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csv := "ad_archive_id,page_name,ad_delivery_stop_time\n1,A,2024-11-30\n2,B,2024-10-01\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.csv"), []byte(csv), 0o644))

	s := NewCSVScanner(dir, nil)
	rows, err := s.Scan(context.Background(), scanner.Request{Options: map[string]string{"cutoff": "2024-11-01"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0]["page_name"])

	_, err = s.Scan(context.Background(), scanner.Request{Options: map[string]string{"cutoff": "01/11/2024"}})
	assert.Error(t, err)
}

func TestStrategySourceMergesAndDedupes(t *testing.T) {
	t.Parallel()

	reg := scanner.NewRegistry()
	reg.Register(fixedScanner{name: "apify", items: []map[string]any{
		{"ad_archive_id": "1", "page_name": "first"},
		{"ad_archive_id": "2"},
	}})
	reg.Register(fixedScanner{name: "csv", items: []map[string]any{
		{"ad_archive_id": "1", "page_name": "second"},
		{"page_name": "no id"},
		{"ad_archive_id": "3"},
	}})

	src := NewStrategySource(reg, []config.SourceConfig{
		{Name: "meta", Scanner: "apify"},
		{Name: "exports", Scanner: "csv"},
	}, nil)

	ads, err := src.FetchAds(context.Background())
	require.NoError(t, err)
	require.Len(t, ads, 3)
	assert.Equal(t, "first", ads[0]["page_name"])
	assert.Equal(t, "3", ads[2]["ad_archive_id"])
}

func TestStrategySourceErrors(t *testing.T) {
	t.Parallel()

	_, err := NewStrategySource(nil, nil, nil).FetchAds(context.Background())
	assert.Error(t, err)

	reg := scanner.NewRegistry()
	reg.Register(fixedScanner{name: "apify", err: errors.New("boom")})

	_, err = NewStrategySource(reg, []config.SourceConfig{{Name: "x", Scanner: "tiktok"}}, nil).FetchAds(context.Background())
	assert.ErrorContains(t, err, "tiktok")

	_, err = NewStrategySource(reg, []config.SourceConfig{{Name: "meta", Scanner: "apify"}}, nil).FetchAds(context.Background())
	assert.ErrorContains(t, err, "boom")
}
