package adlib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeKeepsFirstSeen(t *testing.T) {
	t.Parallel()

	ads := []map[string]any{
		{"ad_archive_id": "123", "page_name": "first"},
		{"ad_archive_id": "456", "page_name": "other"},
		{"ad_archive_id": "123", "page_name": "second"},
		{"page_name": "no id"},
	}

	unique, dropped := Dedupe(ads)
	require.Len(t, unique, 2)
	assert.Equal(t, "first", unique[0]["page_name"])
	assert.Equal(t, "other", unique[1]["page_name"])
	assert.Equal(t, 2, dropped)
}

func TestDedupeNumericIDs(t *testing.T) {
	t.Parallel()

	ads := []map[string]any{
		{"ad_archive_id": json.Number("1234567890123456")},
		{"ad_archive_id": "1234567890123456"},
	}
	unique, dropped := Dedupe(ads)
	assert.Len(t, unique, 1)
	assert.Equal(t, 1, dropped)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	summary := Summarize([]map[string]any{
		{"query": "alegeri", "page_name": "A", "ad_creation_time": "2024-11-20T10:00:00"},
		{"query": "alegeri", "page_name": "B", "ad_creation_time": "2024-11-20T12:00:00"},
		{"page_name": "A"},
	})

	assert.Equal(t, map[string]int{"alegeri": 2, "unknown": 1}, summary.ByQuery)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, summary.ByPage)
	assert.Equal(t, map[string]int{"2024-11-20": 2}, summary.ByDate)
}

func TestProcess(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.November, 30, 16, 23, 20, 0, time.UTC)
	processed, dropped := Process([]map[string]any{
		{"ad_archive_id": "1", "query": "q1"},
		{"ad_archive_id": "1", "query": "q1"},
		{"ad_archive_id": "2", "query": "q2"},
	}, now)

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 2, processed.Metadata.TotalAds)
	assert.Equal(t, 2, processed.Metadata.QueryCount)
	assert.Equal(t, now, processed.Metadata.Timestamp)
}

func TestParseBounds(t *testing.T) {
	t.Parallel()

	b, ok := ParseBounds("lower_bound: 100, upper_bound: 199")
	require.True(t, ok)
	assert.InDelta(t, 100, b.LowerBound, 0.001)
	assert.InDelta(t, 199, b.UpperBound, 0.001)
	assert.InDelta(t, 149.5, b.Average, 0.001)

	_, ok = ParseBounds("n/a")
	assert.False(t, ok)
}

func TestFromRaw(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"ad_archive_id":          json.Number("987654321012345"),
		"page_id":                "555",
		"page_name":              "Partidul X",
		"spend":                  map[string]any{"lower_bound": 100.0, "upper_bound": 200.0},
		"impressions_with_index": map[string]any{"impressions_text": "1K-5K"},
		"start_date":             json.Number("1732000000"),
		"snapshot": map[string]any{
			"body":   map[string]any{"markup": map[string]any{"__html": "<p>Votează <b>X</b><br>azi</p>"}},
			"images": []any{map[string]any{"original_image_url": "https://cdn/x.jpg"}},
		},
	}

	ad := FromRaw(raw)
	assert.Equal(t, "987654321012345", ad.ArchiveID)
	assert.Equal(t, "Partidul X", ad.PageName)
	require.NotNil(t, ad.Spend)
	assert.InDelta(t, 150, ad.Spend.Average, 0.001)
	assert.Equal(t, "1K-5K", ad.ImpressionsText)
	assert.Equal(t, "1732000000", ad.StartDate)
	assert.Equal(t, "Votează X\nazi", ad.BodyText)
	assert.Equal(t, []string{"https://cdn/x.jpg"}, ad.ImageURLs)
}

func TestBodyText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain text", BodyText("  plain text "))
	assert.Equal(t, "Hello world", BodyText("<div>Hello <span>world</span></div>"))
}

func TestResultsRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	processed, _ := Process([]map[string]any{{"ad_archive_id": "1234567890123456", "page_name": "P"}}, time.Now())

	full, summary, err := WriteResults(dir, processed, time.Date(2024, 11, 30, 16, 23, 20, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "fb_ads_results_20241130_162320.json"), full)
	assert.FileExists(t, summary)

	latest, err := LatestResults(dir)
	require.NoError(t, err)
	assert.Equal(t, full, latest)

	ads, err := LoadAds(latest)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "1234567890123456", ID(ads[0]))
}

func TestLatestResultsPicksNewest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	older := filepath.Join(dir, "fb_ads_results_20241101_000000.json")
	newer := filepath.Join(dir, "fb_ads_results_20241102_000000.json")
	require.NoError(t, os.WriteFile(older, []byte(`{"ads": []}`), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte(`{"ads": []}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fb_ads_results_test.json"), []byte(`{}`), 0o644))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	latest, err := LatestResults(dir)
	require.NoError(t, err)
	assert.Equal(t, newer, latest)

	_, err = LatestResults(t.TempDir())
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestLoadAdsArray(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "enriched.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"ad_archive_id": 1234567890123456789, "page_name": "P"}]`), 0o644))

	ads, err := LoadAds(path)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "1234567890123456789", ID(ads[0]))
}

func TestMergeCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := "ad_archive_id,page_name,ad_delivery_stop_time,spend,demographic_distribution\n" +
		"1,A,2024-11-25,\"lower_bound: 100, upper_bound: 199\",\"{\"\"age\"\": \"\"18-24\"\"}\"\n" +
		"2,B,2024-11-01,\"lower_bound: 0, upper_bound: 99\",\n"
	second := "ad_archive_id,page_name,ad_delivery_stop_time,spend\n" +
		"1,A duplicate,,\n" +
		"3,C,,garbage\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(first), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte(second), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("x"), 0o644))

	rows, err := MergeCSV(dir, time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "A", rows[0]["page_name"])
	spend, ok := rows[0]["spend"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 149.5, spend["average"], 0.001)
	assert.Equal(t, []any{map[string]any{"age": "18-24"}}, rows[0]["demographic_distribution"])

	assert.Equal(t, "3", rows[1]["ad_archive_id"])
	assert.Nil(t, rows[1]["spend"])
}

func TestTopPages(t *testing.T) {
	t.Parallel()

	totals := map[string]float64{"a": 1, "b": 3, "c": 3, "d": 2}
	assert.Equal(t, []string{"b", "c", "d"}, TopPages(totals, 3))
	assert.Len(t, TopPages(totals, 0), 4)
}

func TestWriteEnrichedLoadsBack(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "enriched.json")
	require.NoError(t, WriteEnriched(path, []map[string]any{
		{"ad_archive_id": "1234567890123456", "page_name": "A"},
	}))

	ads, err := LoadAds(path)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "1234567890123456", ID(ads[0]))

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteEnriched(empty, nil))
	raw, err := os.ReadFile(empty)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}
