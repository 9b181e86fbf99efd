package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/adlib"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/config"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/violations"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("OBSERVATOR_CONFIG", "")
	t.Setenv("OBSERVATOR_DB", "")
	t.Setenv("GEMINI_API_KEY", "")

	root := t.TempDir()
	cfg := config.Load("")
	cfg.Paths = config.PathsConfig{
		Results:  filepath.Join(root, "results"),
		Images:   filepath.Join(root, "images"),
		Analysis: filepath.Join(root, "analysis"),
		Prompts:  filepath.Join(root, "prompts"),
		Plangeri: filepath.Join(root, "plangeri"),
		Reports:  filepath.Join(root, "rapoarte"),
		Graphs:   filepath.Join(root, "graphs"),
	}
	cfg.Grade.Metadata = filepath.Join(root, "enriched.json")
	require.NoError(t, os.MkdirAll(cfg.Paths.Analysis, 0o755))
	return cfg
}

func newTestApp(cfg config.Config) *Application {
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestComplaintAndReportFromResponses(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(cfg)
	defer a.Close()

	msg := "<message-for-police>Partidul X" + violations.PhraseParliamentary +
		" afisarea reclamei 12345678901234.</message-for-police>" +
		"<responsible-party-or-group>Partidul X</responsible-party-or-group>"
	writeFile(t, filepath.Join(cfg.Paths.Analysis, "ad_12345678901234.json"), msg)

	complaint, err := a.Complaint(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, complaint.Path)
	doc, err := os.ReadFile(complaint.Path)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Partidul X")
	assert.Contains(t, string(doc), "12345678901234")

	_, err = a.Report(context.Background(), "")
	assert.ErrorIs(t, err, adlib.ErrNoResults)

	results := filepath.Join(cfg.Paths.Results, "fb_ads_results_20241130_120000.json")
	writeFile(t, results, `{"ads":[{"ad_archive_id":"12345678901234","page_id":"9","page_name":"Pagina X"}]}`)

	report, err := a.Report(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rows)
	assert.FileExists(t, report.Path)
}

func TestMergeCSVThenGrade(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(cfg)

	exports := t.TempDir()
	writeFile(t, filepath.Join(exports, "export.csv"),
		"ad_archive_id,page_name,estimated_audience_size,spend\n"+
			"1,Pagina A,1000-3000,\"lower_bound: 100, upper_bound: 199\"\n")

	n, err := a.MergeCSV(exports, time.Time{}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, cfg.Grade.Metadata)

	writeFile(t, filepath.Join(cfg.Paths.Analysis, "ad_1.json"),
		"<output><conclusion><post_id>1</post_id>"+
			"<electoral-propaganda-decision>TRUE</electoral-propaganda-decision>"+
			"<responsible-party-or-group>Partidul A</responsible-party-or-group>"+
			"</conclusion></output>")

	res, err := a.Grade()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Violations.TotalViolations)
	assert.Zero(t, res.Counts.MissingMetadata)
	assert.FileExists(t, res.ChartsPath)
}

func TestClassifyRequiresPrompts(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(cfg)

	writeFile(t, filepath.Join(cfg.Paths.Results, "fb_ads_results_20241130_120000.json"), `{"ads":[]}`)

	_, err := a.Classify(context.Background(), "")
	assert.Error(t, err)
}

func TestRepositoryDisabledWithoutDSN(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(cfg)

	repo, err := a.repository(context.Background())
	require.NoError(t, err)
	assert.Nil(t, repo)
	assert.NoError(t, a.Close())
}

func TestRepositoryOpensSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.DSN = filepath.Join(t.TempDir(), "ads.db")
	a := newTestApp(cfg)
	defer a.Close()

	repo, err := a.repository(context.Background())
	require.NoError(t, err)
	require.NotNil(t, repo)

	again, err := a.repository(context.Background())
	require.NoError(t, err)
	assert.Same(t, repo, again)
}
