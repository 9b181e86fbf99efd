package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/violations"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(apifyTokenEnv, "")
	t.Setenv(geminiKeyEnv, "")
	t.Setenv(geminiModel, "")
	t.Setenv(databaseEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(telegramToken, "")
	t.Setenv(telegramChat, "")

	cfg := Load("")

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, violations.PhraseParliamentary, cfg.Complaint.Phrase)
	assert.Equal(t, violations.DefaultPatches, cfg.Complaint.Patches)
	assert.Equal(t, string(violations.GroupRaw), cfg.Complaint.GroupBy)
	assert.Equal(t, "gemini-1.5-flash-002", cfg.Gemini.Model)
	assert.Equal(t, int32(8192), cfg.Gemini.MaxOutputTokens)
	assert.Equal(t, 14, cfg.Complaint.MinIDDigits)
	assert.Equal(t, 16, cfg.Complaint.MaxIDDigits)
	assert.Len(t, cfg.Sources, 1)
	assert.Empty(t, cfg.Store.DSN)
	assert.Equal(t, 24*time.Hour, cfg.Schedule.Interval)
	assert.Empty(t, cfg.Telegram.BotToken)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesFile(t *testing.T) {
	t.Setenv(logLevelEnv, "")
	t.Setenv(databaseEnv, "")

	path := writeConfig(t, `
logging:
  level: debug
paths:
  analysis: out/analysis
apify:
  pollInterval: 5s
complaint:
  groupBy: canonical
  workers: 4
  addressees:
    - name: Test Authority
      email: test@example.org
classify:
  maxAds: 10
sources:
  - name: exports
    scanner: csv
    options:
      dir: exports
`)

	cfg := Load(path)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "out/analysis", cfg.Paths.Analysis)
	assert.Equal(t, "results", cfg.Paths.Results)
	assert.Equal(t, 5*time.Second, cfg.Apify.PollInterval)
	assert.Equal(t, "canonical", cfg.Complaint.GroupBy)
	assert.Equal(t, 4, cfg.Complaint.Workers)
	assert.Equal(t, violations.PhraseParliamentary, cfg.Complaint.Phrase)
	require.Len(t, cfg.Complaint.Addressees, 1)
	assert.Equal(t, "Test Authority", cfg.Complaint.Addressees[0].Name)
	assert.Equal(t, 10, cfg.Classify.MaxAds)
	assert.Equal(t, 32, cfg.Classify.Workers)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "csv", cfg.Sources[0].Scanner)
	assert.Equal(t, "exports", cfg.Sources[0].Options["dir"])
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(apifyTokenEnv, "apify-token")
	t.Setenv(geminiKeyEnv, "gemini-key")
	t.Setenv(geminiModel, "gemini-2.0-flash")
	t.Setenv(databaseEnv, "ads.db")
	t.Setenv(logLevelEnv, "warn")
	t.Setenv(telegramToken, "bot-token")
	t.Setenv(telegramChat, "-100")

	path := writeConfig(t, "logging:\n  level: debug\nschedule:\n  interval: 6h\n")
	cfg := Load(path)

	assert.Equal(t, "apify-token", cfg.Apify.Token)
	assert.Equal(t, "gemini-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "ads.db", cfg.Store.DSN)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "bot-token", cfg.Telegram.BotToken)
	assert.Equal(t, "-100", cfg.Telegram.ChatID)
	assert.Equal(t, 6*time.Hour, cfg.Schedule.Interval)
}

func TestLoadPathFromEnv(t *testing.T) {
	t.Setenv(logLevelEnv, "")
	path := writeConfig(t, "logging:\n  level: error\n")
	t.Setenv(configPathEnv, path)

	cfg := Load("")
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadBrokenFileFallsBack(t *testing.T) {
	t.Setenv(logLevelEnv, "")
	path := writeConfig(t, "logging: [unterminated")

	cfg := Load(path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestPresidentialPreset(t *testing.T) {
	t.Setenv(logLevelEnv, "")
	path := writeConfig(t, "complaint:\n  preset: presidential\n")

	cfg := Load(path)

	assert.Equal(t, violations.PhrasePresidential, cfg.Complaint.Phrase)
	assert.Empty(t, cfg.Complaint.Patches)
	assert.Equal(t, 10, cfg.Complaint.MinIDDigits)
	assert.Contains(t, cfg.Complaint.LawName, "370/2004")
}

func TestUsePreset(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.UsePreset("")
	assert.Equal(t, violations.PhraseParliamentary, cfg.Complaint.Phrase)

	cfg.UsePreset(PresetPresidential)
	assert.Equal(t, PresetPresidential, cfg.Complaint.Preset)
	assert.Equal(t, violations.PhrasePresidential, cfg.Complaint.Phrase)
	assert.Equal(t, 10, cfg.Complaint.MinIDDigits)
}

func TestPresetKeepsExplicitPhrase(t *testing.T) {
	t.Setenv(logLevelEnv, "")
	path := writeConfig(t, "complaint:\n  preset: presidential\n  phrase: \", custom,\"\n")

	cfg := Load(path)
	assert.Equal(t, ", custom,", cfg.Complaint.Phrase)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Complaint.GroupBy = "bogus"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Complaint.MaxIDDigits = 5
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Classify.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Schedule.Interval = time.Second
	assert.Error(t, cfg.Validate())
}

func TestComplaintSplitter(t *testing.T) {
	t.Parallel()

	s := defaultConfig().Complaint.Splitter()
	entity, desc := s.Split("Partidul X" + violations.PhraseParliamentary + " afis din 23.11.2024")
	assert.Equal(t, "Partidul X", entity)
	assert.Equal(t, "afis din 30.11.2024", desc)
}
