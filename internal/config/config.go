package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/violations"
)

const (
	configPathEnv = "OBSERVATOR_CONFIG"
	apifyTokenEnv = "APIFY_TOKEN"
	geminiKeyEnv  = "GEMINI_API_KEY"
	geminiModel   = "GEMINI_MODEL"
	databaseEnv   = "OBSERVATOR_DB"
	logLevelEnv   = "LOG_LEVEL"
	telegramToken = "TELEGRAM_BOT_TOKEN"
	telegramChat  = "TELEGRAM_CHAT_ID"

	PresetParliamentary = "parliamentary"
	PresetPresidential  = "presidential"
)

// Config holds high-level settings required across the pipeline stages.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Paths     PathsConfig     `yaml:"paths"`
	Apify     ApifyConfig     `yaml:"apify"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Classify  ClassifyConfig  `yaml:"classify"`
	Complaint ComplaintConfig `yaml:"complaint"`
	Grade     GradeConfig     `yaml:"grade"`
	Store     StoreConfig     `yaml:"store"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// PathsConfig lists the directories each stage reads and writes.
type PathsConfig struct {
	Results  string `yaml:"results"`
	Images   string `yaml:"images"`
	Analysis string `yaml:"analysis"`
	Prompts  string `yaml:"prompts"`
	Plangeri string `yaml:"plangeri"`
	Reports  string `yaml:"reports"`
	Graphs   string `yaml:"graphs"`
}

// ApifyConfig describes the Meta Ad Library actor.
type ApifyConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	Actor        string        `yaml:"actor"`
	Token        string        `yaml:"token"`
	PollInterval time.Duration `yaml:"pollInterval"`
	Input        string        `yaml:"input"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	APIKey          string  `yaml:"apiKey"`
	Model           string  `yaml:"model"`
	BaseURL         string  `yaml:"baseUrl"`
	Temperature     float32 `yaml:"temperature"`
	TopK            float32 `yaml:"topK"`
	TopP            float32 `yaml:"topP"`
	MaxOutputTokens int32   `yaml:"maxOutputTokens"`
}

// ClassifyConfig bounds the classify stage.
type ClassifyConfig struct {
	Workers           int     `yaml:"workers"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	MaxAds            int     `yaml:"maxAds"`
}

// ComplaintConfig drives response aggregation and the rendered complaint.
type ComplaintConfig struct {
	Preset        string             `yaml:"preset"`
	Phrase        string             `yaml:"phrase"`
	Patches       []violations.Patch `yaml:"patches"`
	GroupBy       string             `yaml:"groupBy"`
	Workers       int                `yaml:"workers"`
	Extensions    []string           `yaml:"extensions"`
	MinIDDigits   int                `yaml:"minIdDigits"`
	MaxIDDigits   int                `yaml:"maxIdDigits"`
	LawName       string             `yaml:"lawName"`
	Articles      string             `yaml:"articles"`
	Accreditation string             `yaml:"accreditation"`
	Complainant   string             `yaml:"complainant"`
	Identity      string             `yaml:"identity"`
	Methodology   string             `yaml:"methodology"`
	Addressees    []Addressee        `yaml:"addressees"`
}

// Addressee is one authority the complaint is sent to.
type Addressee struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// GradeConfig configures integrity grading.
type GradeConfig struct {
	Metadata string `yaml:"metadata"`
	TopPages int    `yaml:"topPages"`
}

// StoreConfig points at the optional SQLite ad store.
type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// ScheduleConfig sets how often watch mode reruns the pipeline.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// TelegramConfig is optional; an empty token disables run digests.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	BaseURL  string `yaml:"baseUrl"`
}

// SourceConfig describes a single ad source with its scanner strategy.
type SourceConfig struct {
	Name    string            `yaml:"name"`
	Scanner string            `yaml:"scanner"`
	Options map[string]string `yaml:"options"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyPreset()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// Validate reports settings no stage can run with.
func (c Config) Validate() error {
	switch violations.GroupBy(c.Complaint.GroupBy) {
	case violations.GroupRaw, violations.GroupCanonical:
	default:
		return fmt.Errorf("complaint.groupBy: unknown value %q", c.Complaint.GroupBy)
	}
	if c.Complaint.MinIDDigits <= 0 || c.Complaint.MaxIDDigits < c.Complaint.MinIDDigits {
		return fmt.Errorf("complaint: invalid id digit range %d-%d", c.Complaint.MinIDDigits, c.Complaint.MaxIDDigits)
	}
	if c.Schedule.Interval < time.Minute {
		return fmt.Errorf("schedule.interval must be at least 1m, got %s", c.Schedule.Interval)
	}
	if c.Classify.Workers < 1 {
		return fmt.Errorf("classify.workers must be positive, got %d", c.Classify.Workers)
	}
	return nil
}

// Splitter builds the narrative splitter for the configured phrase.
func (c ComplaintConfig) Splitter() violations.Splitter {
	return violations.NewSplitter(c.Phrase, c.Patches)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(apifyTokenEnv); v != "" {
		c.Apify.Token = v
	}

	if v := os.Getenv(geminiKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModel); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(databaseEnv); v != "" {
		c.Store.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramToken); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChat); v != "" {
		c.Telegram.ChatID = v
	}
}

// UsePreset switches the complaint preset after loading, as a command-line
// flag does.
func (c *Config) UsePreset(name string) {
	if name == "" {
		return
	}
	c.Complaint.Preset = name
	c.applyPreset()
}

// applyPreset fills the citation phrase for the presidential law unless a
// phrase was configured explicitly.
func (c *Config) applyPreset() {
	if c.Complaint.Preset != PresetPresidential || c.Complaint.Phrase != violations.PhraseParliamentary {
		return
	}
	c.Complaint.Phrase = violations.PhrasePresidential
	c.Complaint.Patches = nil
	c.Complaint.LawName = "Legea 370/2004 privind alegerea Președintelui României"
	c.Complaint.Articles = "art. 55 lit. t), art. 56 alin (1), alin. (2) lit. a)"
	if c.Complaint.MinIDDigits == 14 {
		c.Complaint.MinIDDigits = 10
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	base.Paths = mergePaths(base.Paths, override.Paths)

	if override.Apify.BaseURL != "" {
		base.Apify.BaseURL = override.Apify.BaseURL
	}
	if override.Apify.Actor != "" {
		base.Apify.Actor = override.Apify.Actor
	}
	if override.Apify.Token != "" {
		base.Apify.Token = override.Apify.Token
	}
	if override.Apify.PollInterval > 0 {
		base.Apify.PollInterval = override.Apify.PollInterval
	}
	if override.Apify.Input != "" {
		base.Apify.Input = override.Apify.Input
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.BaseURL != "" {
		base.Gemini.BaseURL = override.Gemini.BaseURL
	}
	if override.Gemini.Temperature > 0 {
		base.Gemini.Temperature = override.Gemini.Temperature
	}
	if override.Gemini.TopK > 0 {
		base.Gemini.TopK = override.Gemini.TopK
	}
	if override.Gemini.TopP > 0 {
		base.Gemini.TopP = override.Gemini.TopP
	}
	if override.Gemini.MaxOutputTokens > 0 {
		base.Gemini.MaxOutputTokens = override.Gemini.MaxOutputTokens
	}

	if override.Classify.Workers > 0 {
		base.Classify.Workers = override.Classify.Workers
	}
	if override.Classify.RequestsPerSecond > 0 {
		base.Classify.RequestsPerSecond = override.Classify.RequestsPerSecond
	}
	if override.Classify.MaxAds > 0 {
		base.Classify.MaxAds = override.Classify.MaxAds
	}

	base.Complaint = mergeComplaint(base.Complaint, override.Complaint)

	if override.Grade.Metadata != "" {
		base.Grade.Metadata = override.Grade.Metadata
	}
	if override.Grade.TopPages > 0 {
		base.Grade.TopPages = override.Grade.TopPages
	}

	if override.Store.DSN != "" {
		base.Store = override.Store
	}

	if override.Schedule.Interval > 0 {
		base.Schedule.Interval = override.Schedule.Interval
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}
	if override.Telegram.BaseURL != "" {
		base.Telegram.BaseURL = override.Telegram.BaseURL
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func mergePaths(base, override PathsConfig) PathsConfig {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	return PathsConfig{
		Results:  pick(base.Results, override.Results),
		Images:   pick(base.Images, override.Images),
		Analysis: pick(base.Analysis, override.Analysis),
		Prompts:  pick(base.Prompts, override.Prompts),
		Plangeri: pick(base.Plangeri, override.Plangeri),
		Reports:  pick(base.Reports, override.Reports),
		Graphs:   pick(base.Graphs, override.Graphs),
	}
}

func mergeComplaint(base, override ComplaintConfig) ComplaintConfig {
	if override.Preset != "" {
		base.Preset = override.Preset
	}
	if override.Phrase != "" {
		base.Phrase = override.Phrase
	}
	if override.Patches != nil {
		base.Patches = override.Patches
	}
	if override.GroupBy != "" {
		base.GroupBy = override.GroupBy
	}
	if override.Workers > 0 {
		base.Workers = override.Workers
	}
	if len(override.Extensions) > 0 {
		base.Extensions = override.Extensions
	}
	if override.MinIDDigits > 0 {
		base.MinIDDigits = override.MinIDDigits
	}
	if override.MaxIDDigits > 0 {
		base.MaxIDDigits = override.MaxIDDigits
	}
	if override.LawName != "" {
		base.LawName = override.LawName
	}
	if override.Articles != "" {
		base.Articles = override.Articles
	}
	if override.Accreditation != "" {
		base.Accreditation = override.Accreditation
	}
	if override.Complainant != "" {
		base.Complainant = override.Complainant
	}
	if override.Identity != "" {
		base.Identity = override.Identity
	}
	if override.Methodology != "" {
		base.Methodology = override.Methodology
	}
	if len(override.Addressees) > 0 {
		base.Addressees = override.Addressees
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Paths: PathsConfig{
			Results:  "results",
			Images:   "downloaded_images",
			Analysis: "ai/analysis",
			Prompts:  "ai/prompts/grader",
			Plangeri: "plangeri",
			Reports:  "rapoarte",
			Graphs:   "graphs",
		},
		Apify: ApifyConfig{
			BaseURL:      "https://api.apify.com",
			Actor:        "curious_coder~facebook-ads-library-scraper",
			PollInterval: 30 * time.Second,
			Input:        "requests/meta.json",
		},
		Gemini: GeminiConfig{
			Model:           "gemini-1.5-flash-002",
			Temperature:     0,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 8192,
		},
		Classify: ClassifyConfig{
			Workers:           32,
			RequestsPerSecond: 10,
		},
		Complaint: ComplaintConfig{
			Preset:      PresetParliamentary,
			Phrase:      violations.PhraseParliamentary,
			Patches:     violations.DefaultPatches,
			GroupBy:     string(violations.GroupRaw),
			Workers:     1,
			Extensions:  violations.DefaultExtensions,
			MinIDDigits: 14,
			MaxIDDigits: 16,
			LawName:     "Legea 208/2015 privind alegerea Senatului și a Camerei Deputaților",
			Articles:    "art. 98 lit. t), art. 99 alin (1), alin. (2) lit. a)",
			Methodology: "https://github.com/Stefatorus/observator-electoral-transparenta",
			Addressees: []Addressee{
				{Name: "Inspectoratul General al Poliției Române", Email: "igpr@politiaromana.ro"},
				{Name: "Inspectoratul General al Jandarmeriei Române", Email: "jandarmerie@mai.gov.ro"},
				{Name: "Biroul Electoral Central", Email: "secretariat@bec.ro"},
			},
		},
		Grade: GradeConfig{
			Metadata: "final_enriched_meta_ad_data.json",
			TopPages: 50,
		},
		Schedule: ScheduleConfig{Interval: 24 * time.Hour},
		Telegram: TelegramConfig{BaseURL: "https://api.telegram.org"},
		Sources: []SourceConfig{
			{Name: "meta-ad-library", Scanner: "apify"},
		},
	}
}
