package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "PAPER_NOTIFIER_CONFIG"
)

// Config holds every setting the pipeline needs. It is built once at
// startup and threaded explicitly through each component constructor;
// core components never read ambient process state.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sources   SourcesConfig   `yaml:"sources"`
	Keywords  KeywordConfig   `yaml:"keywords"`
	Impact    ImpactConfig    `yaml:"impact"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	MatchLog  MatchLogConfig  `yaml:"matchLog"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines the daily run time for schedule mode.
type SchedulerConfig struct {
	RunTime  string `yaml:"runTime" validate:"omitempty,datetime=15:04"`
	Timezone string `yaml:"timezone"`

	location *time.Location
}

// Location resolves the configured timezone, defaulting to UTC.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// SourcesConfig groups settings shared by the source adapters.
type SourcesConfig struct {
	Query                 string   `yaml:"query"`
	MaxPapers             int      `yaml:"maxPapers" validate:"gt=0"`
	DaysBack              int      `yaml:"daysBack" validate:"gt=0"`
	CrossrefRows          int      `yaml:"crossrefRows" validate:"gt=0"`
	CrossrefMailto        string   `yaml:"crossrefMailto"`
	SemanticScholarAPIKey string   `yaml:"semanticScholarApiKey"`
	SemanticScholarLimit  int      `yaml:"semanticScholarLimit" validate:"gt=0"`
	RSSFeeds              []string `yaml:"rssFeeds"`
	FetchTimeoutSeconds   int      `yaml:"fetchTimeoutSeconds" validate:"gt=0"`
	Concurrency           int      `yaml:"concurrency" validate:"gt=0"`
}

// FetchTimeout bounds each adapter's network activity.
func (s SourcesConfig) FetchTimeout() time.Duration {
	return time.Duration(s.FetchTimeoutSeconds) * time.Second
}

// KeywordConfig locates the rule file and the author allowlist.
// KeyAuthors entries match by case-insensitive substring against each
// author name, independent of and additive to the section rules.
type KeywordConfig struct {
	RulesFile  string   `yaml:"rulesFile"`
	KeyAuthors []string `yaml:"keyAuthors"`
}

// ImpactConfig defines how to contact the text-generation service.
// An empty APIKey disables remote annotation; the heuristic fallback
// still produces impact notes.
type ImpactConfig struct {
	Endpoint       string `yaml:"endpoint" validate:"omitempty,url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" validate:"gt=0"`
}

// Timeout bounds one generation request.
func (i ImpactConfig) Timeout() time.Duration {
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// WebhookConfig describes the outbound Feishu endpoint and the flow
// field mapping used by the digest formatter.
type WebhookConfig struct {
	URL              string `yaml:"url" validate:"required,url"`
	Type             string `yaml:"type" validate:"oneof=bot flow"`
	FieldTitle       string `yaml:"fieldTitle" validate:"required"`
	FieldAuthors     string `yaml:"fieldAuthors" validate:"required"`
	FieldDescription string `yaml:"fieldDescription" validate:"required"`
	SingleSummary    bool   `yaml:"singleSummary"`
}

// MatchLogConfig locates the append-only match log file.
type MatchLogConfig struct {
	Path string `yaml:"path"`
}

// envOverrides maps the environment variables of the original
// deployment onto config fields. Pointer fields stay nil when the
// variable is unset so absent values never clobber file settings.
type envOverrides struct {
	WebhookURL           *string  `env:"FEISHU_WEBHOOK_URL"`
	WebhookType          *string  `env:"FEISHU_WEBHOOK_TYPE"`
	Query                *string  `env:"QUERY"`
	MaxPapers            *int     `env:"MAX_PAPERS"`
	DaysBack             *int     `env:"DAYS_BACK"`
	Timezone             *string  `env:"TIMEZONE"`
	RunTime              *string  `env:"RUN_TIME"`
	CrossrefMailto       *string  `env:"CROSSREF_MAILTO"`
	CrossrefRows         *int     `env:"CROSSREF_ROWS"`
	KeyAuthors           []string `env:"KEY_AUTHORS" envSeparator:","`
	KeywordsFile         *string  `env:"KEYWORDS_FILE"`
	LogFile              *string  `env:"LOG_FILE"`
	SemanticScholarKey   *string  `env:"SEMANTIC_SCHOLAR_API_KEY"`
	SemanticScholarLimit *int     `env:"SEMANTIC_SCHOLAR_LIMIT"`
	RSSFeeds             []string `env:"RSS_FEEDS" envSeparator:","`
	FlowFieldTitle       *string  `env:"FLOW_FIELD_TITLE"`
	FlowFieldAuthors     *string  `env:"FLOW_FIELD_AUTHORS"`
	FlowFieldDescription *string  `env:"FLOW_FIELD_DESCRIPTION"`
	FlowSingleSummary    *bool    `env:"FLOW_SINGLE_SUMMARY"`
	OpenRouterAPIKey     *string  `env:"OPENROUTER_API_KEY"`
	OpenRouterModel      *string  `env:"OPENROUTER_MODEL"`
	OpenRouterTimeout    *int     `env:"OPENROUTER_TIMEOUT_SECONDS"`
	LogLevel             *string  `env:"LOG_LEVEL"`
}

// Load reads YAML configuration (if PAPER_NOTIFIER_CONFIG points at a
// file), applies environment overrides, and validates the result.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.apply(overrides)
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the assembled configuration with struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func (c *Config) apply(o envOverrides) {
	setString := func(dst *string, src *string) {
		if src != nil && *src != "" {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&c.Webhook.URL, o.WebhookURL)
	setString(&c.Webhook.Type, o.WebhookType)
	setString(&c.Webhook.FieldTitle, o.FlowFieldTitle)
	setString(&c.Webhook.FieldAuthors, o.FlowFieldAuthors)
	setString(&c.Webhook.FieldDescription, o.FlowFieldDescription)
	if o.FlowSingleSummary != nil {
		c.Webhook.SingleSummary = *o.FlowSingleSummary
	}

	setString(&c.Sources.Query, o.Query)
	setInt(&c.Sources.MaxPapers, o.MaxPapers)
	setInt(&c.Sources.DaysBack, o.DaysBack)
	setString(&c.Sources.CrossrefMailto, o.CrossrefMailto)
	setInt(&c.Sources.CrossrefRows, o.CrossrefRows)
	setString(&c.Sources.SemanticScholarAPIKey, o.SemanticScholarKey)
	setInt(&c.Sources.SemanticScholarLimit, o.SemanticScholarLimit)
	if len(o.RSSFeeds) > 0 {
		c.Sources.RSSFeeds = compact(o.RSSFeeds)
	}

	setString(&c.Keywords.RulesFile, o.KeywordsFile)
	if len(o.KeyAuthors) > 0 {
		c.Keywords.KeyAuthors = compact(o.KeyAuthors)
	}

	setString(&c.MatchLog.Path, o.LogFile)

	setString(&c.Impact.APIKey, o.OpenRouterAPIKey)
	setString(&c.Impact.Model, o.OpenRouterModel)
	setInt(&c.Impact.TimeoutSeconds, o.OpenRouterTimeout)

	setString(&c.Scheduler.Timezone, o.Timezone)
	setString(&c.Scheduler.RunTime, o.RunTime)
	setString(&c.Logging.Level, o.LogLevel)
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{RunTime: "09:00", Timezone: defaultTimezone},
		Sources: SourcesConfig{
			Query:                "quantum computing",
			MaxPapers:            8,
			DaysBack:             1,
			CrossrefRows:         5,
			SemanticScholarLimit: 20,
			FetchTimeoutSeconds:  20,
			Concurrency:          4,
		},
		Keywords: KeywordConfig{RulesFile: "keywords.txt"},
		Impact: ImpactConfig{
			Endpoint:       "https://openrouter.ai/api/v1/chat/completions",
			Model:          "openai/gpt-4o-mini",
			TimeoutSeconds: 60,
		},
		Webhook: WebhookConfig{
			Type:             "bot",
			FieldTitle:       "paper_title",
			FieldAuthors:     "authors",
			FieldDescription: "description",
			SingleSummary:    true,
		},
		MatchLog: MatchLogConfig{Path: "logs/matched_papers.log"},
	}
}
