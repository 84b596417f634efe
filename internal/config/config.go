// Package config assembles the runtime configuration of itoi-daily.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. Secrets (API keys, webhook URLs) are read from the
// environment only and never from the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	pkgconfig "itoi-daily/internal/pkg/config"
)

// ErrInvalidConfig indicates that the assembled configuration failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete runtime configuration.
type Config struct {
	Site          SiteConfig          `yaml:"site"`
	Translator    TranslatorConfig    `yaml:"translator"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Feed          FeedConfig          `yaml:"feed"`
	Notify        NotifyConfig        `yaml:"notify"`
	Schedule      ScheduleConfig      `yaml:"schedule"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// SiteConfig describes the essay page and how it is rendered.
type SiteConfig struct {
	URL        string `yaml:"url" validate:"required,http_url"`
	Timezone   string `yaml:"timezone" validate:"required,timezone"`
	AuthorName string `yaml:"author_name" validate:"required"`
	// Renderer selects the page renderer: "auto" tries headless Chrome first and
	// falls back to plain HTTP.
	Renderer      string        `yaml:"renderer" validate:"oneof=auto chrome http"`
	ChromePath    string        `yaml:"chrome_path"`
	RenderTimeout time.Duration `yaml:"render_timeout" validate:"gt=0"`
	SettleDelay   time.Duration `yaml:"settle_delay" validate:"gte=0"`
	MinInterval   time.Duration `yaml:"min_interval" validate:"gte=0"`
	UserAgent     string        `yaml:"user_agent"`
}

// TranslatorConfig selects and tunes the translation provider.
type TranslatorConfig struct {
	Provider string `yaml:"provider" validate:"oneof=claude openai noop"`
	// Model overrides the provider default when set.
	Model         string        `yaml:"model"`
	MaxTokens     int           `yaml:"max_tokens" validate:"min=256,max=16000"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxInputRunes int           `yaml:"max_input_runes" validate:"gte=0"`
	DefaultAuthor string        `yaml:"default_author" validate:"required"`
	BaseURL       string        `yaml:"base_url" validate:"omitempty,http_url"`
	APIKey        string        `yaml:"-"`
}

// ArchiveConfig locates the JSON archive.
type ArchiveConfig struct {
	Path string `yaml:"path" validate:"required"`
	// MaxEntries bounds the archive on disk. Zero keeps every entry.
	MaxEntries int    `yaml:"max_entries" validate:"gte=0"`
	OnCorrupt  string `yaml:"on_corrupt" validate:"oneof=abort reset"`
}

// FeedConfig describes the RSS output.
type FeedConfig struct {
	Path        string `yaml:"path" validate:"required"`
	Limit       int    `yaml:"limit" validate:"min=1,max=500"`
	Title       string `yaml:"title" validate:"required"`
	Link        string `yaml:"link" validate:"required,http_url"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Author      string `yaml:"author"`
	Copyright   string `yaml:"copyright"`
}

// NotifyConfig configures post-publish notifications.
type NotifyConfig struct {
	Discord WebhookConfig `yaml:"discord"`
	Slack   WebhookConfig `yaml:"slack"`
}

// WebhookConfig is one webhook channel. The URL comes from the environment.
type WebhookConfig struct {
	Enabled    bool          `yaml:"enabled"`
	WebhookURL string        `yaml:"-" validate:"omitempty,http_url"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
}

// ScheduleConfig configures the long-running schedule command.
type ScheduleConfig struct {
	Cron        string `yaml:"cron" validate:"required,cron5"`
	Timezone    string `yaml:"timezone" validate:"required,timezone"`
	RunOnStart  bool   `yaml:"run_on_start"`
	HealthAddr  string `yaml:"health_addr" validate:"required"`
	MetricsAddr string `yaml:"metrics_addr" validate:"required"`
}

// ObservabilityConfig configures logging, metrics export and tracing.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=json text"`
	// MetricsTextfile, when set, receives a node-exporter textfile after each one-shot run.
	MetricsTextfile string `yaml:"metrics_textfile"`
	Tracing         bool   `yaml:"tracing"`
}

// Default returns the configuration used when neither a file nor the environment
// sets a value.
func Default() Config {
	return Config{
		Site: SiteConfig{
			URL:           "https://www.1101.com/",
			Timezone:      "Asia/Tokyo",
			AuthorName:    "糸井重里",
			Renderer:      "auto",
			RenderTimeout: 45 * time.Second,
			SettleDelay:   3 * time.Second,
			MinInterval:   2 * time.Second,
		},
		Translator: TranslatorConfig{
			Provider:      "claude",
			MaxTokens:     4000,
			Timeout:       3 * time.Minute,
			MaxInputRunes: 20000,
			DefaultAuthor: "Shigesato Itoi",
		},
		Archive: ArchiveConfig{
			Path:      "archive.json",
			OnCorrupt: "abort",
		},
		Feed: FeedConfig{
			Path:        "feed.xml",
			Limit:       30,
			Title:       "Today's Darling (English)",
			Link:        "https://www.1101.com/",
			Description: "Daily essays by Shigesato Itoi, translated into English",
			Language:    "en",
			Author:      "Shigesato Itoi",
		},
		Notify: NotifyConfig{
			Discord: WebhookConfig{Timeout: 10 * time.Second},
			Slack:   WebhookConfig{Timeout: 10 * time.Second},
		},
		Schedule: ScheduleConfig{
			Cron:        "0 7 * * *",
			Timezone:    "Asia/Tokyo",
			HealthAddr:  ":9091",
			MetricsAddr: ":9090",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when
// path is empty) and the environment. Rejected environment values keep the
// previous setting and are returned as warnings.
func Load(path string) (*Config, []string, error) {
	metrics := pkgconfig.NewConfigMetrics("itoi")
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, nil, err
		}
	}

	overrides := pkgconfig.NewOverrides(metrics)
	cfg.applyEnv(overrides)
	metrics.SetFallbackActive(overrides.FallbackApplied())

	if err := cfg.Validate(); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				metrics.RecordValidationError(fe.Namespace())
			}
		}
		return nil, overrides.Warnings, err
	}

	metrics.RecordLoadTimestamp()
	return &cfg, overrides.Warnings, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(o *pkgconfig.Overrides) {
	positive := pkgconfig.ValidatePositiveDuration

	o.String("ITOI_SITE_URL", &c.Site.URL, nil)
	o.String("ITOI_SITE_TIMEZONE", &c.Site.Timezone, pkgconfig.ValidateTimezone)
	o.String("ITOI_SITE_RENDERER", &c.Site.Renderer, pkgconfig.OneOf("auto", "chrome", "http"))
	o.String("ITOI_CHROME_PATH", &c.Site.ChromePath, nil)
	o.Duration("ITOI_RENDER_TIMEOUT", &c.Site.RenderTimeout, positive)

	o.String("ITOI_TRANSLATOR_PROVIDER", &c.Translator.Provider, pkgconfig.OneOf("claude", "openai", "noop"))
	o.String("ITOI_TRANSLATOR_MODEL", &c.Translator.Model, nil)
	o.Int("ITOI_TRANSLATOR_MAX_TOKENS", &c.Translator.MaxTokens, pkgconfig.IntRange(256, 16000))
	o.Duration("ITOI_TRANSLATOR_TIMEOUT", &c.Translator.Timeout, positive)
	o.String("ITOI_TRANSLATOR_BASE_URL", &c.Translator.BaseURL, nil)

	o.String("ITOI_ARCHIVE_PATH", &c.Archive.Path, nil)
	o.Int("ITOI_ARCHIVE_MAX_ENTRIES", &c.Archive.MaxEntries, pkgconfig.IntRange(0, 1_000_000))
	o.String("ITOI_ARCHIVE_ON_CORRUPT", &c.Archive.OnCorrupt, pkgconfig.OneOf("abort", "reset"))

	o.String("ITOI_FEED_PATH", &c.Feed.Path, nil)
	o.Int("ITOI_FEED_LIMIT", &c.Feed.Limit, pkgconfig.IntRange(1, 500))
	o.String("ITOI_FEED_LINK", &c.Feed.Link, nil)

	o.Bool("ITOI_DISCORD_ENABLED", &c.Notify.Discord.Enabled)
	o.Bool("ITOI_SLACK_ENABLED", &c.Notify.Slack.Enabled)

	o.String("ITOI_SCHEDULE_CRON", &c.Schedule.Cron, pkgconfig.ValidateCronSchedule)
	o.String("ITOI_SCHEDULE_TIMEZONE", &c.Schedule.Timezone, pkgconfig.ValidateTimezone)
	o.Bool("ITOI_SCHEDULE_RUN_ON_START", &c.Schedule.RunOnStart)
	o.String("ITOI_HEALTH_ADDR", &c.Schedule.HealthAddr, nil)
	o.String("ITOI_METRICS_ADDR", &c.Schedule.MetricsAddr, nil)

	o.String("LOG_LEVEL", &c.Observability.LogLevel, pkgconfig.OneOf("debug", "info", "warn", "error"))
	o.String("LOG_FORMAT", &c.Observability.LogFormat, pkgconfig.OneOf("json", "text"))
	o.String("ITOI_METRICS_TEXTFILE", &c.Observability.MetricsTextfile, nil)
	o.Bool("ITOI_TRACING", &c.Observability.Tracing)

	switch c.Translator.Provider {
	case "claude":
		c.Translator.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		c.Translator.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	c.Notify.Discord.WebhookURL = strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_URL"))
	c.Notify.Slack.WebhookURL = strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL"))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("cron5", func(fl validator.FieldLevel) bool {
		return pkgconfig.ValidateCronSchedule(fl.Field().String()) == nil
	})
	return v
}

// Validate checks field constraints. Secrets are checked by ValidateSecrets, since
// offline commands such as render need none.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, describe(verrs))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateSecrets checks that the enabled translator and webhooks have credentials.
func (c *Config) ValidateSecrets() error {
	var errs []error
	switch c.Translator.Provider {
	case "claude":
		if c.Translator.APIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the claude translator"))
		}
	case "openai":
		if c.Translator.APIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai translator"))
		}
	}
	if c.Notify.Discord.Enabled && c.Notify.Discord.WebhookURL == "" {
		errs = append(errs, errors.New("DISCORD_WEBHOOK_URL is required when discord notifications are enabled"))
	}
	if c.Notify.Slack.Enabled && c.Notify.Slack.WebhookURL == "" {
		errs = append(errs, errors.New("SLACK_WEBHOOK_URL is required when slack notifications are enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// describe keeps the validator errors matchable while giving each one a readable message.
func describe(verrs validator.ValidationErrors) error {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed '%s=%s' (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed '%s' (got %v)", field, fe.Tag(), fe.Value()))
		}
	}
	return &fieldErrors{ValidationErrors: verrs, msg: strings.Join(msgs, "; ")}
}

type fieldErrors struct {
	validator.ValidationErrors
	msg string
}

func (e *fieldErrors) Error() string { return e.msg }

func (e *fieldErrors) Unwrap() error { return e.ValidationErrors }

// Location returns the schedule timezone. Validate guarantees it loads.
func (c ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Location returns the site timezone.
func (c SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
