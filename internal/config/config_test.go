package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ITOI_SITE_URL", "ITOI_SITE_TIMEZONE", "ITOI_SITE_RENDERER", "ITOI_CHROME_PATH", "ITOI_RENDER_TIMEOUT",
	"ITOI_TRANSLATOR_PROVIDER", "ITOI_TRANSLATOR_MODEL", "ITOI_TRANSLATOR_MAX_TOKENS",
	"ITOI_TRANSLATOR_TIMEOUT", "ITOI_TRANSLATOR_BASE_URL",
	"ITOI_ARCHIVE_PATH", "ITOI_ARCHIVE_MAX_ENTRIES", "ITOI_ARCHIVE_ON_CORRUPT",
	"ITOI_FEED_PATH", "ITOI_FEED_LIMIT", "ITOI_FEED_LINK",
	"ITOI_DISCORD_ENABLED", "ITOI_SLACK_ENABLED",
	"ITOI_SCHEDULE_CRON", "ITOI_SCHEDULE_TIMEZONE", "ITOI_SCHEDULE_RUN_ON_START",
	"ITOI_HEALTH_ADDR", "ITOI_METRICS_ADDR",
	"LOG_LEVEL", "LOG_FORMAT", "ITOI_METRICS_TEXTFILE", "ITOI_TRACING",
	"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "DISCORD_WEBHOOK_URL", "SLACK_WEBHOOK_URL",
}

// cleanEnv blanks every variable Load reads so the host environment cannot leak in.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "itoi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

/* ───────── defaults ───────── */

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, warnings, err := Load("")

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "https://www.1101.com/", cfg.Site.URL)
	assert.Equal(t, "claude", cfg.Translator.Provider)
	assert.Equal(t, "sk-ant-test", cfg.Translator.APIKey)
	assert.Equal(t, 30, cfg.Feed.Limit)
	assert.Equal(t, 0, cfg.Archive.MaxEntries, "the archive is unbounded by default")
	assert.Equal(t, "abort", cfg.Archive.OnCorrupt)
	assert.Equal(t, "0 7 * * *", cfg.Schedule.Cron)
	assert.Equal(t, "Asia/Tokyo", cfg.Schedule.Location().String())
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	cfg.Translator.APIKey = "key"

	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateSecrets())
}

/* ───────── file ───────── */

func TestLoad_File(t *testing.T) {
	cleanEnv(t)
	path := writeFile(t, `
translator:
  provider: noop
archive:
  path: /var/lib/itoi/archive.json
  max_entries: 1000
  on_corrupt: reset
feed:
  path: /srv/www/itoi.xml
  limit: 10
  link: https://itoi.example.com/
schedule:
  cron: "30 6 * * *"
  run_on_start: true
site:
  render_timeout: 90s
`)

	cfg, warnings, err := Load(path)

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "noop", cfg.Translator.Provider)
	assert.Equal(t, "/var/lib/itoi/archive.json", cfg.Archive.Path)
	assert.Equal(t, 1000, cfg.Archive.MaxEntries)
	assert.Equal(t, "reset", cfg.Archive.OnCorrupt)
	assert.Equal(t, 10, cfg.Feed.Limit)
	assert.Equal(t, "https://itoi.example.com/", cfg.Feed.Link)
	assert.Equal(t, "30 6 * * *", cfg.Schedule.Cron)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, 90*time.Second, cfg.Site.RenderTimeout)
	assert.Equal(t, "Today's Darling (English)", cfg.Feed.Title, "unset keys keep defaults")
}

func TestLoad_EmptyFile(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ITOI_TRANSLATOR_PROVIDER", "noop")

	cfg, _, err := Load(writeFile(t, ""))

	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Feed.Limit)
}

func TestLoad_FileErrors(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ITOI_TRANSLATOR_PROVIDER", "noop")

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantMsg string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") },
			wantMsg: "read config file",
		},
		{
			name:    "unknown key",
			path:    func(t *testing.T) string { return writeFile(t, "feed:\n  limt: 10\n") },
			wantMsg: "parse config file",
		},
		{
			name:    "malformed yaml",
			path:    func(t *testing.T) string { return writeFile(t, "feed: [unterminated\n") },
			wantMsg: "parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(tt.path(t))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_SecretsAreNotReadFromFile(t *testing.T) {
	cleanEnv(t)
	path := writeFile(t, "translator:\n  api_key: from-file\n")

	_, _, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

/* ───────── environment ───────── */

func TestLoad_EnvOverridesFile(t *testing.T) {
	cleanEnv(t)
	path := writeFile(t, "translator:\n  provider: claude\nfeed:\n  limit: 10\n")
	t.Setenv("ITOI_TRANSLATOR_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ITOI_FEED_LIMIT", "5")
	t.Setenv("ITOI_TRANSLATOR_TIMEOUT", "45s")
	t.Setenv("ITOI_DISCORD_ENABLED", "true")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")

	cfg, warnings, err := Load(path)

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "openai", cfg.Translator.Provider)
	assert.Equal(t, "sk-openai", cfg.Translator.APIKey)
	assert.Equal(t, 5, cfg.Feed.Limit)
	assert.Equal(t, 45*time.Second, cfg.Translator.Timeout)
	assert.True(t, cfg.Notify.Discord.Enabled)
	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.Notify.Discord.WebhookURL)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ITOI_TRANSLATOR_PROVIDER", "noop")
	t.Setenv("ITOI_FEED_LIMIT", "thirty")
	t.Setenv("ITOI_SCHEDULE_CRON", "every morning")
	t.Setenv("ITOI_ARCHIVE_ON_CORRUPT", "ignore")

	cfg, warnings, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Feed.Limit)
	assert.Equal(t, "0 7 * * *", cfg.Schedule.Cron)
	assert.Equal(t, "abort", cfg.Archive.OnCorrupt)
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "ITOI_ARCHIVE_ON_CORRUPT")
	assert.Contains(t, warnings[1], "ITOI_FEED_LIMIT")
	assert.Contains(t, warnings[2], "ITOI_SCHEDULE_CRON")
}

/* ───────── validation ───────── */

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"feed limit zero", func(c *Config) { c.Feed.Limit = 0 }, "Feed.Limit"},
		{"unknown provider", func(c *Config) { c.Translator.Provider = "gemini" }, "Translator.Provider"},
		{"relative site url", func(c *Config) { c.Site.URL = "www.1101.com" }, "Site.URL"},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Tokyo" }, "Schedule.Timezone"},
		{"six field cron", func(c *Config) { c.Schedule.Cron = "0 0 7 * * *" }, "Schedule.Cron"},
		{"negative max entries", func(c *Config) { c.Archive.MaxEntries = -1 }, "Archive.MaxEntries"},
		{"empty archive path", func(c *Config) { c.Archive.Path = "" }, "Archive.Path"},
		{"bad log format", func(c *Config) { c.Observability.LogFormat = "xml" }, "Observability.LogFormat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Translator.APIKey = "key"
			tt.mutate(&cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateSecrets(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing api key", func(c *Config) { c.Translator.APIKey = "" }, "ANTHROPIC_API_KEY"},
		{"openai without key", func(c *Config) { c.Translator.Provider = "openai"; c.Translator.APIKey = "" }, "OPENAI_API_KEY"},
		{"discord without url", func(c *Config) { c.Notify.Discord.Enabled = true }, "DISCORD_WEBHOOK_URL"},
		{"slack without url", func(c *Config) { c.Notify.Slack.Enabled = true }, "SLACK_WEBHOOK_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Translator.APIKey = "key"
			tt.mutate(&cfg)

			err := cfg.ValidateSecrets()

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateSecrets_NoopNeedsNoKey(t *testing.T) {
	cfg := Default()
	cfg.Translator.Provider = "noop"

	assert.NoError(t, cfg.ValidateSecrets())
}

func TestLoad_MissingKeyIsNotALoadError(t *testing.T) {
	cleanEnv(t)

	cfg, _, err := Load("")

	require.NoError(t, err)
	assert.Error(t, cfg.ValidateSecrets())
}

func TestValidate_ExposesFieldErrors(t *testing.T) {
	cfg := Default()
	cfg.Translator.APIKey = "key"
	cfg.Feed.Limit = 1000

	err := cfg.Validate()

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "max", verrs[0].Tag())
}
