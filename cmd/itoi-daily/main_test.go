package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itoi-daily/internal/domain/entity"
)

// execute runs the root command with fresh flag values.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	configPath, runDryRun, fingerprintRaw = "", false, false

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFingerprintCommand(t *testing.T) {
	body := "きょうは雨でした。\n\nそれでも犬は散歩に行きたがりました。"

	t.Run("stdin is trimmed", func(t *testing.T) {
		out, err := execute(t, "\n"+body+"\n", "fingerprint")

		require.NoError(t, err)
		assert.Equal(t, entity.Fingerprint(body)+"\n", out)
	})

	t.Run("raw keeps whitespace", func(t *testing.T) {
		out, err := execute(t, body+"\n", "fingerprint", "--raw")

		require.NoError(t, err)
		assert.Equal(t, entity.Fingerprint(body+"\n")+"\n", out)
	})

	t.Run("file argument", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "essay.txt")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		out, err := execute(t, "", "fingerprint", path)

		require.NoError(t, err)
		assert.Equal(t, entity.Fingerprint(body)+"\n", out)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "", "fingerprint", filepath.Join(t.TempDir(), "absent.txt"))

		assert.ErrorContains(t, err, "read essay body")
	})
}

func TestRenderCommand(t *testing.T) {
	// Arrange
	for _, k := range []string{"ITOI_CONFIG", "ITOI_ARCHIVE_PATH", "ITOI_FEED_PATH", "ITOI_FEED_LIMIT",
		"ITOI_TRANSLATOR_PROVIDER", "ANTHROPIC_API_KEY", "ITOI_TRACING", "ITOI_METRICS_TEXTFILE",
		"ITOI_DISCORD_ENABLED", "ITOI_SLACK_ENABLED"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "archive.json")
	feedPath := filepath.Join(dir, "feed.xml")
	configFile := filepath.Join(dir, "itoi.yaml")

	var entries []entity.Entry
	for i, title := range []string{"Newest", "Middle", "Oldest"} {
		entries = append(entries, entity.Entry{
			Fingerprint: entity.Fingerprint(title),
			Title:       title,
			Author:      "Shigesato Itoi",
			Body:        "Body of " + title,
			PublishedAt: time.Date(2025, 3, 3-i, 22, 0, 0, 0, time.UTC),
			SourceURL:   "https://www.1101.com/",
		})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(archivePath, data, 0o600))
	require.NoError(t, os.WriteFile(configFile, []byte(
		"archive:\n  path: "+archivePath+"\nfeed:\n  path: "+feedPath+"\n  limit: 2\n"), 0o600))

	// Act
	out, err := execute(t, "", "render", "--config", configFile)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "status: rendered")
	assert.Contains(t, out, "archive entries: 3")
	assert.Contains(t, out, "feed items: 2")

	doc, err := os.ReadFile(feedPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Newest")
	assert.Contains(t, string(doc), "Middle")
	assert.NotContains(t, string(doc), "Oldest")

	after, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	assert.Equal(t, data, after, "render never rewrites the archive")
}

func TestRunCommand_RequiresAPIKey(t *testing.T) {
	for _, k := range []string{"ITOI_CONFIG", "ITOI_TRANSLATOR_PROVIDER", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
	}

	_, err := execute(t, "", "run", "--dry-run")

	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
}
