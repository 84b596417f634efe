package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(RunsTotal.WithLabelValues("published"))

	RecordRun("published", 3*time.Second, true)

	assert.Equal(t, before+1, testutil.ToFloat64(RunsTotal.WithLabelValues("published")))
	assert.Greater(t, testutil.ToFloat64(LastSuccessTimestamp), float64(0))
}

func TestRecordRun_FailureKeepsLastSuccess(t *testing.T) {
	LastSuccessTimestamp.Set(42)

	RecordRun("failed", time.Second, false)

	assert.Equal(t, float64(42), testutil.ToFloat64(LastSuccessTimestamp))
}

func TestRecordRunFailure(t *testing.T) {
	before := testutil.ToFloat64(RunFailuresTotal.WithLabelValues("translate"))

	RecordRunFailure("translate")

	assert.Equal(t, before+1, testutil.ToFloat64(RunFailuresTotal.WithLabelValues("translate")))
}

func TestUpdateArchiveState(t *testing.T) {
	UpdateArchiveState(4, 2)

	assert.Equal(t, float64(4), testutil.ToFloat64(ArchiveEntries))
	assert.Equal(t, float64(2), testutil.ToFloat64(FeedItems))
}

func TestRecordQuarantined(t *testing.T) {
	before := testutil.ToFloat64(ArchiveQuarantinedTotal)

	RecordQuarantined(0)
	RecordQuarantined(3)

	assert.Equal(t, before+3, testutil.ToFloat64(ArchiveQuarantinedTotal))
}

func TestRecordScrapeAndStrategy(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordScrape("chrome", 2*time.Second, true)
		RecordScrape("http", 100*time.Millisecond, false)
	})

	before := testutil.ToFloat64(ExtractionStrategyTotal.WithLabelValues("author_block"))
	RecordExtractionStrategy("author_block")
	assert.Equal(t, before+1, testutil.ToFloat64(ExtractionStrategyTotal.WithLabelValues("author_block")))
}

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "itoi.prom")
	RecordRun("duplicate", time.Second, true)

	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "itoi_runs_total")
}
