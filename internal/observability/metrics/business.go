package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordRun records the outcome and duration of one batch run.
// A nil-error outcome also moves the last-success timestamp.
func RecordRun(status string, duration time.Duration, succeeded bool) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration.Seconds())
	if succeeded {
		LastSuccessTimestamp.SetToCurrentTime()
	}
}

// RecordRunFailure records the stage at which a run failed.
func RecordRunFailure(stage string) {
	RunFailuresTotal.WithLabelValues(stage).Inc()
}

// UpdateArchiveState records the archive size and the number of feed items rendered.
func UpdateArchiveState(entries, feedItems int) {
	ArchiveEntries.Set(float64(entries))
	FeedItems.Set(float64(feedItems))
}

// RecordQuarantined records archive records quarantined on load.
func RecordQuarantined(count int) {
	if count > 0 {
		ArchiveQuarantinedTotal.Add(float64(count))
	}
}

// RecordScrape records a page fetch attempt through one renderer.
func RecordScrape(renderer string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	ScrapeDuration.WithLabelValues(renderer, status).Observe(duration.Seconds())
}

// RecordExtractionStrategy records the strategy that yielded the essay body.
func RecordExtractionStrategy(strategy string) {
	ExtractionStrategyTotal.WithLabelValues(strategy).Inc()
}

// WriteTextfile writes every registered metric to path in the text exposition
// format, for collection by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
