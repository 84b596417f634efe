// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run metrics track the outcome of each batch run
var (
	// RunsTotal counts runs by outcome: published, duplicate, repaired, dry_run, failed
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itoi_runs_total",
			Help: "Total number of batch runs by outcome",
		},
		[]string{"status"},
	)

	// RunFailuresTotal counts failed runs by the stage that failed
	RunFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itoi_run_failures_total",
			Help: "Total number of failed runs by stage",
		},
		[]string{"stage"},
	)

	// RunDuration measures end-to-end run duration in seconds
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "itoi_run_duration_seconds",
			Help:    "Duration of a batch run in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// LastSuccessTimestamp is the unix time of the last run that ended without error
	LastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "itoi_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful run",
		},
	)
)

// Archive and feed metrics describe the persisted state
var (
	// ArchiveEntries is the number of entries in the archive after the last run
	ArchiveEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "itoi_archive_entries",
			Help: "Number of entries in the archive",
		},
	)

	// ArchiveQuarantinedTotal counts records moved to quarantine on load
	ArchiveQuarantinedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "itoi_archive_quarantined_total",
			Help: "Total number of archive records quarantined on load",
		},
	)

	// FeedItems is the number of items in the last rendered feed
	FeedItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "itoi_feed_items",
			Help: "Number of items in the rendered feed",
		},
	)
)

// Scrape metrics track the essay page fetch
var (
	// ScrapeDuration measures page render plus extraction time by renderer and status
	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "itoi_scrape_duration_seconds",
			Help:    "Time taken to fetch and extract the essay",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"renderer", "status"},
	)

	// ExtractionStrategyTotal counts which extraction strategy produced the essay
	ExtractionStrategyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itoi_extraction_strategy_total",
			Help: "Total number of successful extractions by strategy",
		},
		[]string{"strategy"},
	)
)
