// Package slo tracks the service level objective of the daily feed: a new
// essay should appear in the feed every day.
package slo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FreshnessSLO is the maximum age of the newest feed entry. The essay is posted
// daily, so anything older than a day plus a little slack means a run was missed.
const FreshnessSLO = 26 * time.Hour

var (
	// FeedAge is the age in seconds of the newest archived entry at the last run.
	FeedAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "itoi_slo_feed_age_seconds",
		Help: "Age of the newest feed entry in seconds, target: below 93600",
	})

	// FeedFresh is 1 while the newest entry is within FreshnessSLO, 0 otherwise.
	FeedFresh = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "itoi_slo_feed_fresh",
		Help: "1 if the newest feed entry is within the freshness objective",
	})
)

// UpdateFreshness records the age of the newest entry as of now.
func UpdateFreshness(latest, now time.Time) {
	age := now.Sub(latest)
	if age < 0 {
		age = 0
	}
	FeedAge.Set(age.Seconds())
	if age <= FreshnessSLO {
		FeedFresh.Set(1)
	} else {
		FeedFresh.Set(0)
	}
}
