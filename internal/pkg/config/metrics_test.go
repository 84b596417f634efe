package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestConfigMetrics(t *testing.T) {
	m := NewConfigMetrics("itoi_test_metrics")

	m.RecordFallback("ITOI_FEED_LIMIT")
	m.RecordFallback("ITOI_FEED_LIMIT")
	m.RecordValidationError("feed.limit")
	m.SetFallbackActive(true)
	m.RecordLoadTimestamp()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("ITOI_FEED_LIMIT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("feed.limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), 0.0)

	m.SetFallbackActive(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackActive))
}

func TestNewConfigMetrics_SameNameSharesSeries(t *testing.T) {
	a := NewConfigMetrics("itoi_test_shared")
	b := NewConfigMetrics("itoi_test_shared")

	a.RecordFallback("X")

	assert.Equal(t, 1.0, testutil.ToFloat64(b.FallbacksTotal.WithLabelValues("X")))
}
