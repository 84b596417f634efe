package translator

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusError   = "error"
	statusInvalid = "invalid_response"
)

// MetricsRecorder records translation metrics.
// Tests inject a fake in place of the Prometheus recorder.
type MetricsRecorder interface {
	// RecordRequest records one Translate call by provider and outcome.
	RecordRequest(provider, status string, duration time.Duration)

	// RecordLength records the length of a translated body in runes.
	RecordLength(provider string, length int)
}

// PrometheusMetrics implements MetricsRecorder with Prometheus collectors.
type PrometheusMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	length   *prometheus.HistogramVec
}

var (
	prometheusMetricsInstance *PrometheusMetrics
	prometheusMetricsOnce     sync.Once
)

// register returns c, or the collector already registered under the same name.
func register[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

// NewPrometheusMetrics returns the process-wide Prometheus recorder.
// It is a singleton so repeated construction in tests does not double-register.
func NewPrometheusMetrics() *PrometheusMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusMetrics{
			requests: register(prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "itoi_translation_requests_total",
				Help: "Total number of essay translations by provider and outcome",
			}, []string{"provider", "status"})),
			duration: register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "itoi_translation_duration_seconds",
				Help:    "Time taken to translate an essay, retries included",
				Buckets: prometheus.ExponentialBuckets(1, 2, 9),
			}, []string{"provider"})),
			length: register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "itoi_translation_length_characters",
				Help:    "Distribution of translated body lengths in characters (Unicode runes)",
				Buckets: []float64{500, 1000, 1500, 2000, 3000, 4000, 6000, 8000},
			}, []string{"provider"})),
		}
	})
	return prometheusMetricsInstance
}

// RecordRequest implements MetricsRecorder.
func (p *PrometheusMetrics) RecordRequest(provider, status string, duration time.Duration) {
	p.requests.WithLabelValues(provider, status).Inc()
	p.duration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordLength implements MetricsRecorder.
func (p *PrometheusMetrics) RecordLength(provider string, length int) {
	p.length.WithLabelValues(provider).Observe(float64(length))
}
