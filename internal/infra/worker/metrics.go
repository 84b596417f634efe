package worker

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job run statuses.
const (
	StatusStarted = "started"
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// WorkerMetrics tracks the scheduler itself. Outcomes of the publish run are
// recorded separately by the publish service.
type WorkerMetrics struct {
	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobLastSuccessTimestamp prometheus.Gauge
	CronJobNextRunTimestamp     prometheus.Gauge
}

var (
	workerMetricsOnce sync.Once
	workerMetrics     *WorkerMetrics
)

// NewWorkerMetrics returns the process-wide scheduler metrics.
func NewWorkerMetrics() *WorkerMetrics {
	workerMetricsOnce.Do(func() {
		workerMetrics = &WorkerMetrics{
			CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "itoi_scheduler_job_runs_total",
				Help: "Total number of scheduled job triggers by status (started/success/failure/skipped)",
			}, []string{"status"}),
			CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "itoi_scheduler_job_duration_seconds",
				Help:    "Duration of scheduled job execution in seconds",
				Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
			}),
			CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "itoi_scheduler_job_last_success_timestamp",
				Help: "Unix timestamp of the last successful scheduled job",
			}),
			CronJobNextRunTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "itoi_scheduler_next_run_timestamp",
				Help: "Unix timestamp of the next scheduled job",
			}),
		}
	})
	return workerMetrics
}

func (m *WorkerMetrics) RecordJobRun(status string) {
	m.CronJobRunsTotal.WithLabelValues(status).Inc()
}

func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}

func (m *WorkerMetrics) RecordNextRun(unix int64) {
	m.CronJobNextRunTimestamp.Set(float64(unix))
}
