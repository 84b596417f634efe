// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the batch job metrics:
//   - Run outcomes, failure stages, and durations
//   - Archive size, quarantined records, and feed item count
//   - Scrape duration and extraction strategy
//
// All metrics are registered with the Prometheus default registry. The schedule
// command exposes them on /metrics; one-shot runs can write them to a textfile.
//
// Example usage:
//
//	start := time.Now()
//	// ... run ...
//	metrics.RecordRun("published", time.Since(start), true)
//	_ = metrics.WriteTextfile("/var/lib/node_exporter/itoi.prom")
package metrics
