// Package observability groups the logging, metrics, tracing and SLO packages
// used by itoi-daily.
//
// Subpackages:
//   - logging: slog setup, run ids and context propagation
//   - metrics: Prometheus collectors for runs, the archive and the feed
//   - tracing: OpenTelemetry spans for the publish pipeline and ops endpoints
//   - slo: feed freshness objective
package observability
