package worker

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"itoi-daily/internal/observability/tracing"
)

// MetricsServer exposes the default Prometheus registry on /metrics.
type MetricsServer struct {
	addr   string
	logger *slog.Logger
}

// NewMetricsServer creates a metrics server for addr.
func NewMetricsServer(addr string, logger *slog.Logger) *MetricsServer {
	return &MetricsServer{addr: addr, logger: logger}
}

// Handler returns the /metrics route, traced.
func (m *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return tracing.Middleware(mux)
}

// Start serves until ctx is cancelled.
func (m *MetricsServer) Start(ctx context.Context) error {
	return serve(ctx, "metrics", &http.Server{
		Addr:         m.addr,
		Handler:      m.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}, m.logger)
}
