package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"itoi-daily/internal/observability/tracing"
)

// HealthServer serves the liveness and readiness probes of the schedule command.
//
//   - /health: always 200 while the process is up, with the last run summary
//   - /health/ready: 200 once the scheduler is running, 503 otherwise
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	isReady atomic.Bool

	mu      sync.RWMutex
	lastRun *RunSummary
}

// RunSummary describes the most recent scheduled run.
type RunSummary struct {
	Status     string    `json:"status"`
	Result     string    `json:"result,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

type healthResponse struct {
	Status  string      `json:"status"`
	LastRun *RunSummary `json:"last_run,omitempty"`
}

// NewHealthServer creates a health server that starts out not ready.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{addr: addr, logger: logger}
}

// Handler returns the probe routes, traced.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	return tracing.Middleware(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully and returns
// http.ErrServerClosed.
func (h *HealthServer) Start(ctx context.Context) error {
	return serve(ctx, "health", &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, h.logger)
}

// SetReady sets the readiness state reported by /health/ready.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

// SetLastRun records the outcome shown by /health.
func (h *HealthServer) SetLastRun(summary RunSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRun = &summary
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	resp := healthResponse{Status: "ok", LastRun: h.lastRun}
	h.mu.RUnlock()
	h.write(w, http.StatusOK, resp)
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if h.isReady.Load() {
		h.write(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
}

func (h *HealthServer) write(w http.ResponseWriter, code int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}

// serve runs server until ctx is done or ListenAndServe fails.
func serve(ctx context.Context, name string, server *http.Server, logger *slog.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info(name+" server starting", slog.String("addr", server.Addr))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info(name + " server shutting down")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(name+" server shutdown failed", slog.Any("error", err))
			return err
		}
		logger.Info(name + " server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(name+" server failed", slog.Any("error", err))
		}
		return err
	}
}
