package scraper

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"itoi-daily/internal/resilience/retry"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxBodySize      = 10 * 1024 * 1024 // 10MB
)

// HTTPConfig configures the plain HTTP renderer.
type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
	// MinInterval is the minimum time between two requests to the site.
	MinInterval time.Duration
}

// DefaultHTTPConfig returns settings suited to the essay site.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:     30 * time.Second,
		UserAgent:   defaultUserAgent,
		MinInterval: 2 * time.Second,
	}
}

// HTTPRenderer fetches the server-rendered HTML without running scripts.
type HTTPRenderer struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPRenderer creates an HTTPRenderer. A nil client gets a default one.
func NewHTTPRenderer(cfg HTTPConfig, client *http.Client) *HTTPRenderer {
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		}
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &HTTPRenderer{
		client:    client,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: ua,
	}
}

// Name implements PageRenderer.
func (r *HTTPRenderer) Name() string { return "http" }

// Render GETs url and returns the response body.
func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept-Language", "ja,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodySize {
		return "", fmt.Errorf("response exceeds %d bytes", maxBodySize)
	}
	return string(body), nil
}
