package scraper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itoi-daily/internal/infra/scraper"
	"itoi-daily/internal/resilience/retry"
)

func TestHTTPRenderer_Render(t *testing.T) {
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>今日のダーリン</body></html>"))
	}))
	defer server.Close()

	r := scraper.NewHTTPRenderer(scraper.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test-agent"}, nil)

	html, err := r.Render(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "<html><body>今日のダーリン</body></html>", html)
	assert.Equal(t, "test-agent", gotHeaders.Get("User-Agent"))
	assert.Equal(t, "ja,en;q=0.9", gotHeaders.Get("Accept-Language"))
	assert.Equal(t, "http", r.Name())
}

func TestHTTPRenderer_StatusError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"server error", http.StatusServiceUnavailable, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"not found", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			r := scraper.NewHTTPRenderer(scraper.HTTPConfig{Timeout: 5 * time.Second}, nil)
			_, err := r.Render(context.Background(), server.URL)

			var httpErr *retry.HTTPError
			require.True(t, errors.As(err, &httpErr), "expected *retry.HTTPError, got %T", err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.retryable, retry.IsRetryable(err))
		})
	}
}

func TestHTTPRenderer_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	r := scraper.NewHTTPRenderer(scraper.HTTPConfig{Timeout: 5 * time.Second, MinInterval: time.Hour}, nil)
	_, err := r.Render(context.Background(), server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Render(ctx, server.URL)

	assert.Error(t, err, "second request must wait for the limiter and hit the deadline")
}
