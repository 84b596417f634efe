package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/observability/logging"
	"itoi-daily/internal/resilience/circuitbreaker"
	"itoi-daily/internal/resilience/retry"
	"itoi-daily/internal/utils/text"
)

const (
	defaultRetryAfter = 5 * time.Second
	maxRetryAfter     = 30 * time.Second
	maxErrorBody      = 512
)

// RateLimitError represents a 429 rate limit error from a webhook service.
// It unwraps to a retryable retry.HTTPError.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string // Optional custom message
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// Unwrap lets retry.IsRetryable treat the error as an HTTP 429.
func (e *RateLimitError) Unwrap() error {
	return &retry.HTTPError{StatusCode: http.StatusTooManyRequests, Message: e.Message}
}

// WebhookConfig contains the settings common to webhook notifiers.
type WebhookConfig struct {
	// Enabled indicates whether the notifier is enabled
	Enabled bool

	// WebhookURL includes the authentication token and must never be logged
	WebhookURL string

	// Timeout is the HTTP request timeout for one webhook call
	Timeout time.Duration
}

// webhook posts JSON payloads with rate limiting, retries, and a circuit breaker.
type webhook struct {
	service       string
	url           string
	httpClient    *http.Client
	rateLimiter   *RateLimiter
	breaker       *circuitbreaker.CircuitBreaker
	retryConfig   retry.Config
	maxRetryAfter time.Duration
	// retryAfter reads the back-off hint of a 429 response.
	retryAfter func(resp *http.Response, body []byte) time.Duration
}

func newWebhook(service string, cfg WebhookConfig, limiter *RateLimiter) webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return webhook{
		service:       service,
		url:           cfg.WebhookURL,
		httpClient:    &http.Client{Timeout: timeout},
		rateLimiter:   limiter,
		breaker:       circuitbreaker.New(circuitbreaker.WebhookConfig(service + "-webhook")),
		retryConfig:   retry.WebhookConfig(),
		maxRetryAfter: maxRetryAfter,
		retryAfter:    retryAfterHeader,
	}
}

// deliver sends payload for entry and logs every outcome with a request id.
func (w *webhook) deliver(ctx context.Context, entry entity.Entry, payload any) error {
	logger := logging.FromContext(ctx).With(
		slog.String("notifier", w.service),
		slog.String("request_id", uuid.NewString()),
		slog.String("fingerprint", entry.Fingerprint))

	logger.Info("starting notification", slog.String("title", entry.Title))

	if err := w.rateLimiter.Allow(ctx); err != nil {
		logger.Error("rate limiter error", slog.Any("error", err))
		return fmt.Errorf("rate limiter error: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	attempt := 0
	err = retry.WithBackoff(ctx, w.retryConfig, func() error {
		attempt++
		_, err := circuitbreaker.Do(w.breaker, func() (struct{}, error) {
			return struct{}{}, w.post(ctx, data)
		})
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return retry.Permanent(err)
		}

		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			wait := min(rateLimitErr.RetryAfter, w.maxRetryAfter)
			logger.Warn("webhook rate limit hit, backing off",
				slog.Duration("retry_after", wait),
				slog.Int("attempt", attempt))
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return retry.Permanent(fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err()))
			}
		}
		return err
	})
	if err != nil {
		logger.Error("notification failed",
			slog.Int("attempts", attempt),
			slog.String("error", logging.SanitizeError(err)))
		return fmt.Errorf("%s notification failed: %w", w.service, err)
	}

	logger.Info("notification successful", slog.Int("attempts", attempt))
	return nil
}

// post sends one webhook request.
//
// Error types:
//   - 429: *RateLimitError (retryable, carries the back-off hint)
//   - other status codes: *retry.HTTPError (retryable for 5xx and 408)
//   - network errors: returned as is
func (w *webhook) post(ctx context.Context, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Message:    w.service + " rate limit exceeded",
			RetryAfter: w.retryAfter(resp, body),
		}
	}
	return &retry.HTTPError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("%s webhook error: %s", w.service, text.Truncate(strings.TrimSpace(string(body)), maxErrorBody)),
	}
}

// retryAfterHeader reads the Retry-After header in seconds, defaulting to 5s.
func retryAfterHeader(resp *http.Response, _ []byte) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultRetryAfter
}

// excerpt returns the opening of the entry body, cut at maxRunes.
func excerpt(entry entity.Entry, maxRunes int) string {
	return text.Truncate(strings.Join(entry.Paragraphs(), "\n\n"), maxRunes)
}
