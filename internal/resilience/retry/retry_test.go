package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   5 * time.Millisecond,
		MaxDelay:       20 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 529, Message: "Overloaded"}
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoff_MaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	testErr := &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return testErr
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, testErr) {
		t.Errorf("expected wrapped error to contain original error")
	}
}

func TestWithBackoff_SingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	testErr := &HTTPError{StatusCode: 500, Message: "boom"}
	err := WithBackoff(context.Background(), fastConfig(1), func() error { return testErr })

	if err != testErr {
		t.Errorf("expected the original error, got %v", err)
	}
}

func TestWithBackoff_ZeroAttemptsStillRunsOnce(t *testing.T) {
	attempts := 0
	_ = WithBackoff(context.Background(), fastConfig(0), func() error {
		attempts++
		return nil
	})

	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithBackoff_NonRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"client error", &HTTPError{StatusCode: 401, Message: "Unauthorized"}},
		{"permanent", Permanent(errors.New("empty translation"))},
		{"plain error", errors.New("selector not found")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := WithBackoff(context.Background(), fastConfig(3), func() error {
				attempts++
				return tt.err
			})

			if err != tt.err {
				t.Errorf("expected same error, got %v", err)
			}
			if attempts != 1 {
				t.Errorf("expected 1 attempt (non-retryable), got %d", attempts)
			}
		})
	}
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = 50 * time.Millisecond

	attempts := 0
	err := WithBackoff(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return &HTTPError{StatusCode: 500, Message: "Server Error"}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled error, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"HTTP 500", &HTTPError{StatusCode: 500}, true},
		{"HTTP 529 overloaded", &HTTPError{StatusCode: 529}, true},
		{"HTTP 429", &HTTPError{StatusCode: 429}, true},
		{"HTTP 408", &HTTPError{StatusCode: 408}, true},
		{"HTTP 400", &HTTPError{StatusCode: 400}, false},
		{"HTTP 404", &HTTPError{StatusCode: 404}, false},
		{"wrapped HTTP 502", fmt.Errorf("fetch page: %w", &HTTPError{StatusCode: 502}), true},
		{"permanent wrapping retryable", Permanent(&HTTPError{StatusCode: 503}), false},
		{"ECONNREFUSED", syscall.ECONNREFUSED, true},
		{"ECONNRESET", syscall.ECONNRESET, true},
		{"ETIMEDOUT", syscall.ETIMEDOUT, true},
		{"ENETUNREACH", syscall.ENETUNREACH, true},
		{"generic error", errors.New("some error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}

	base := errors.New("bad response")
	err := Permanent(base)
	if !errors.Is(err, base) {
		t.Error("Permanent should unwrap to the original error")
	}
	if err.Error() != "bad response" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestConfigs(t *testing.T) {
	tests := []struct {
		name         string
		cfg          Config
		attempts     int
		initialDelay time.Duration
	}{
		{"default", DefaultConfig(), 3, 1 * time.Second},
		{"page fetch", PageFetchConfig(), 3, 2 * time.Second},
		{"translation api", TranslationAPIConfig(), 3, 2 * time.Second},
		{"webhook", WebhookConfig(), 3, 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.cfg.MaxAttempts != tt.attempts {
				t.Errorf("expected MaxAttempts=%d, got %d", tt.attempts, tt.cfg.MaxAttempts)
			}
			if tt.cfg.InitialDelay != tt.initialDelay {
				t.Errorf("expected InitialDelay=%v, got %v", tt.initialDelay, tt.cfg.InitialDelay)
			}
			if tt.cfg.MaxDelay < tt.cfg.InitialDelay {
				t.Errorf("MaxDelay %v below InitialDelay %v", tt.cfg.MaxDelay, tt.cfg.InitialDelay)
			}
		})
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 500, Message: "Internal Server Error"}
	expected := "HTTP 500: Internal Server Error"

	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestAddJitter(t *testing.T) {
	duration := 100 * time.Millisecond

	results := make(map[time.Duration]bool)
	for i := 0; i < 20; i++ {
		result := addJitter(duration, 0.2)
		if result < duration || result > time.Duration(float64(duration)*1.2) {
			t.Errorf("jitter out of range: %v", result)
		}
		results[result] = true
	}

	if len(results) < 2 {
		t.Error("expected jitter to produce varied results")
	}
}

func TestAddJitter_ZeroFraction(t *testing.T) {
	duration := 100 * time.Millisecond
	if result := addJitter(duration, 0.0); result != duration {
		t.Errorf("expected no jitter with fraction=0, got %v", result)
	}
}
