package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/resilience/circuitbreaker"
	"itoi-daily/internal/resilience/retry"
)

const providerClaude = "claude"

// Claude translates essays with Anthropic's Claude API.
type Claude struct {
	engine
	client anthropic.Client
}

// NewClaude creates a Claude translator.
// Retries are handled by the translator itself, so the SDK's own retries are off.
func NewClaude(apiKey string, cfg Config) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	slog.Info("initialized claude translator",
		slog.String("model", cfg.Model),
		slog.Int("max_tokens", cfg.MaxTokens))

	return &Claude{
		engine: engine{
			provider:    providerClaude,
			config:      cfg,
			breaker:     circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
			retryConfig: retry.TranslationAPIConfig(),
			metrics:     NewPrometheusMetrics(),
		},
		client: anthropic.NewClient(opts...),
	}
}

// WithRetryConfig overrides the retry policy.
func (c *Claude) WithRetryConfig(cfg retry.Config) *Claude {
	c.retryConfig = cfg
	return c
}

// WithMetrics overrides the metrics recorder.
func (c *Claude) WithMetrics(m MetricsRecorder) *Claude {
	c.metrics = m
	return c
}

// Translate implements Translator.
func (c *Claude) Translate(ctx context.Context, essay entity.RawEssay) (entity.Translation, error) {
	return c.translate(ctx, essay, c.complete)
}

func (c *Claude) complete(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("claude api: %w", httpStatusError(apiErr.StatusCode, apiErr.Error()))
		}
		return "", fmt.Errorf("claude api: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", retry.Permanent(errors.New("claude api returned no text content"))
	}
	if message.StopReason == anthropic.StopReasonMaxTokens {
		return "", retry.Permanent(fmt.Errorf("%w: claude reply cut off at max_tokens=%d", errTruncatedReply, c.config.MaxTokens))
	}
	return sb.String(), nil
}
