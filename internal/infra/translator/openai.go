package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/resilience/circuitbreaker"
	"itoi-daily/internal/resilience/retry"
)

const providerOpenAI = "openai"

// OpenAI translates essays with OpenAI's chat completion API.
type OpenAI struct {
	engine
	client *openai.Client
}

// NewOpenAI creates an OpenAI translator.
func NewOpenAI(apiKey string, cfg Config) *OpenAI {
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	slog.Info("initialized openai translator",
		slog.String("model", cfg.Model),
		slog.Int("max_tokens", cfg.MaxTokens))

	return &OpenAI{
		engine: engine{
			provider:    providerOpenAI,
			config:      cfg,
			breaker:     circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
			retryConfig: retry.TranslationAPIConfig(),
			metrics:     NewPrometheusMetrics(),
		},
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// WithRetryConfig overrides the retry policy.
func (o *OpenAI) WithRetryConfig(cfg retry.Config) *OpenAI {
	o.retryConfig = cfg
	return o
}

// WithMetrics overrides the metrics recorder.
func (o *OpenAI) WithMetrics(m MetricsRecorder) *OpenAI {
	o.metrics = m
	return o
}

// Translate implements Translator.
func (o *OpenAI) Translate(ctx context.Context, essay entity.RawEssay) (entity.Translation, error) {
	return o.translate(ctx, essay, o.complete)
}

func (o *OpenAI) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai api: %w", httpStatusError(apiErr.HTTPStatusCode, apiErr.Message))
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", fmt.Errorf("openai api: %w", httpStatusError(reqErr.HTTPStatusCode, reqErr.Error()))
		}
		return "", fmt.Errorf("openai api: %w", err)
	}

	// Validate response structure (safety check to prevent panic on array access)
	if len(resp.Choices) == 0 {
		return "", retry.Permanent(errors.New("openai api returned no choices"))
	}
	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		return "", retry.Permanent(fmt.Errorf("%w: openai reply cut off at max_tokens=%d", errTruncatedReply, o.config.MaxTokens))
	}
	return resp.Choices[0].Message.Content, nil
}
