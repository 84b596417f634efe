package translator

import (
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"

	pkgconfig "itoi-daily/internal/pkg/config"
)

const (
	minMaxTokens = 256
	maxMaxTokens = 16000
)

// Config holds the settings shared by the provider adapters.
type Config struct {
	// Model is the provider model identifier.
	Model string

	// MaxTokens bounds the length of the reply.
	MaxTokens int

	// Timeout bounds one Translate call, retries included.
	Timeout time.Duration

	// MaxInputRunes rejects essays longer than this before they are sent. Zero disables it.
	MaxInputRunes int

	// DefaultAuthor is used when the reply carries no Author header.
	DefaultAuthor string

	// BaseURL overrides the provider endpoint. Empty uses the provider default.
	BaseURL string
}

// DefaultClaudeConfig returns the settings used for Claude.
func DefaultClaudeConfig() Config {
	return Config{
		Model:         string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens:     4000,
		Timeout:       3 * time.Minute,
		MaxInputRunes: 20000,
		DefaultAuthor: "Shigesato Itoi",
	}
}

// DefaultOpenAIConfig returns the settings used for OpenAI.
func DefaultOpenAIConfig() Config {
	return Config{
		Model:         openai.GPT4o,
		MaxTokens:     4000,
		Timeout:       3 * time.Minute,
		MaxInputRunes: 20000,
		DefaultAuthor: "Shigesato Itoi",
	}
}

// Validate checks that the configuration can drive a provider.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("translator model is required")
	}
	if err := pkgconfig.ValidateIntRange(c.MaxTokens, minMaxTokens, maxMaxTokens); err != nil {
		return fmt.Errorf("translator max tokens: %w", err)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("translator timeout: %w", err)
	}
	if c.MaxInputRunes < 0 {
		return fmt.Errorf("translator max input runes must not be negative, got %d", c.MaxInputRunes)
	}
	return nil
}
