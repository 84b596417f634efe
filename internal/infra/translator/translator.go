// Package translator turns a scraped Japanese essay into English using an LLM.
// It includes adapters for Claude (Anthropic) and OpenAI with retry and circuit
// breaker protection, a shared prompt, and a tolerant response parser.
package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/observability/logging"
	"itoi-daily/internal/resilience/circuitbreaker"
	"itoi-daily/internal/resilience/retry"
	"itoi-daily/internal/utils/text"
)

// Translator translates one essay.
// Failures wrap entity.ErrTranslationFailed.
type Translator interface {
	Translate(ctx context.Context, essay entity.RawEssay) (entity.Translation, error)
}

// maxTitleRunes bounds the first-line title heuristic used when the model ignores
// the header format.
const maxTitleRunes = 100

const promptTemplate = `Translate this Japanese essay by %s into natural, readable English.

Guidelines:
- Preserve the author's warm, conversational, and reflective tone
- Keep the translation flowing naturally - don't be overly literal
- For cultural references that English readers might not know, add a brief [translator's note] inline
- Preserve any wordplay or puns where possible, with explanation if needed
- Keep paragraph breaks as in the original

Reply in exactly this format:
Title: <translated title>
Author: <author name in English>
---
<translated essay>

Title: %s

Essay:
%s`

// errTruncatedReply marks a reply the provider stopped at the token limit.
var errTruncatedReply = errors.New("reply truncated")

// BuildPrompt renders the translation prompt for essay.
func BuildPrompt(essay entity.RawEssay) string {
	author := essay.Author
	if strings.TrimSpace(author) == "" {
		author = "Shigesato Itoi"
	}
	return fmt.Sprintf(promptTemplate, author, essay.Title, essay.Body)
}

// ParseResponse splits a model reply into a Translation.
//
// The expected reply carries "Title:" and "Author:" header lines followed by a "---"
// separator. Without the separator, a first line shorter than 100 runes is taken
// as the title and the rest as the body; otherwise the whole reply is the body and
// the original title is kept.
func ParseResponse(reply string, essay entity.RawEssay, defaultAuthor string) (entity.Translation, error) {
	reply = strings.TrimSpace(strings.ReplaceAll(reply, "\r\n", "\n"))
	if reply == "" {
		return entity.Translation{}, fmt.Errorf("%w: empty response", entity.ErrTranslationFailed)
	}

	tr := entity.Translation{Author: defaultAuthor}
	lines := strings.Split(reply, "\n")

	if sep := separatorIndex(lines); sep >= 0 {
		for _, line := range lines[:sep] {
			if v, ok := header(line, "Title:"); ok {
				tr.Title = v
			} else if v, ok := header(line, "Author:"); ok && v != "" {
				tr.Author = v
			}
		}
		tr.Body = strings.TrimSpace(strings.Join(lines[sep+1:], "\n"))
	} else {
		first := strings.TrimSpace(strings.TrimLeft(lines[0], "# "))
		if v, ok := header(first, "Title:"); ok {
			first = v
		}
		rest := strings.TrimSpace(strings.Join(lines[1:], "\n"))
		if first != "" && text.CountRunes(first) < maxTitleRunes && rest != "" {
			tr.Title = first
			tr.Body = rest
		} else {
			tr.Body = reply
		}
	}

	if tr.Title == "" {
		tr.Title = essay.Title
	}
	if tr.IsEmpty() {
		return entity.Translation{}, fmt.Errorf("%w: response has no essay body", entity.ErrTranslationFailed)
	}
	return tr, nil
}

// separatorIndex returns the index of the "---" line closing the header block, or -1.
// Only the first few lines are searched so a rule inside the essay is not mistaken
// for the separator.
func separatorIndex(lines []string) int {
	for i, line := range lines {
		if i > 4 {
			break
		}
		if i > 0 && strings.TrimSpace(line) == "---" {
			return i
		}
	}
	return -1
}

func header(line, name string) (string, bool) {
	line = strings.TrimSpace(line)
	if len(line) < len(name) || !strings.EqualFold(line[:len(name)], name) {
		return "", false
	}
	return strings.TrimSpace(line[len(name):]), true
}

// completeFunc sends one prompt to a provider and returns the raw reply.
type completeFunc func(ctx context.Context, prompt string) (string, error)

// engine holds the behaviour shared by every provider adapter.
type engine struct {
	provider    string
	config      Config
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	metrics     MetricsRecorder
}

func (e *engine) translate(ctx context.Context, essay entity.RawEssay, complete completeFunc) (entity.Translation, error) {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	logger := logging.FromContext(ctx).With(
		slog.String("provider", e.provider),
		slog.String("request_id", uuid.NewString()))

	inputLength := text.CountRunes(essay.Body)
	if e.config.MaxInputRunes > 0 && inputLength > e.config.MaxInputRunes {
		logger.Error("essay too long to translate",
			slog.Int("input_length", inputLength),
			slog.Int("max_input_runes", e.config.MaxInputRunes))
		return entity.Translation{}, fmt.Errorf("%w: essay has %d runes, limit is %d",
			entity.ErrTranslationFailed, inputLength, e.config.MaxInputRunes)
	}

	prompt := BuildPrompt(essay)
	logger.Info("starting translation",
		slog.String("model", e.config.Model),
		slog.Int("input_length", inputLength))

	start := time.Now()
	var reply string
	err := retry.WithBackoff(ctx, e.retryConfig, func() error {
		var err error
		reply, err = circuitbreaker.Do(e.breaker, func() (string, error) {
			return complete(ctx, prompt)
		})
		if errors.Is(err, circuitbreaker.ErrOpen) {
			logger.Warn("translation circuit breaker open, request rejected",
				slog.String("state", e.breaker.State().String()))
			return retry.Permanent(err)
		}
		return err
	})
	duration := time.Since(start)

	if err != nil {
		e.metrics.RecordRequest(e.provider, statusError, duration)
		logger.Error("translation failed",
			slog.Duration("duration", duration),
			slog.String("error", logging.SanitizeError(err)))
		return entity.Translation{}, fmt.Errorf("%w: %s: %w", entity.ErrTranslationFailed, e.provider, err)
	}

	tr, err := ParseResponse(reply, essay, e.config.DefaultAuthor)
	if err != nil {
		e.metrics.RecordRequest(e.provider, statusInvalid, duration)
		logger.Error("translation response rejected",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return entity.Translation{}, err
	}

	length := text.CountRunes(tr.Body)
	e.metrics.RecordRequest(e.provider, statusSuccess, duration)
	e.metrics.RecordLength(e.provider, length)
	logger.Info("translation completed",
		slog.String("title", tr.Title),
		slog.Int("output_length", length),
		slog.Duration("duration", duration))
	return tr, nil
}

// httpStatusError converts a provider status code into a retry.HTTPError so that
// 408, 429 and 5xx responses are retried and other client errors are not.
func httpStatusError(status int, msg string) error {
	return &retry.HTTPError{StatusCode: status, Message: msg}
}
