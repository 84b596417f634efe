package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/resilience/retry"
	"itoi-daily/internal/utils/text"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig = WebhookConfig

// SlackNotifier sends entry notifications to Slack via Incoming Webhook.
type SlackNotifier struct {
	webhook
}

// NewSlackNotifier creates a SlackNotifier rate limited to 1 request/second
// (the Slack webhook limit).
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{webhook: newWebhook("slack", config, NewRateLimiter(1.0, 1))}
}

// WithRetryConfig overrides the retry policy.
func (s *SlackNotifier) WithRetryConfig(cfg retry.Config) *SlackNotifier {
	s.retryConfig = cfg
	return s
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`   // Fallback text (required)
	Blocks []SlackBlock `json:"blocks"` // Rich formatting blocks
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`               // "section", "context", "image"
	Text     *SlackTextObject  `json:"text,omitempty"`     // Text content (for section)
	Elements []SlackTextObject `json:"elements,omitempty"` // Elements (for context)
	ImageURL string            `json:"image_url,omitempty"`
	AltText  string            `json:"alt_text,omitempty"`
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"` // Actual text content
}

const (
	// Slack Block Kit limits
	maxSectionTextLength = 3000
	maxContextTextLength = 2000
	maxFallbackLength    = 150

	slackExcerptLength = 1000
)

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Name implements Notifier.
func (s *SlackNotifier) Name() string { return "slack" }

// NotifyEntry implements Notifier.
func (s *SlackNotifier) NotifyEntry(ctx context.Context, entry entity.Entry) error {
	return s.deliver(ctx, entry, buildBlockKitPayload(entry))
}

// buildBlockKitPayload creates a Slack webhook payload for entry.
//
// The payload includes:
//   - Text: fallback text for notifications (title and author)
//   - Section block: linked title and an excerpt of the essay
//   - Context block: author, original title, and publication time
//   - Image block when the entry has an image
func buildBlockKitPayload(entry entity.Entry) SlackWebhookPayload {
	fallback := text.Truncate(fmt.Sprintf("%s - %s", entry.Title, entry.Author), maxFallbackLength)

	// Format: *<url|title>*\n\nexcerpt
	section := fmt.Sprintf("*<%s|%s>*\n\n%s",
		entry.SourceURL,
		mrkdwnEscaper.Replace(entry.Title),
		mrkdwnEscaper.Replace(excerpt(entry, slackExcerptLength)))

	contextParts := []string{mrkdwnEscaper.Replace(entry.Author)}
	if entry.OriginalTitle != "" {
		contextParts = append(contextParts, mrkdwnEscaper.Replace(entry.OriginalTitle))
	}
	contextParts = append(contextParts, entry.PublishedAt.Format(time.RFC3339))

	blocks := []SlackBlock{
		{
			Type: "section",
			Text: &SlackTextObject{Type: "mrkdwn", Text: text.Truncate(section, maxSectionTextLength)},
		},
		{
			Type: "context",
			Elements: []SlackTextObject{{
				Type: "mrkdwn",
				Text: text.Truncate(strings.Join(contextParts, " • "), maxContextTextLength),
			}},
		},
	}
	if entry.ImageURL != "" {
		blocks = append(blocks, SlackBlock{Type: "image", ImageURL: entry.ImageURL, AltText: entry.Title})
	}

	return SlackWebhookPayload{Text: fallback, Blocks: blocks}
}
