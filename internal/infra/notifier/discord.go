package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"itoi-daily/internal/domain/entity"
	"itoi-daily/internal/resilience/retry"
	"itoi-daily/internal/utils/text"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig = WebhookConfig

// DiscordNotifier sends entry notifications to Discord via webhook.
type DiscordNotifier struct {
	webhook
}

// NewDiscordNotifier creates a DiscordNotifier rate limited to 0.5 requests/second
// with a burst of 3 (the Discord webhook limit is 30 requests per minute).
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	w := newWebhook("discord", config, NewRateLimiter(0.5, 3))
	w.retryAfter = discordRetryAfter
	return &DiscordNotifier{webhook: w}
}

// WithRetryConfig overrides the retry policy.
func (d *DiscordNotifier) WithRetryConfig(cfg retry.Config) *DiscordNotifier {
	d.retryConfig = cfg
	return d
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed message.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	URL         string              `json:"url"`
	Color       int                 `json:"color"`
	Author      *DiscordEmbedAuthor `json:"author,omitempty"`
	Image       *DiscordEmbedImage  `json:"image,omitempty"`
	Footer      DiscordEmbedFooter  `json:"footer"`
	Timestamp   string              `json:"timestamp"`
}

// DiscordEmbedAuthor represents the author line of a Discord embed.
type DiscordEmbedAuthor struct {
	Name string `json:"name"`
}

// DiscordEmbedImage represents the image of a Discord embed.
type DiscordEmbedImage struct {
	URL string `json:"url"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// DiscordErrorResponse represents the error response from Discord API.
type DiscordErrorResponse struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"` // In seconds
}

const (
	// Discord limits, in characters
	maxTitleLength       = 256
	maxDescriptionLength = 4096
	maxFooterLength      = 2048

	// discordExcerptLength keeps the embed readable; the feed carries the full essay.
	discordExcerptLength = 1000

	// Discord blue color (#5865F2)
	discordBlueColor = 5793266
)

// Name implements Notifier.
func (d *DiscordNotifier) Name() string { return "discord" }

// NotifyEntry implements Notifier.
func (d *DiscordNotifier) NotifyEntry(ctx context.Context, entry entity.Entry) error {
	return d.deliver(ctx, entry, buildEmbedPayload(entry))
}

// buildEmbedPayload creates a Discord webhook payload for entry.
// Limits are counted in runes so Japanese text is never split mid-character.
func buildEmbedPayload(entry entity.Entry) DiscordWebhookPayload {
	embed := DiscordEmbed{
		Title:       text.Truncate(entry.Title, maxTitleLength),
		Description: text.Truncate(excerpt(entry, discordExcerptLength), maxDescriptionLength),
		URL:         entry.SourceURL,
		Color:       discordBlueColor,
		Author:      &DiscordEmbedAuthor{Name: entry.Author},
		Timestamp:   entry.PublishedAt.Format(time.RFC3339),
	}
	if entry.OriginalTitle != "" {
		embed.Footer.Text = text.Truncate(entry.OriginalTitle, maxFooterLength)
	}
	if entry.ImageURL != "" {
		embed.Image = &DiscordEmbedImage{URL: entry.ImageURL}
	}

	return DiscordWebhookPayload{Embeds: []DiscordEmbed{embed}}
}

// discordRetryAfter reads retry_after from the JSON body first, then the
// Retry-After header.
func discordRetryAfter(resp *http.Response, body []byte) time.Duration {
	var discordErr DiscordErrorResponse
	if err := json.Unmarshal(body, &discordErr); err == nil && discordErr.RetryAfter > 0 {
		return time.Duration(discordErr.RetryAfter * float64(time.Second))
	}
	return retryAfterHeader(resp, body)
}
