package notifier

import (
	"context"
	"net/http"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/domain/entity"
	"inkwell/internal/markdown"
	"inkwell/internal/resilience/circuitbreaker"
)

// DiscordConfig contains configuration for Discord webhook announcements.
type DiscordConfig struct {
	// Enabled indicates whether Discord announcements are enabled
	Enabled bool

	// WebhookURL is the Discord webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration
}

// DiscordNotifier announces published entries to Discord via webhook.
type DiscordNotifier struct {
	config      DiscordConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
}

// NewDiscordNotifier builds a notifier whose rate limiter sits under the
// Discord webhook limit of 30 requests per minute, with the webhook
// endpoint behind a circuit breaker.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter("discord", 0.5, 3), // 0.5 req/s, burst of 3
		breaker:     circuitbreaker.New(circuitbreaker.WebhookConfig("discord-webhook")),
	}
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a rich embed in Discord message.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	URL         string              `json:"url"`
	Color       int                 `json:"color"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	// Discord embed limits
	maxTitleLength       = 256
	maxDescriptionLength = 4096

	// announceExcerptRunes is the length of the body excerpt shown in the
	// embed description. Kept well under maxDescriptionLength so the API
	// cap only matters for degenerate multi-byte content.
	announceExcerptRunes = 300

	// truncationSuffix is appended when text is truncated
	truncationSuffix = "..."

	// embedColor is the accent color of the Discord embed (blurple)
	embedColor = 5793266
)

// buildEmbedPayload creates a Discord webhook payload from a published entry.
//
// The embed includes:
//   - Title: Entry title (truncated to 256 chars)
//   - Description: Plain-text excerpt of the entry body
//   - URL: Permalink made absolute against the site base URL
//   - Footer: Blog title
//   - Timestamp: Publication time in RFC3339 format
func (d *DiscordNotifier) buildEmbedPayload(entry *entity.Entry, site *config.SiteConfig) DiscordWebhookPayload {
	title := truncateText(entry.Title, maxTitleLength, truncationSuffix)
	description := truncateText(
		markdown.Excerpt(entry.HTML, announceExcerptRunes),
		maxDescriptionLength,
		truncationSuffix,
	)

	embed := DiscordEmbed{
		Title:       title,
		Description: description,
		URL:         site.GetBaseURL() + entry.Permalink(),
		Color:       embedColor,
		Footer: &DiscordEmbedFooter{
			Text: site.GetTitle(),
		},
		Timestamp: entry.Published.Format(time.RFC3339),
	}

	return DiscordWebhookPayload{
		Embeds: []DiscordEmbed{embed},
	}
}

// sendWebhookRequest sends a single Discord webhook request. Discord
// returns 204 No Content on success; anything else comes back as the shared
// webhook error types.
func (d *DiscordNotifier) sendWebhookRequest(ctx context.Context, entry *entity.Entry, site *config.SiteConfig) error {
	return postWebhook(ctx, d.httpClient, d.config.WebhookURL, d.buildEmbedPayload(entry, site), "Discord")
}

// delivery binds the shared webhook send loop to this notifier for one
// entry.
func (d *DiscordNotifier) delivery(entry *entity.Entry, site *config.SiteConfig) *webhookDelivery {
	return &webhookDelivery{
		service: "Discord",
		limiter: d.rateLimiter,
		breaker: d.breaker,
		send: func(ctx context.Context) error {
			return d.sendWebhookRequest(ctx, entry, site)
		},
	}
}

// sendWebhookRequestWithRetry drives the shared retry loop for one entry.
func (d *DiscordNotifier) sendWebhookRequestWithRetry(ctx context.Context, entry *entity.Entry, site *config.SiteConfig) error {
	return d.delivery(entry, site).sendWithRetry(ctx, entry)
}

// NotifyEntry announces a newly published entry to Discord. It implements
// the Notifier interface.
func (d *DiscordNotifier) NotifyEntry(ctx context.Context, entry *entity.Entry, site *config.SiteConfig) error {
	return d.delivery(entry, site).announce(ctx, entry)
}
