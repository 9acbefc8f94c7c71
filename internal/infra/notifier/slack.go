package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/domain/entity"
	"inkwell/internal/markdown"
	"inkwell/internal/resilience/circuitbreaker"
)

// SlackConfig contains configuration for Slack webhook announcements.
type SlackConfig struct {
	// Enabled indicates whether Slack announcements are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// SlackNotifier announces published entries to Slack via Incoming Webhook.
type SlackNotifier struct {
	config      SlackConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
}

// NewSlackNotifier builds a notifier whose rate limiter matches the
// Incoming Webhook limit of one message per second, with the webhook
// endpoint behind a circuit breaker.
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter("slack", 1.0, 1), // 1 req/s, burst of 1
		breaker:     circuitbreaker.New(circuitbreaker.WebhookConfig("slack-webhook")),
	}
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`   // Fallback text (required)
	Blocks []SlackBlock `json:"blocks"` // Rich formatting blocks
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type     string            `json:"type"`               // "section", "context", "divider"
	Text     *SlackTextObject  `json:"text,omitempty"`     // Text content (for section)
	Elements []SlackTextObject `json:"elements,omitempty"` // Elements (for context)
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"` // Actual text content
}

// SlackErrorResponse represents the error response from Slack API.
type SlackErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

const (
	// Slack Block Kit limits
	maxSectionTextLength = 3000
	maxContextTextLength = 2000
	maxFallbackLength    = 150

	// Truncation suffix
	slackTruncationSuffix = "..."
)

// buildBlockKitPayload creates a Slack webhook payload from a published entry.
//
// The payload includes:
//   - Text: Fallback text for notifications (entry title + blog title)
//   - Section Block: Entry title (bold, linked to the permalink) + body excerpt
//   - Context Block: Blog title + publication timestamp
//
// Section text is truncated to 3000 characters if needed to fit Block Kit limits.
func (s *SlackNotifier) buildBlockKitPayload(entry *entity.Entry, site *config.SiteConfig) SlackWebhookPayload {
	// Build fallback text (used in notifications)
	fallbackText := fmt.Sprintf("%s - %s", entry.Title, site.GetTitle())
	if len(fallbackText) > maxFallbackLength {
		fallbackText = fallbackText[:maxFallbackLength-len(slackTruncationSuffix)] + slackTruncationSuffix
	}

	// Build section block text (linked title + body excerpt)
	// Format: *<url|title>*\n\nexcerpt
	permalink := site.GetBaseURL() + entry.Permalink()
	titleLink := fmt.Sprintf("*<%s|%s>*", permalink, entry.Title)
	sectionText := fmt.Sprintf("%s\n\n%s", titleLink, markdown.Excerpt(entry.HTML, announceExcerptRunes))

	// Truncate section text if needed
	sectionText = truncateText(sectionText, maxSectionTextLength, slackTruncationSuffix)

	// Build context block text (blog title + timestamp)
	contextText := fmt.Sprintf("%s • %s", site.GetTitle(), entry.Published.Format(time.RFC3339))

	// Create section block
	sectionBlock := SlackBlock{
		Type: "section",
		Text: &SlackTextObject{
			Type: "mrkdwn",
			Text: sectionText,
		},
	}

	// Create context block
	contextBlock := SlackBlock{
		Type: "context",
		Elements: []SlackTextObject{
			{
				Type: "mrkdwn",
				Text: contextText,
			},
		},
	}

	return SlackWebhookPayload{
		Text:   fallbackText,
		Blocks: []SlackBlock{sectionBlock, contextBlock},
	}
}

// sendWebhookRequest sends a single Slack webhook request. Slack answers a
// successful post with "ok" as plain text; anything else comes back as the
// shared webhook error types.
func (s *SlackNotifier) sendWebhookRequest(ctx context.Context, entry *entity.Entry, site *config.SiteConfig) error {
	return postWebhook(ctx, s.httpClient, s.config.WebhookURL, s.buildBlockKitPayload(entry, site), "Slack")
}

// delivery binds the shared webhook send loop to this notifier for one
// entry.
func (s *SlackNotifier) delivery(entry *entity.Entry, site *config.SiteConfig) *webhookDelivery {
	return &webhookDelivery{
		service: "Slack",
		limiter: s.rateLimiter,
		breaker: s.breaker,
		send: func(ctx context.Context) error {
			return s.sendWebhookRequest(ctx, entry, site)
		},
	}
}

// sendWebhookRequestWithRetry drives the shared retry loop for one entry.
func (s *SlackNotifier) sendWebhookRequestWithRetry(ctx context.Context, entry *entity.Entry, site *config.SiteConfig) error {
	return s.delivery(entry, site).sendWithRetry(ctx, entry)
}

// NotifyEntry announces a newly published entry to Slack. It implements the
// Notifier interface.
func (s *SlackNotifier) NotifyEntry(ctx context.Context, entry *entity.Entry, site *config.SiteConfig) error {
	return s.delivery(entry, site).announce(ctx, entry)
}
