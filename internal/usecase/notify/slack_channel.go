package notify

import (
	"context"
	"log/slog"

	"inkwell/internal/config"
	"inkwell/internal/domain/entity"
	"inkwell/internal/infra/notifier"
)

// SlackChannel adapts the infra-layer Slack notifier to the Channel
// interface the dispatcher works with.
type SlackChannel struct {
	notifier notifier.Notifier
	site     *config.SiteConfig
	enabled  bool
}

// NewSlackChannel builds the Slack channel. A disabled config or a webhook
// URL that fails validation yields a channel backed by a no-op notifier, so
// callers never have to nil-check.
func NewSlackChannel(cfg notifier.SlackConfig, site *config.SiteConfig) *SlackChannel {
	enabled := cfg.Enabled
	if enabled {
		if err := entity.ValidateWebhookURL(cfg.WebhookURL); err != nil {
			slog.Warn("Invalid Slack webhook URL, disabling channel",
				slog.Any("error", err))
			enabled = false
		}
	}

	ch := &SlackChannel{site: site, enabled: enabled}
	if enabled {
		ch.notifier = notifier.NewSlackNotifier(cfg)
	} else {
		ch.notifier = notifier.NewNoOpNotifier()
	}
	return ch
}

// Name returns "slack", used in logs, metric labels, and channel health.
func (c *SlackChannel) Name() string {
	return "slack"
}

func (c *SlackChannel) IsEnabled() bool {
	return c.enabled
}

// Send announces a published entry on Slack. Rate limiting, retries, and
// request IDs are handled by the underlying notifier; Send only guards the
// channel state and the entry shape.
func (c *SlackChannel) Send(ctx context.Context, entry *entity.Entry) error {
	if !c.enabled {
		return ErrChannelDisabled
	}

	// An entry without a slug has no permalink to announce.
	if entry == nil || entry.Slug == "" {
		return ErrInvalidEntry
	}

	return c.notifier.NotifyEntry(ctx, entry, c.site)
}
