package notify

import (
	"context"
	"log/slog"

	"inkwell/internal/config"
	"inkwell/internal/domain/entity"
	"inkwell/internal/infra/notifier"
)

// DiscordChannel adapts the infra-layer Discord notifier to the Channel
// interface so Discord announcements ride the same multi-channel dispatch
// as every other destination.
type DiscordChannel struct {
	notifier notifier.Notifier
	site     *config.SiteConfig
	enabled  bool
}

// NewDiscordChannel builds the Discord channel. When the config is disabled,
// or the webhook URL fails validation, the channel falls back to a no-op
// notifier rather than a nil one.
func NewDiscordChannel(cfg notifier.DiscordConfig, site *config.SiteConfig) *DiscordChannel {
	enabled := cfg.Enabled
	if enabled {
		if err := entity.ValidateWebhookURL(cfg.WebhookURL); err != nil {
			slog.Warn("Invalid Discord webhook URL, disabling channel",
				slog.Any("error", err))
			enabled = false
		}
	}

	ch := &DiscordChannel{site: site, enabled: enabled}
	if enabled {
		ch.notifier = notifier.NewDiscordNotifier(cfg)
	} else {
		ch.notifier = notifier.NewNoOpNotifier()
	}
	return ch
}

// Name returns "discord", used in logs, metric labels, and channel health.
func (c *DiscordChannel) Name() string {
	return "discord"
}

func (c *DiscordChannel) IsEnabled() bool {
	return c.enabled
}

// Send announces a published entry on Discord. The underlying notifier owns
// pacing, retries, and request IDs; here we only check the channel state and
// that the entry has a permalink to point at.
func (c *DiscordChannel) Send(ctx context.Context, entry *entity.Entry) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if entry == nil || entry.Slug == "" {
		return ErrInvalidEntry
	}

	return c.notifier.NotifyEntry(ctx, entry, c.site)
}
