// Package notifier provides abstraction for announcing published entries.
// It defines the Notifier interface which allows different announcement
// mechanisms (Discord, Slack, etc.) to be used interchangeably through
// dependency injection.
//
// The package includes webhook implementations for Discord and Slack and a
// no-op notifier for when announcements are disabled.
package notifier

import (
	"context"

	"inkwell/internal/config"
	"inkwell/internal/domain/entity"
)

// Notifier announces newly published entries to an external service.
// Implementations handle rate limiting, retries, and error logging
// internally.
type Notifier interface {
	// NotifyEntry sends an announcement carrying the entry metadata
	// (title, excerpt, publication time) and a permalink made absolute
	// against the site's base URL. It returns a non-nil error only after
	// retries are exhausted.
	NotifyEntry(ctx context.Context, entry *entity.Entry, site *config.SiteConfig) error
}
