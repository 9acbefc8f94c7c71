// Package notify fans publish announcements out to delivery channels
// (Discord, Slack, and whatever comes next). The dispatcher guards each
// channel with a circuit breaker and a bounded worker pool so a slow or
// broken webhook never blocks a publish.
package notify

import (
	"context"

	"inkwell/internal/domain/entity"
)

// Channel is one announcement destination. Implementations own their rate
// limiting, retries, and credential handling, and must be safe for
// concurrent use.
//
// The retry contract: transient failures (5xx, network errors) may be
// retried with backoff, a 429 waits out the advertised retry_after, other
// 4xx responses and context cancellation are terminal.
type Channel interface {
	// Name identifies the channel in logs, metrics, and the health
	// endpoint ("discord", "slack").
	Name() string

	// IsEnabled reports whether configuration turned this channel on.
	// Disabled channels are skipped during dispatch.
	IsEnabled() bool

	// Send announces a published entry. It returns ErrChannelDisabled
	// when called on a disabled channel, ErrInvalidEntry for a nil or
	// slugless entry, and a wrapped transport error when delivery fails
	// after retries. Implementations must respect ctx and keep webhook
	// URLs out of error text.
	Send(ctx context.Context, entry *entity.Entry) error
}
