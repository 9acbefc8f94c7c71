package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrChannelDisabled indicates that Send() was called on a disabled channel.
	// This error is returned when attempting to send an announcement through a
	// channel that is not enabled in the configuration.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrInvalidEntry indicates that the entry data is invalid or missing required fields.
	// This error is returned when:
	//   - entry is nil
	//   - entry.Slug is empty (an entry without a slug has no permalink to announce)
	ErrInvalidEntry = errors.New("invalid entry data")

	// ErrNotificationDropped indicates that an announcement was dropped due to
	// goroutine pool saturation or timeout waiting for a worker slot.
	// This is a non-critical error used for observability.
	ErrNotificationDropped = errors.New("notification dropped due to pool saturation")

	// ErrCircuitBreakerOpen indicates that the circuit breaker is open for this channel
	// and announcements are being rejected to prevent continuous failures.
	// The circuit breaker will automatically close after the timeout period.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)
