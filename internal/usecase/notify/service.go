package notify

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/domain/entity"
	"inkwell/internal/handler/http/requestid"
)

// contextKey keeps this package's context values off the string keyspace
type contextKey string

const requestIDKey contextKey = "request_id"

const (
	// circuitBreakerThreshold is the consecutive-failure count that opens a
	// channel's breaker.
	circuitBreakerThreshold = 5
	// circuitBreakerTimeout is how long an open breaker keeps a channel
	// disabled before dispatches are attempted again.
	circuitBreakerTimeout = 5 * time.Minute
	// workerPoolTimeout bounds how long a dispatch waits for a worker slot.
	workerPoolTimeout = 5 * time.Second
	// notificationTimeout bounds a single channel send.
	notificationTimeout = 30 * time.Second
)

// Service dispatches publish announcements to the configured channels.
//
// AnnounceEntry is fire-and-forget: by the time an announcement goes out the
// entry is already stored, so a webhook outage must never turn a successful
// publish into an error. Sends run in background goroutines and failures are
// logged, counted, and otherwise swallowed.
type Service interface {
	// AnnounceEntry announces a newly published entry on every enabled
	// channel. It returns immediately; the caller's context is only used to
	// inherit a request ID, not to cancel the sends.
	AnnounceEntry(ctx context.Context, entry *entity.Entry)

	// GetChannelHealth reports per-channel circuit breaker state for the
	// health endpoint. Safe for concurrent use.
	GetChannelHealth() []ChannelHealthStatus

	// Shutdown waits for in-flight announcements to finish. It returns the
	// context's error if they do not finish in time.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus is a snapshot of one channel's breaker state.
type ChannelHealthStatus struct {
	Name               string
	Enabled            bool
	CircuitBreakerOpen bool
	DisabledUntil      *time.Time // nil while the breaker is closed
}

type service struct {
	channels       []Channel
	workerPool     chan struct{} // semaphore bounding concurrent sends
	channelHealth  map[string]*channelHealth
	healthMu       sync.RWMutex // protects channelHealth map
	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// channelHealth is the per-channel circuit breaker. A channel that fails
// circuitBreakerThreshold times in a row is disabled for
// circuitBreakerTimeout; any success resets the count.
type channelHealth struct {
	consecutiveFailures int
	disabledUntil       time.Time
	mu                  sync.Mutex
}

// openUntil reports whether the breaker is open, and until when.
func (h *channelHealth) openUntil() (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if time.Now().Before(h.disabledUntil) {
		return h.disabledUntil, true
	}
	return time.Time{}, false
}

// record updates the breaker after a send. It reports whether this failure
// tripped the breaker open, along with the new failure count.
func (h *channelHealth) record(err error) (tripped bool, failures int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		h.consecutiveFailures = 0
		return false, 0
	}
	h.consecutiveFailures++
	if h.consecutiveFailures >= circuitBreakerThreshold {
		h.disabledUntil = time.Now().Add(circuitBreakerTimeout)
		return true, h.consecutiveFailures
	}
	return false, h.consecutiveFailures
}

// NewService builds a dispatcher over the given channels. maxConcurrent caps
// the number of sends in flight across all channels.
func NewService(channels []Channel, maxConcurrent int) Service {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	svc := &service{
		channels:       channels,
		workerPool:     make(chan struct{}, maxConcurrent),
		channelHealth:  make(map[string]*channelHealth),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
	for _, ch := range channels {
		svc.channelHealth[ch.Name()] = &channelHealth{}
	}
	return svc
}

func (s *service) AnnounceEntry(ctx context.Context, entry *entity.Entry) {
	if entry == nil {
		slog.Warn("Invalid announcement input", slog.Bool("nil_entry", true))
		return
	}

	// Inherit the HTTP request ID when one is present so the announcement
	// can be correlated with the publish that triggered it.
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		reqID, _ = ctx.Value(requestIDKey).(string)
	}
	if reqID == "" {
		reqID = uuid.New().String()
	}

	enabledCount := 0
	for _, ch := range s.channels {
		if ch.IsEnabled() {
			enabledCount++
		}
	}
	SetChannelsEnabled(float64(enabledCount))

	if enabledCount == 0 {
		slog.Debug("No announcement channels enabled",
			slog.String("request_id", reqID),
			slog.Int64("entry_id", entry.ID))
		return
	}

	slog.Info("Dispatching publish announcement",
		slog.String("request_id", reqID),
		slog.Int64("entry_id", entry.ID),
		slog.String("slug", entry.Slug),
		slog.Int("enabled_channels", enabledCount))

	for _, ch := range s.channels {
		if ch.IsEnabled() {
			channel := ch
			s.wg.Add(1)
			go s.notifyChannel(reqID, channel, entry)
		}
	}
}

// notifyChannel sends one announcement on one channel. It acquires a worker
// slot, consults the channel's breaker, and records the outcome; a panicking
// channel is contained here rather than taking down the process.
func (s *service) notifyChannel(requestID string, channel Channel, entry *entity.Entry) {
	defer s.wg.Done()

	IncrementActiveGoroutines()
	defer DecrementActiveGoroutines()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in announcement channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	// A full pool means downstream services are slow; dropping is better
	// than queueing announcements without bound.
	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		slog.Warn("Announcement dropped: worker pool full",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		RecordDropped(channel.Name(), "pool_full")
		return
	}

	health := s.getChannelHealth(channel.Name())
	if until, open := health.openUntil(); open {
		slog.Warn("Channel temporarily disabled due to circuit breaker",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Time("disabled_until", until))
		RecordDropped(channel.Name(), "circuit_open")
		return
	}

	// Derive from the shutdown context so Shutdown can cut sends short.
	ctx, cancel := context.WithTimeout(s.shutdownCtx, notificationTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	startTime := time.Now()
	RecordDispatch(channel.Name())

	err := channel.Send(ctx, entry)
	duration := time.Since(startTime)

	if tripped, failures := health.record(err); tripped {
		slog.Error("Circuit breaker opened for channel",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Int("consecutive_failures", failures))
		RecordCircuitBreakerOpen(channel.Name())
	}

	if err != nil {
		RecordFailure(channel.Name(), duration)
		slog.Warn("Channel announcement failed",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Int64("entry_id", entry.ID),
			slog.String("slug", entry.Slug),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}

	RecordSuccess(channel.Name(), duration)
	slog.Info("Channel announcement sent successfully",
		slog.String("request_id", requestID),
		slog.String("channel", channel.Name()),
		slog.Int64("entry_id", entry.ID),
		slog.String("title", entry.Title),
		slog.Duration("send_duration", duration))
}

func (s *service) getChannelHealth(channelName string) *channelHealth {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return s.channelHealth[channelName]
}

func (s *service) GetChannelHealth() []ChannelHealthStatus {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()

	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		status := ChannelHealthStatus{Name: ch.Name(), Enabled: ch.IsEnabled()}
		if until, open := s.channelHealth[ch.Name()].openUntil(); open {
			status.CircuitBreakerOpen = true
			status.DisabledUntil = &until
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func (s *service) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down notify service")
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Notify service shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Warn("Notify service shutdown timeout")
		return ctx.Err()
	}
}
