package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"inkwell/internal/domain/entity"
	"inkwell/internal/resilience/circuitbreaker"
	"inkwell/internal/resilience/retry"
)

type contextKey string

const requestIDKey contextKey = "request_id"

const (
	// webhookMaxAttempts caps send attempts per announcement.
	webhookMaxAttempts = 2
	// webhookBaseDelay is the backoff before the first retry; it doubles
	// on each subsequent attempt.
	webhookBaseDelay = 5 * time.Second
)

// webhookDelivery bundles what the shared send loop needs from a notifier:
// the service name for logs and errors ("Discord", "Slack"), the rate
// limiter and breaker guarding the endpoint, and the single-shot send.
type webhookDelivery struct {
	service string
	limiter *RateLimiter
	breaker *circuitbreaker.CircuitBreaker
	send    func(ctx context.Context) error
}

// announce runs one announcement end to end: it tags the context with a
// fresh request ID, waits on the rate limiter, then drives the retrying
// send.
func (d *webhookDelivery) announce(ctx context.Context, entry *entity.Entry) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	slog.Info("Starting "+d.service+" announcement",
		slog.String("request_id", requestID),
		slog.Int64("entry_id", entry.ID),
		slog.String("slug", entry.Slug))

	if err := d.limiter.Allow(ctx); err != nil {
		slog.Error("Rate limiter error",
			slog.String("request_id", requestID),
			slog.Int64("entry_id", entry.ID),
			slog.Any("error", err))
		return fmt.Errorf("rate limiter error: %w", err)
	}

	return d.sendWithRetry(ctx, entry)
}

// sendWithRetry pushes each attempt through the circuit breaker, so an
// endpoint that keeps failing is rejected before another request leaves the
// process. A 429 waits out the advertised retry_after, 5xx and transport
// errors back off and retry once, other 4xx and an open breaker fail the
// announcement immediately.
func (d *webhookDelivery) sendWithRetry(ctx context.Context, entry *entity.Entry) error {
	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= webhookMaxAttempts; attempt++ {
		_, err := d.breaker.Execute(func() (interface{}, error) {
			return nil, d.send(ctx)
		})

		if err == nil {
			slog.Info(d.service+" announcement successful",
				slog.String("request_id", requestID),
				slog.Int64("entry_id", entry.ID),
				slog.String("slug", entry.Slug),
				slog.Int("attempt", attempt))
			return nil
		}

		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			slog.Warn(d.service+" webhook circuit breaker open, request rejected",
				slog.String("request_id", requestID),
				slog.Int64("entry_id", entry.ID),
				slog.String("state", d.breaker.State().String()))
			return fmt.Errorf("%s webhook unavailable: circuit breaker open", strings.ToLower(d.service))
		}

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn(d.service+" rate limit hit, backing off",
				slog.String("request_id", requestID),
				slog.Int64("entry_id", entry.ID),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))

			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.Error(d.service+" announcement failed with non-retryable error",
				slog.String("request_id", requestID),
				slog.Int64("entry_id", entry.ID),
				slog.String("slug", entry.Slug),
				slog.Any("error", err),
				slog.Int("attempt", attempt))
			return err
		}

		if attempt < webhookMaxAttempts {
			delay := webhookBaseDelay * time.Duration(attempt)
			slog.Warn(d.service+" API request failed, retrying",
				slog.String("request_id", requestID),
				slog.Int64("entry_id", entry.ID),
				slog.String("slug", entry.Slug),
				slog.Any("error", err),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	slog.Error(d.service+" announcement failed after all retries",
		slog.String("request_id", requestID),
		slog.Int64("entry_id", entry.ID),
		slog.String("slug", entry.Slug),
		slog.Any("error", lastErr),
		slog.Int("max_attempts", webhookMaxAttempts))

	return fmt.Errorf("%s notification failed after %d attempts: %w",
		strings.ToLower(d.service), webhookMaxAttempts, lastErr)
}

// RateLimitError is a 429 from a webhook service, carrying the back-off the
// service asked for.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError is a non-429 4xx: the payload or webhook URL is wrong and a
// retry cannot fix it.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError is a 5xx from the webhook service; the announcement is retried.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// postWebhook marshals payload, POSTs it to the webhook URL, and classifies
// the response through the shared error types.
func postWebhook(ctx context.Context, client *http.Client, url string, payload any, service string) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	return classifyWebhookResponse(service, resp, body)
}

// classifyWebhookResponse maps a webhook HTTP response to the shared error
// types. It returns nil for 2xx; service names the API in error messages
// ("Discord", "Slack").
func classifyWebhookResponse(service string, resp *http.Response, body []byte) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    service + " rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API client error: %s", service, string(body)),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API server error: %s", service, string(body)),
		}
	default:
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
}

// extractRetryAfter reads the back-off hint from a 429 response: the JSON
// "retry_after" field (Discord style), then the Retry-After header, then a
// 5 second default.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var result struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.Unmarshal(body, &result); err == nil && result.RetryAfter > 0 {
		return time.Duration(result.RetryAfter * float64(time.Second))
	}

	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.ParseFloat(header, 64); err == nil && seconds > 0 {
			return time.Duration(seconds * float64(time.Second))
		}
	}

	return 5 * time.Second
}

// is429Error unwraps a RateLimitError so the send loop can honor its
// advertised back-off.
func is429Error(err error) (*RateLimitError, bool) {
	var rateLimitErr *RateLimitError
	ok := errors.As(err, &rateLimitErr)
	return rateLimitErr, ok
}

// isRetryableError decides whether a failed send is worth another attempt.
// 5xx and transient transport errors are; 4xx are not (429 is handled by
// is429Error before this runs), and an open circuit breaker fails the send
// immediately.
func isRetryableError(err error) bool {
	var (
		serverErr    *ServerError
		clientErr    *ClientError
		rateLimitErr *RateLimitError
	)
	switch {
	case errors.As(err, &serverErr):
		return true
	case errors.As(err, &clientErr), errors.As(err, &rateLimitErr):
		return false
	}

	// An open breaker means the webhook endpoint is already known to be down;
	// retrying inside the same send would only hammer the open circuit.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	return retry.IsRetryable(err)
}

// truncateText cuts text at maxLength bytes, appending suffix when it does.
func truncateText(text string, maxLength int, suffix string) string {
	if len(text) <= maxLength {
		return text
	}

	truncateAt := maxLength - len(suffix)
	if truncateAt < 0 {
		truncateAt = 0
	}

	return text[:truncateAt] + suffix
}
