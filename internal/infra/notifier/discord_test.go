package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"

	"inkwell/internal/config"
	"inkwell/internal/domain/entity"
)

// testSite returns a site configuration for webhook payload tests.
// Shared by the Discord and Slack notifier tests.
func testSite() *config.SiteConfig {
	var site config.SiteConfig
	site.Site.Title = "Test Blog"
	site.Site.Author.Name = "author"
	site.Site.BaseURL = "https://blog.example.com"
	return &site
}

// publishedEntry returns a published entry with rendered HTML, the shape the
// notifiers receive after a successful publish.
func publishedEntry() *entity.Entry {
	publishedAt := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	return &entity.Entry{
		ID:        42,
		Author:    "author@example.com",
		Title:     "Understanding Go Channels",
		Slug:      "understanding-go-channels",
		Body:      "Channels are a typed conduit through which you can send and receive values.",
		HTML:      "<p>Channels are a typed conduit through which you can send and receive values.</p>",
		Published: publishedAt,
		Updated:   publishedAt,
	}
}

// testDiscord builds an enabled notifier pointed at webhookURL.
func testDiscord(webhookURL string) *DiscordNotifier {
	return NewDiscordNotifier(DiscordConfig{
		Enabled:    true,
		WebhookURL: webhookURL,
		Timeout:    10 * time.Second,
	})
}

// discordStub spins up a webhook endpoint that is torn down with the test.
func discordStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestDiscordNotifier_buildEmbedPayload(t *testing.T) {
	t.Run("embeds every field", func(t *testing.T) {
		payload := testDiscord("https://discord.com/api/webhooks/test").
			buildEmbedPayload(publishedEntry(), testSite())

		if len(payload.Embeds) != 1 {
			t.Fatalf("expected 1 embed, got %d", len(payload.Embeds))
		}
		embed := payload.Embeds[0]

		if embed.Title != "Understanding Go Channels" {
			t.Errorf("unexpected title %q", embed.Title)
		}
		if !strings.Contains(embed.Description, "typed conduit") {
			t.Errorf("expected description to contain the entry text, got %q", embed.Description)
		}
		if want := "https://blog.example.com/entry/understanding-go-channels"; embed.URL != want {
			t.Errorf("expected URL %q, got %q", want, embed.URL)
		}
		if embed.Color != embedColor {
			t.Errorf("expected color %d, got %d", embedColor, embed.Color)
		}
		if embed.Footer == nil || embed.Footer.Text != "Test Blog" {
			t.Errorf("expected footer with site title, got %+v", embed.Footer)
		}
		if embed.Timestamp != "2026-01-15T10:30:00Z" {
			t.Errorf("expected published time as timestamp, got %q", embed.Timestamp)
		}
		if _, err := time.Parse(time.RFC3339, embed.Timestamp); err != nil {
			t.Errorf("timestamp is not valid RFC3339: %v", err)
		}
	})

	t.Run("excerpts long bodies", func(t *testing.T) {
		entry := publishedEntry()
		entry.HTML = "<p>" + strings.Repeat("word ", 1200) + "</p>"

		payload := testDiscord("https://discord.com/api/webhooks/test").
			buildEmbedPayload(entry, testSite())
		description := payload.Embeds[0].Description

		// The excerpt cap plus the ellipsis rune, never the raw body.
		if got := utf8.RuneCountInString(description); got > announceExcerptRunes+1 {
			t.Errorf("expected description of at most %d runes, got %d", announceExcerptRunes+1, got)
		}
		if !strings.HasSuffix(description, "…") {
			t.Errorf("expected description to end with ellipsis, got %q", description[len(description)-10:])
		}
		// Stays well inside the Discord embed limit.
		if len(description) > maxDescriptionLength {
			t.Errorf("expected description of at most %d bytes, got %d", maxDescriptionLength, len(description))
		}
	})

	t.Run("truncates long titles", func(t *testing.T) {
		entry := publishedEntry()
		longTitle := strings.Repeat("T", 300)
		entry.Title = longTitle

		payload := testDiscord("https://discord.com/api/webhooks/test").
			buildEmbedPayload(entry, testSite())
		embed := payload.Embeds[0]

		if len(embed.Title) != maxTitleLength {
			t.Errorf("expected title length %d, got %d", maxTitleLength, len(embed.Title))
		}
		if want := longTitle[:maxTitleLength-len(truncationSuffix)] + truncationSuffix; embed.Title != want {
			t.Errorf("expected truncated title with suffix, got %q", embed.Title)
		}
	})

	t.Run("empty rendered HTML", func(t *testing.T) {
		entry := publishedEntry()
		entry.HTML = ""

		payload := testDiscord("https://discord.com/api/webhooks/test").
			buildEmbedPayload(entry, testSite())
		embed := payload.Embeds[0]

		if embed.Description != "" {
			t.Errorf("expected empty description, got %q", embed.Description)
		}
		if embed.Title != entry.Title {
			t.Errorf("expected title %q, got %q", entry.Title, embed.Title)
		}
	})
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{"within limit", "Short text", 100, "Short text"},
		{"exactly at limit", strings.Repeat("x", 50), 50, strings.Repeat("x", 50)},
		{"over limit", strings.Repeat("x", 100), 50, strings.Repeat("x", 47) + "..."},
		{"empty text", "", 50, ""},
		{"limit equals suffix", "abcdef", 3, "..."},
	}

	for _, tt := range tests {
		if got := truncateText(tt.text, tt.limit, "..."); got != tt.want {
			t.Errorf("%s: truncateText = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDiscordNotifier_sendWebhookRequest(t *testing.T) {
	t.Run("204 success", func(t *testing.T) {
		var receivedContentType string
		var receivedPayload DiscordWebhookPayload
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			receivedContentType = r.Header.Get("Content-Type")
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &receivedPayload)
			w.WriteHeader(http.StatusNoContent)
		})

		entry := publishedEntry()
		if err := testDiscord(server.URL).sendWebhookRequest(context.Background(), entry, testSite()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if receivedContentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", receivedContentType)
		}
		if len(receivedPayload.Embeds) != 1 {
			t.Fatalf("expected 1 embed in webhook payload, got %d", len(receivedPayload.Embeds))
		}
		if receivedPayload.Embeds[0].Title != entry.Title {
			t.Errorf("expected embed title %q, got %q", entry.Title, receivedPayload.Embeds[0].Title)
		}
		if !strings.Contains(receivedPayload.Embeds[0].URL, entry.Slug) {
			t.Errorf("expected embed URL to contain slug %q, got %q", entry.Slug, receivedPayload.Embeds[0].URL)
		}
	})

	t.Run("429 becomes RateLimitError", func(t *testing.T) {
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message": "You are being rate limited.", "retry_after": 2.5, "global": false}`))
		})

		err := testDiscord(server.URL).sendWebhookRequest(context.Background(), publishedEntry(), testSite())

		var rateLimitErr *RateLimitError
		if !errors.As(err, &rateLimitErr) {
			t.Fatalf("expected *RateLimitError, got %T: %v", err, err)
		}
		if rateLimitErr.RetryAfter != 2500*time.Millisecond {
			t.Errorf("expected retry_after 2.5s, got %v", rateLimitErr.RetryAfter)
		}
		if rateLimitErr.Message != "Discord rate limit exceeded" {
			t.Errorf("expected rate limit message, got %q", rateLimitErr.Message)
		}
		// Rate limits are handled by their own backoff path, not the generic retry
		if isRetryableError(err) {
			t.Error("expected rate limit error to be excluded from generic retry")
		}
	})

	t.Run("400 becomes non-retryable ClientError", func(t *testing.T) {
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message": "Invalid Form Body"}`))
		})

		err := testDiscord(server.URL).sendWebhookRequest(context.Background(), publishedEntry(), testSite())

		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			t.Fatalf("expected *ClientError, got %T: %v", err, err)
		}
		if clientErr.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status code 400, got %d", clientErr.StatusCode)
		}
		if isRetryableError(err) {
			t.Error("expected client error to be non-retryable")
		}
	})

	t.Run("500 becomes retryable ServerError", func(t *testing.T) {
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`Internal Server Error`))
		})

		err := testDiscord(server.URL).sendWebhookRequest(context.Background(), publishedEntry(), testSite())

		var serverErr *ServerError
		if !errors.As(err, &serverErr) {
			t.Fatalf("expected *ServerError, got %T: %v", err, err)
		}
		if serverErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected status code 500, got %d", serverErr.StatusCode)
		}
		if !isRetryableError(err) {
			t.Error("expected server error to be retryable")
		}
	})

	t.Run("network timeout is retryable", func(t *testing.T) {
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusNoContent)
		})

		slow := NewDiscordNotifier(DiscordConfig{
			Enabled:    true,
			WebhookURL: server.URL,
			Timeout:    50 * time.Millisecond,
		})

		err := slow.sendWebhookRequest(context.Background(), publishedEntry(), testSite())
		if err == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !isRetryableError(err) {
			t.Errorf("expected network timeout to be retryable, got %v", err)
		}
	})
}

func TestExtractRetryAfter(t *testing.T) {
	t.Run("JSON body", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		body := []byte(`{"message": "You are being rate limited.", "retry_after": 3.5}`)

		if got := extractRetryAfter(resp, body); got != 3500*time.Millisecond {
			t.Errorf("expected 3.5s, got %v", got)
		}
	})

	t.Run("Retry-After header fallback", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		resp.Header.Set("Retry-After", "10")

		if got := extractRetryAfter(resp, []byte(`not json`)); got != 10*time.Second {
			t.Errorf("expected 10s, got %v", got)
		}
	})

	t.Run("default without a hint", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}

		if got := extractRetryAfter(resp, []byte(`{}`)); got != 5*time.Second {
			t.Errorf("expected default 5s, got %v", got)
		}
	})
}

func TestDiscordNotifier_sendWebhookRequestWithRetry(t *testing.T) {
	t.Run("first attempt succeeds", func(t *testing.T) {
		var requestCount atomic.Int32
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			requestCount.Add(1)
			w.WriteHeader(http.StatusNoContent)
		})

		if err := testDiscord(server.URL).sendWebhookRequestWithRetry(context.Background(), publishedEntry(), testSite()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count := requestCount.Load(); count != 1 {
			t.Errorf("expected 1 request, got %d", count)
		}
	})

	t.Run("retries after 503 and succeeds", func(t *testing.T) {
		var requestCount atomic.Int32
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			if requestCount.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		start := time.Now()
		err := testDiscord(server.URL).sendWebhookRequestWithRetry(context.Background(), publishedEntry(), testSite())
		elapsed := time.Since(start)

		if err != nil {
			t.Fatalf("expected no error after retry, got %v", err)
		}
		if count := requestCount.Load(); count != 2 {
			t.Errorf("expected 2 requests, got %d", count)
		}
		// Retry waits the 5s base delay between attempts
		if elapsed < 5*time.Second {
			t.Errorf("expected at least 5s backoff before retry, got %v", elapsed)
		}
	})

	t.Run("exhausts attempts on persistent failure", func(t *testing.T) {
		var requestCount atomic.Int32
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			requestCount.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		err := testDiscord(server.URL).sendWebhookRequestWithRetry(context.Background(), publishedEntry(), testSite())
		if err == nil {
			t.Fatal("expected error after exhausting retries, got nil")
		}
		if !strings.Contains(err.Error(), "failed after 2 attempts") {
			t.Errorf("expected exhaustion message, got %q", err.Error())
		}
		var serverErr *ServerError
		if !errors.As(err, &serverErr) {
			t.Errorf("expected wrapped *ServerError, got %v", err)
		}
		if count := requestCount.Load(); count != 2 {
			t.Errorf("expected 2 requests, got %d", count)
		}
	})

	t.Run("honors retry_after on 429", func(t *testing.T) {
		var requestCount atomic.Int32
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			if requestCount.Add(1) == 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"retry_after": 1.0}`))
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		start := time.Now()
		err := testDiscord(server.URL).sendWebhookRequestWithRetry(context.Background(), publishedEntry(), testSite())
		elapsed := time.Since(start)

		if err != nil {
			t.Fatalf("expected no error after rate limit retry, got %v", err)
		}
		if count := requestCount.Load(); count != 2 {
			t.Errorf("expected 2 requests, got %d", count)
		}
		// Waited the server-provided retry_after, not the 5s base delay
		if elapsed < 1*time.Second {
			t.Errorf("expected at least 1s rate limit backoff, got %v", elapsed)
		}
		if elapsed >= 5*time.Second {
			t.Errorf("expected retry_after backoff instead of base delay, got %v", elapsed)
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var requestCount atomic.Int32
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			requestCount.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message": "Invalid Webhook Token"}`))
		})

		err := testDiscord(server.URL).sendWebhookRequestWithRetry(context.Background(), publishedEntry(), testSite())

		var clientErr *ClientError
		if !errors.As(err, &clientErr) {
			t.Fatalf("expected *ClientError, got %T: %v", err, err)
		}
		if clientErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status code 401, got %d", clientErr.StatusCode)
		}
		if count := requestCount.Load(); count != 1 {
			t.Errorf("expected 1 request, got %d", count)
		}
	})

	t.Run("context expiry cuts the backoff short", func(t *testing.T) {
		var requestCount atomic.Int32
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			requestCount.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		start := time.Now()
		err := testDiscord(server.URL).sendWebhookRequestWithRetry(ctx, publishedEntry(), testSite())
		elapsed := time.Since(start)

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "context") {
			t.Errorf("expected context cancellation error, got %q", err.Error())
		}
		// Only the first attempt went out; the backoff was interrupted
		if count := requestCount.Load(); count != 1 {
			t.Errorf("expected 1 request, got %d", count)
		}
		if elapsed >= 4*time.Second {
			t.Errorf("expected return around the 2s context deadline, got %v", elapsed)
		}
	})
}

func TestDiscordNotifier_NotifyEntry(t *testing.T) {
	t.Run("announces end-to-end", func(t *testing.T) {
		var requestCount atomic.Int32
		var receivedPayload DiscordWebhookPayload
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			requestCount.Add(1)
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &receivedPayload)
			w.WriteHeader(http.StatusNoContent)
		})

		entry := publishedEntry()
		if err := testDiscord(server.URL).NotifyEntry(context.Background(), entry, testSite()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count := requestCount.Load(); count != 1 {
			t.Errorf("expected 1 request, got %d", count)
		}
		if len(receivedPayload.Embeds) != 1 || receivedPayload.Embeds[0].Title != entry.Title {
			t.Errorf("expected embed for %q, got %+v", entry.Title, receivedPayload)
		}
	})

	t.Run("successive announcements fit the burst", func(t *testing.T) {
		var requestCount atomic.Int32
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			requestCount.Add(1)
			w.WriteHeader(http.StatusNoContent)
		})

		n := testDiscord(server.URL)
		for i := 0; i < 2; i++ {
			entry := publishedEntry()
			entry.ID = int64(100 + i)
			entry.Slug = fmt.Sprintf("burst-entry-%d", i)

			if err := n.NotifyEntry(context.Background(), entry, testSite()); err != nil {
				t.Fatalf("announcement %d failed: %v", i, err)
			}
		}
		if count := requestCount.Load(); count != 2 {
			t.Errorf("expected 2 requests, got %d", count)
		}
	})

	t.Run("propagates exhausted retries", func(t *testing.T) {
		var requestCount atomic.Int32
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			requestCount.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		err := testDiscord(server.URL).NotifyEntry(context.Background(), publishedEntry(), testSite())
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "failed after 2 attempts") {
			t.Errorf("expected exhaustion message, got %q", err.Error())
		}
		if count := requestCount.Load(); count != 2 {
			t.Errorf("expected 2 requests, got %d", count)
		}
	})

	t.Run("errors never leak the webhook token", func(t *testing.T) {
		server := discordStub(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Unknown Webhook", "code": 10015}`))
		})

		n := testDiscord(server.URL + "/api/webhooks/123456/secret-token")
		err := n.NotifyEntry(context.Background(), publishedEntry(), testSite())
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if strings.Contains(err.Error(), "secret-token") {
			t.Errorf("error message leaks the webhook token: %q", err.Error())
		}
	})
}

func TestNewDiscordNotifier(t *testing.T) {
	cfg := DiscordConfig{
		Enabled:    true,
		WebhookURL: "https://discord.com/api/webhooks/123/token",
		Timeout:    15 * time.Second,
	}

	n := NewDiscordNotifier(cfg)
	if n == nil {
		t.Fatal("expected notifier, got nil")
	}
	if n.config.WebhookURL != cfg.WebhookURL {
		t.Errorf("expected webhook URL %q, got %q", cfg.WebhookURL, n.config.WebhookURL)
	}
	if n.httpClient == nil || n.httpClient.Timeout != cfg.Timeout {
		t.Errorf("expected HTTP client with timeout %v, got %+v", cfg.Timeout, n.httpClient)
	}
	if n.rateLimiter == nil {
		t.Error("expected rate limiter to be initialized")
	}
	if n.breaker == nil {
		t.Error("expected circuit breaker to be initialized")
	}
}

func TestErrorTypes(t *testing.T) {
	t.Run("RateLimitError message includes retry duration", func(t *testing.T) {
		err := &RateLimitError{
			Message:    "Discord rate limit exceeded",
			RetryAfter: 5 * time.Second,
		}
		if want := "Discord rate limit exceeded (retry after 5s)"; err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}

		bare := &RateLimitError{RetryAfter: 2 * time.Second}
		if want := "rate limit exceeded (retry after 2s)"; bare.Error() != want {
			t.Errorf("expected %q, got %q", want, bare.Error())
		}
	})

	t.Run("ClientError and ServerError return their message", func(t *testing.T) {
		ce := &ClientError{StatusCode: 400, Message: "Discord API client error: Invalid Form Body"}
		if ce.Error() != ce.Message {
			t.Errorf("expected %q, got %q", ce.Message, ce.Error())
		}
		se := &ServerError{StatusCode: 503, Message: "Discord API server error: Service Unavailable"}
		if se.Error() != se.Message {
			t.Errorf("expected %q, got %q", se.Message, se.Error())
		}
	})

	t.Run("is429Error detects rate limit errors", func(t *testing.T) {
		rateLimitErr := &RateLimitError{RetryAfter: 3 * time.Second}

		extracted, ok := is429Error(rateLimitErr)
		if !ok {
			t.Fatal("expected is429Error to detect *RateLimitError")
		}
		if extracted.RetryAfter != 3*time.Second {
			t.Errorf("expected retry_after 3s, got %v", extracted.RetryAfter)
		}

		wrapped := fmt.Errorf("send failed: %w", rateLimitErr)
		if _, ok := is429Error(wrapped); !ok {
			t.Error("expected is429Error to detect wrapped *RateLimitError")
		}
		if _, ok := is429Error(errors.New("other error")); ok {
			t.Error("expected is429Error to reject non-rate-limit errors")
		}
	})

	t.Run("isRetryableError classification", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want bool
		}{
			{"nil error", nil, false},
			{"server error", &ServerError{StatusCode: 503, Message: "down"}, true},
			{"client error", &ClientError{StatusCode: 400, Message: "bad request"}, false},
			{"rate limit error", &RateLimitError{RetryAfter: time.Second}, false},
			{"circuit breaker open", gobreaker.ErrOpenState, false},
			{"circuit breaker half-open limit", gobreaker.ErrTooManyRequests, false},
			{"connection refused", &url.Error{Op: "Post", URL: "https://example.com", Err: syscall.ECONNREFUSED}, true},
			{"wrapped connection reset", fmt.Errorf("dial: %w", syscall.ECONNRESET), true},
			{"context canceled", context.Canceled, false},
			{"opaque error", errors.New("malformed payload"), false},
		}

		for _, tt := range tests {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("%s: expected retryable=%v, got %v", tt.name, tt.want, got)
			}
		}
	})
}
