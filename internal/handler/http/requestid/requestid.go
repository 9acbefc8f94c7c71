// Package requestid assigns every HTTP request an ID that follows it through
// logs, announcement dispatches, and error responses.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for storing request IDs.
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader is the HTTP header name for request IDs.
	RequestIDHeader = "X-Request-ID"

	// maxInboundIDLength caps client-supplied IDs so log lines stay bounded.
	maxInboundIDLength = 128
)

// FromContext retrieves the request ID from the context.
// Returns an empty string if no request ID is found.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Middleware propagates an inbound X-Request-ID or generates a UUID v4 when
// the header is missing or oversized. The ID ends up in the request context
// and on the response so clients can correlate their calls with server logs.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// クライアント指定のIDがあれば引き継ぐ（長すぎるものは破棄）
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxInboundIDLength {
			requestID = uuid.New().String()
		}

		// レスポンスにも載せてクライアント側から追跡できるようにする
		w.Header().Set(RequestIDHeader, requestID)

		ctx := WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
