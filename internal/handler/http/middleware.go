package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"inkwell/internal/handler/http/requestid"
	"inkwell/internal/handler/http/respond"
	"inkwell/internal/handler/http/responsewriter"

	"go.opentelemetry.io/otel/trace"
)

// Logging writes one structured access-log line per request. The line carries
// the request ID and the OpenTelemetry trace ID so a log entry, an access log
// line and a trace can all be joined on either identifier.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// ステータスとサイズを記録するためにラップする
			wrapped := responsewriter.Wrap(w)

			next.ServeHTTP(wrapped, r)

			span := trace.SpanFromContext(r.Context())
			duration := time.Since(start)

			logger.Info("request completed",
				slog.String("request_id", requestid.FromContext(r.Context())),
				slog.String("trace_id", span.SpanContext().TraceID().String()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("query", r.URL.RawQuery),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.Int("status", wrapped.StatusCode()),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Duration("duration", duration),
			)
		})
	}
}

// Recover turns a handler panic into a 500 response and a stack-trace log
// entry instead of tearing down the whole server.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					// パニックの詳細はログのみ。レスポンスには出さない
					respond.SafeError(
						w,
						http.StatusInternalServerError,
						fmt.Errorf("internal error"),
					)

					logger.Error("panic recovered",
						slog.String("request_id", requestid.FromContext(r.Context())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LimitRequestBody caps request bodies at maxBytes. Oversized bodies make the
// handler's read fail, which surfaces as 400 via MaxBytesReader.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
