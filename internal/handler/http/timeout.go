package http

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout returns middleware that caps how long a request may run. When the
// limit elapses the client gets 504 Gateway Timeout and the request context
// is canceled so downstream work (renderer, database) stops.
//
// It sits innermost in the chain so the metrics middleware still observes
// the 504 and feeds it into the SLO window.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w}
			done := make(chan struct{})

			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				tw.reportTimeout()
			}
		})
	}
}

// timeoutWriter arbitrates between the handler goroutine and the timeout
// path: exactly one of them produces the response, and handler writes that
// arrive after the deadline are swallowed.
type timeoutWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	timedOut bool
	written  bool
}

func (w *timeoutWriter) WriteHeader(statusCode int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut || w.written {
		return
	}
	w.written = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *timeoutWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !w.written {
		w.written = true
		w.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// reportTimeout sends the 504 unless the handler beat the deadline to the
// first byte, in which case the response is left as-is.
func (w *timeoutWriter) reportTimeout() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.timedOut = true
	if w.written {
		return
	}
	w.ResponseWriter.Header().Set("Content-Type", "application/json")
	w.ResponseWriter.WriteHeader(http.StatusGatewayTimeout)
	_, _ = w.ResponseWriter.Write([]byte(`{"error":"request timeout"}`))
}
