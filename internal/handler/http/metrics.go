package http

import (
	"net/http"
	"strconv"
	"time"

	"inkwell/internal/handler/http/pathutil"
	"inkwell/internal/observability/metrics"
	"inkwell/internal/observability/slo"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// responseWriter remembers the status code and body size so the middleware
// can label metrics after the handler returns.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// MetricsMiddleware records request counters, latency, body sizes, and the
// SLO measurement window for every request. Paths are normalized before
// labeling so each permalink does not become its own series.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()
		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		metrics.RecordHTTPRequest(
			r.Method,
			pathutil.NormalizePath(r.URL.Path),
			strconv.Itoa(rw.statusCode),
			elapsed,
			int(r.ContentLength),
			rw.size,
		)

		// 背景の更新ループがこのウィンドウをゲージに変換する
		slo.Default().Record(rw.statusCode, elapsed.Seconds())
	})
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
