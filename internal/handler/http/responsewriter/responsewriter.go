// Package responsewriter wraps http.ResponseWriter so middleware can observe
// what a handler wrote. The access-log middleware reads the recorded status
// and byte count after the handler returns.
package responsewriter

import (
	"net/http"
)

// ResponseWriter records the status code and body size of a response.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

// Wrap returns a recording wrapper around w. The status defaults to 200
// because net/http sends 200 when a handler writes without WriteHeader.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader records the status code. Later calls are dropped, matching
// net/http's first-write-wins behavior.
func (w *ResponseWriter) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.statusCode = statusCode
		w.headerWritten = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

// Write forwards the body bytes and adds them to the running size.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

// StatusCode returns the recorded HTTP status code.
func (w *ResponseWriter) StatusCode() int {
	return w.statusCode
}

// BytesWritten returns the number of body bytes written so far.
func (w *ResponseWriter) BytesWritten() int {
	return w.bytesWritten
}

// Unwrap exposes the wrapped writer so http.ResponseController can reach
// optional interfaces like Flusher on the original.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
