package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newCaptureLogger returns a JSON logger writing into buf so tests can
// assert on emitted fields.
func newCaptureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		query  string
		status int
	}{
		{"GET with 200", http.MethodGet, "/entry/hello-world", "", http.StatusOK},
		{"POST with query params", http.MethodPost, "/compose", "draft=1", http.StatusCreated},
		{"server error", http.MethodGet, "/entry/broken", "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := Logging(newCaptureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("response body"))
			}))

			url := tt.path
			if tt.query != "" {
				url += "?" + tt.query
			}
			req := httptest.NewRequest(tt.method, url, nil)
			req.Header.Set("User-Agent", "test-agent/1.0")
			req.RemoteAddr = "192.168.1.1:12345"

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Errorf("got status %d, want %d", rr.Code, tt.status)
			}

			var record map[string]any
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("access log is not valid JSON: %v", err)
			}
			// ログに出るパスはクエリを含まない
			want := map[string]any{
				"msg":    "request completed",
				"method": tt.method,
				"path":   tt.path,
				"status": float64(tt.status),
				"bytes":  float64(len("response body")),
			}
			for key, wantVal := range want {
				if record[key] != wantVal {
					t.Errorf("%s = %v, want %v", key, record[key], wantVal)
				}
			}
		})
	}
}

func TestRecover(t *testing.T) {
	panics := []struct {
		name  string
		value any
	}{
		{"panic with string", "something went wrong"},
		{"panic with error", fmt.Errorf("test error")},
		{"panic with number", 42},
	}

	for _, tt := range panics {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := Recover(newCaptureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.value)
			}))

			rr := httptest.NewRecorder()
			// ミドルウェアが回収するのでここまでパニックは届かない
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/entry/hello-world", nil))

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
			}
			if !strings.Contains(buf.String(), "panic recovered") {
				t.Error("panic was not logged")
			}
			// パニックの中身はレスポンスに漏らさない
			if strings.Contains(rr.Body.String(), fmt.Sprint(tt.value)) {
				t.Errorf("response leaks panic value: %q", rr.Body.String())
			}
		})
	}

	t.Run("no panic passes through", func(t *testing.T) {
		var buf bytes.Buffer
		handler := Recover(newCaptureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/entry/hello-world", nil))

		if rr.Code != http.StatusOK {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
		}
	})
}

func TestLimitRequestBody(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		bodySize int
		want     int
	}{
		{"small body within limit", 1024, 512, http.StatusOK},
		{"body exactly at limit", 1024, 1024, http.StatusOK},
		{"body exceeds limit", 100, 200, http.StatusRequestEntityTooLarge},
		{"very large body", 1024, 10240, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := LimitRequestBody(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// MaxBytesReader surfaces the limit as a read error here.
				if _, err := io.ReadAll(r.Body); err != nil {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))

			body := strings.Repeat("a", tt.bodySize)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/compose", strings.NewReader(body)))

			if rr.Code != tt.want {
				t.Errorf("got status %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
