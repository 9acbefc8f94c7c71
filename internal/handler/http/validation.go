package http

import "net/http"

const (
	// JWT は通常 1KB 未満。余裕を見て 8KB で打ち切る
	maxAuthHeaderLen = 8192
	maxPathLen       = 2048
)

// InputValidation rejects requests whose Authorization header or URI path
// exceed sane bounds before any handler work happens. Body size is enforced
// separately by LimitRequestBody.
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.Header.Get("Authorization")) > maxAuthHeaderLen {
				writeValidationError(w, http.StatusBadRequest, "authorization header too large")
				return
			}

			if len(r.URL.Path) > maxPathLen {
				writeValidationError(w, http.StatusRequestURITooLong, "URI too long")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeValidationError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
