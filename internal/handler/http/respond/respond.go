// Package respond writes JSON responses and keeps internal error detail out
// of what clients see.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as a JSON body with the given status code. A nil v sends
// the status line and headers only.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// ヘッダ送信済みなのでログに残すことしかできない
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes err's message as {"error": ...} without sanitization. Use
// SafeError for anything that may carry internal detail.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// safeFragments marks error text that is fine to show to clients. The set
// mirrors the wording of the entity validators and usecase sentinels; an
// error that matches none of them is assumed to carry internal detail.
var safeFragments = []string{
	"validation error", // entity.ValidationError prefix
	"required",
	"invalid",
	"not found",
	"already exists",
	"must be",
	"must not",  // "must not exceed N characters"
	"must use",  // "must use https scheme"
	"must have", // "must have a valid host"
	"may only",  // slug charset rule
	"cannot",
	"too long",
	"too short",
}

// clientSafe reports whether msg can be returned verbatim. 5xx responses
// are never safe regardless of wording.
func clientSafe(code int, msg string) bool {
	if code >= 500 {
		return false
	}
	lower := strings.ToLower(msg)
	for _, safe := range safeFragments {
		if strings.Contains(lower, safe) {
			return true
		}
	}
	return false
}

// SafeError sends err to the client only when its wording marks it as a
// validation or lookup error. Everything else becomes a generic
// "internal server error" body, with the original error logged after
// secret stripping.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	if clientSafe(code, msg) {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.Any("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}
