package pathutil

import (
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		// Permalinks collapse to one slug label.
		{"entry with simple slug", "/entry/hello-world", "/entry/:slug"},
		{"entry with suffixed slug", "/entry/hello-world-2", "/entry/:slug"},
		{"entry with fallback slug", "/entry/entry", "/entry/:slug"},
		{"entry with trailing slash", "/entry/hello-world/", "/entry/:slug"},
		{"entry with query params", "/entry/hello-world?utm_source=feed", "/entry/:slug"},

		// Swagger assets collapse to one label too.
		{"swagger index", "/swagger/index.html", "/swagger/:asset"},
		{"swagger doc json", "/swagger/doc.json", "/swagger/:asset"},

		// Static endpoints pass through, queries stripped.
		{"archive page", "/archive", "/archive"},
		{"feed endpoint", "/feed", "/feed"},
		{"about page", "/about", "/about"},
		{"compose endpoint", "/compose", "/compose"},
		{"compose with prefill query", "/compose?id=7", "/compose"},
		{"health endpoint", "/health", "/health"},
		{"health with query params", "/health?format=json", "/health"},
		{"metrics endpoint", "/metrics", "/metrics"},
		{"auth token endpoint", "/auth/token", "/auth/token"},
		{"ready endpoint", "/ready", "/ready"},
		{"live endpoint", "/live", "/live"},

		// Unmatched paths stay as-is.
		{"unknown path with ID", "/unknown/path/123", "/unknown/path/123"},
		{"nested path below entry", "/entry/hello-world/comments", "/entry/hello-world/comments"},

		{"root path", "/", "/"},
		{"empty path", "", ""},
		{"path with only query params", "/?page=1", "/"},
		{"bare entry prefix (should not normalize)", "/entry/", "/entry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePath(tt.path); got != tt.expected {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestGetExpectedCardinality(t *testing.T) {
	got := GetExpectedCardinality()
	if got <= 0 {
		t.Errorf("GetExpectedCardinality() = %d, want positive", got)
	}
	// label数が想定より増えたらパターン追加を検討する
	if got > 50 {
		t.Errorf("GetExpectedCardinality() = %d, exceeds safe label budget", got)
	}
}
