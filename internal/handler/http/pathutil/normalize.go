package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern pairs a compiled route pattern with the template label it
// collapses into.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// Dynamic routes, most specific first. Compiled once at init so the metrics
// middleware can call NormalizePath on every request.
var pathPatterns = []*PathPattern{
	// Permalink routes carry one slug segment each
	{Pattern: regexp.MustCompile(`^/entry/[^/]+$`), Template: "/entry/:slug"},

	// Swagger UI assets all collapse into one label
	{Pattern: regexp.MustCompile(`^/swagger/.+$`), Template: "/swagger/:asset"},
}

// NormalizePath turns a concrete request path into its metrics label.
// Permalinks become "/entry/:slug" and swagger assets "/swagger/:asset";
// static paths pass through unchanged, as does anything unrecognized.
// Query strings and trailing slashes are stripped first, so
// "/entry/hello-world?utm=x" and "/entry/hello-world/" both label as
// "/entry/:slug".
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}

// GetExpectedCardinality estimates how many unique path labels the service
// emits after normalization: one per template plus the static endpoints
// (/, /archive, /index, /feed, /about, /compose, /auth/token, /health,
// /ready, /live, /metrics, /swagger). Useful for alerting on label growth.
func GetExpectedCardinality() int {
	const staticEndpoints = 12
	return len(pathPatterns) + staticEndpoints
}
