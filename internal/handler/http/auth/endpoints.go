package auth

import "strings"

// PublicEndpoints lists the paths reachable without a JWT: the whole reading
// surface of the blog, the orchestration probes, the Prometheus scrape
// target, the swagger assets, and the token endpoint itself.
//
// This list mirrors config.DefaultSecurityConfig; the YAML-configured list is
// carried by the AuthService.
var PublicEndpoints = []string{
	"/",
	"/archive",
	"/index",
	"/feed",
	"/entry/",
	"/about",
	"/health",
	"/ready",
	"/live",
	"/metrics",
	"/swagger/",
	"/auth/token",
}

// SetPublicEndpoints replaces the public endpoint list with the one from the
// security configuration. Call once at startup, before the server accepts
// requests; the list is read without locking afterwards.
func SetPublicEndpoints(endpoints []string) {
	PublicEndpoints = endpoints
}

// IsPublicEndpoint reports whether path can be served without authentication.
// Entries ending in "/" match as prefixes (so "/entry/" covers every
// permalink); all others match exactly, optionally with a trailing slash or a
// query string. "/health" therefore admits "/health?format=json" but not
// "/health/detail" or "/healthcheck".
func IsPublicEndpoint(path string) bool {
	for _, endpoint := range PublicEndpoints {
		// The blog home matches exactly, never as a catch-all prefix.
		if endpoint == "/" {
			if path == "/" {
				return true
			}
			continue
		}

		if strings.HasSuffix(endpoint, "/") {
			if strings.HasPrefix(path, endpoint) {
				return true
			}
			continue
		}

		if path == endpoint || path == endpoint+"/" || strings.HasPrefix(path, endpoint+"?") {
			return true
		}
	}
	return false
}
