package middleware

import (
	"strings"
)

// WhitelistValidator allows exactly the origins it was built with. Matching
// is case-insensitive and ignores trailing slashes; everything else must
// agree, so scheme and port are significant. http://localhost:3000 and
// http://localhost:3001 are different origins.
type WhitelistValidator struct {
	allowedOrigins []string
}

// NewWhitelistValidator builds a validator from the given origins. Each
// entry is normalized once up front: surrounding whitespace trimmed, blank
// entries dropped, the rest lowercased with any trailing slash removed.
// Order is preserved and duplicates are kept as-is.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		origin = strings.ToLower(origin)
		origin = strings.TrimSuffix(origin, "/")
		normalized = append(normalized, origin)
	}

	return &WhitelistValidator{
		allowedOrigins: normalized,
	}
}

// IsAllowed reports whether origin is on the whitelist. The candidate gets
// the same normalization as the configured entries, so case and trailing
// slashes never cause a spurious mismatch. The scan is linear; whitelists
// here hold a handful of entries.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	if origin == "" {
		return false
	}

	origin = strings.ToLower(strings.TrimSpace(origin))
	origin = strings.TrimSuffix(origin, "/")

	for _, allowed := range v.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

// GetAllowedOrigins returns the normalized whitelist as a fresh slice, so
// callers cannot mutate the validator through it.
func (v *WhitelistValidator) GetAllowedOrigins() []string {
	out := make([]string, len(v.allowedOrigins))
	copy(out, v.allowedOrigins)
	return out
}
