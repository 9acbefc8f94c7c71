package middleware

// OriginValidator decides which browser origins may read API responses
// cross-origin. The CORS middleware consults it once per request that
// carries an Origin header.
//
// The default implementation is WhitelistValidator, an exact-match check
// against the configured origin list. The interface exists so a deployment
// that needs wildcard subdomains or per-environment rules can swap in its
// own strategy without touching the middleware.
type OriginValidator interface {
	// IsAllowed reports whether the value of an HTTP Origin header may
	// receive CORS headers. Implementations should compare origins
	// case-insensitively, ignore trailing slashes, and reject the empty
	// string.
	IsAllowed(origin string) bool

	// GetAllowedOrigins returns the configured origins for startup logging
	// and debugging. Implementations must hand back a defensive copy,
	// never a reference to internal state.
	GetAllowedOrigins() []string
}

// ConfigSource loads the pieces of a CORS policy from a configuration
// backend. EnvConfigSource reads environment variables; tests substitute
// fixed sources.
type ConfigSource interface {
	// LoadOrigins returns the allowed origins. At least one origin must be
	// configured; the policy fails closed rather than defaulting to open.
	// Each entry must be a bare http:// or https:// origin with no path,
	// query, fragment, or trailing slash.
	LoadOrigins() ([]string, error)

	// LoadMethods returns the allowed HTTP methods, supplying a default
	// when the source has no value. Verbs outside GET, POST, PUT, DELETE,
	// PATCH, OPTIONS are rejected.
	LoadMethods() ([]string, error)

	// LoadHeaders returns the request headers granted in preflight
	// responses. Browsers compare header names case-insensitively, so
	// "content-type" and "Content-Type" are equivalent.
	LoadHeaders() ([]string, error)

	// LoadMaxAge returns how long, in seconds, browsers may cache a
	// preflight result. Zero disables caching; negative values are
	// invalid.
	LoadMaxAge() (int, error)
}

// CORSLogger decouples the middleware from a concrete logging backend so
// tests can count and inspect log calls. SlogAdapter bridges to the
// application's *slog.Logger in production; NoOpLogger silences output in
// tests.
type CORSLogger interface {
	// Info records configuration and startup events.
	Info(msg string, fields map[string]any)

	// Warn records policy violations, chiefly origins outside the
	// whitelist.
	Warn(msg string, fields map[string]any)

	// Debug records per-request detail such as preflight handling. Kept
	// below Info so steady-state traffic does not flood the log.
	Debug(msg string, fields map[string]any)
}
