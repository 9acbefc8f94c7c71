package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig describes the cross-origin policy for the API. Two browser
// clients, the published reader frontend and the compose UI, talk to this
// server from origins of their own, so every response they read crosses an
// origin boundary and needs these grants.
type CORSConfig struct {
	// AllowedOrigins is the origin list as loaded from configuration, kept
	// for startup logging and introspection. Request handling consults
	// Validator, not this slice.
	AllowedOrigins []string

	// AllowedMethods lists the HTTP methods advertised in preflight
	// responses. CORS_ALLOWED_METHODS overrides the default
	// GET, POST, PUT, DELETE, PATCH, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders lists the request headers the browser may send.
	// CORS_ALLOWED_HEADERS overrides the default set of Content-Type,
	// Authorization, and the request/trace ID headers.
	AllowedHeaders []string

	// AllowCredentials controls Access-Control-Allow-Credentials. The
	// compose UI authenticates with a bearer token, so this is always true
	// in practice.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds, sent as
	// Access-Control-Max-Age. CORS_MAX_AGE overrides the default 86400.
	MaxAge int

	// Validator decides whether an Origin header value is acceptable.
	Validator OriginValidator

	// Logger receives policy violations and preflight detail. May be nil,
	// in which case the middleware stays silent.
	Logger CORSLogger
}

// CORS returns middleware enforcing the given cross-origin policy.
//
// Requests without an Origin header are same-origin and pass through
// untouched. Requests from origins the Validator rejects also reach the
// next handler, but with no CORS headers set: the browser then withholds
// the response from the page while non-browser clients are unaffected. The
// rejection is logged with the origin, path, and caller address.
//
// For allowed origins the middleware echoes the origin back (a literal
// "*" is forbidden once credentials are in play) and answers OPTIONS
// preflights itself with 204 plus the method, header, and max-age grants.
// Preflights never reach the next handler.
//
// Wiring at startup:
//
//	cfg, err := middleware.LoadCORSConfig()
//	cfg.Logger = &middleware.SlogAdapter{Logger: logger}
//	handler = middleware.CORS(*cfg)(handler)
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// No Origin header means a same-origin request.
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !config.Validator.IsAllowed(origin) {
				if config.Logger != nil {
					config.Logger.Warn("CORS: origin not allowed", map[string]any{
						"origin":      origin,
						"path":        r.URL.Path,
						"method":      r.Method,
						"remote_addr": r.RemoteAddr,
					})
				}

				// The request still runs; withholding the CORS headers is
				// what makes the browser block the response.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))

				if config.Logger != nil {
					config.Logger.Debug("CORS: preflight request", map[string]any{
						"origin":            origin,
						"requested_method":  r.Header.Get("Access-Control-Request-Method"),
						"requested_headers": r.Header.Get("Access-Control-Request-Headers"),
					})
				}

				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
