package middleware

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// EnvConfigSource loads the CORS policy from environment variables:
//
//	CORS_ALLOWED_ORIGINS  comma-separated origin whitelist (required)
//	CORS_ALLOWED_METHODS  comma-separated HTTP methods (optional)
//	CORS_ALLOWED_HEADERS  comma-separated request headers (optional)
//	CORS_MAX_AGE          preflight cache lifetime in seconds (optional)
//
// A typical deployment allows the published reader frontend plus a local
// compose UI:
//
//	CORS_ALLOWED_ORIGINS=https://blog.example.com,http://localhost:3000
type EnvConfigSource struct{}

// splitCSV splits a comma-separated env value, trimming whitespace and
// dropping empty entries.
func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// validateOrigin rejects anything that would never match a browser's Origin
// header: a missing or non-http scheme, a path, query, fragment, or
// trailing slash. Catching these at startup beats a CORS mystery later.
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin URL '%s': %w", origin, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin must use http or https scheme: %s", origin)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("origin must not include path: %s", origin)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("origin must not include query string: %s", origin)
	}
	if u.Fragment != "" {
		return fmt.Errorf("origin must not include fragment: %s", origin)
	}
	if strings.HasSuffix(origin, "/") {
		return fmt.Errorf("origin must not have trailing slash: %s", origin)
	}
	return nil
}

// LoadOrigins reads CORS_ALLOWED_ORIGINS. The variable is required: with no
// whitelist the policy fails closed rather than silently allowing nothing
// or everything.
func (s *EnvConfigSource) LoadOrigins() ([]string, error) {
	raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if raw == "" {
		return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS environment variable is required")
	}

	origins := splitCSV(raw)
	for _, origin := range origins {
		if err := validateOrigin(origin); err != nil {
			return nil, err
		}
	}

	if len(origins) == 0 {
		return nil, fmt.Errorf("at least one valid origin must be configured in CORS_ALLOWED_ORIGINS")
	}
	return origins, nil
}

// LoadMethods reads CORS_ALLOWED_METHODS, defaulting to GET, POST, PUT,
// DELETE, PATCH, OPTIONS when unset. Entries are uppercased; anything
// outside that verb set is an error.
func (s *EnvConfigSource) LoadMethods() ([]string, error) {
	raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_METHODS"))
	if raw == "" {
		return []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}, nil
	}

	valid := map[string]bool{
		"GET": true, "POST": true, "PUT": true,
		"DELETE": true, "PATCH": true, "OPTIONS": true,
	}

	methods := splitCSV(raw)
	for i, method := range methods {
		method = strings.ToUpper(method)
		if !valid[method] {
			return nil, fmt.Errorf("invalid HTTP method '%s': must be one of GET, POST, PUT, DELETE, PATCH, OPTIONS", method)
		}
		methods[i] = method
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("at least one valid HTTP method must be configured in CORS_ALLOWED_METHODS")
	}
	return methods, nil
}

// LoadHeaders reads CORS_ALLOWED_HEADERS. When unset it defaults to
// Content-Type, Authorization, X-Request-ID, and X-Trace-ID: the headers
// the compose UI actually sends plus the correlation IDs echoed back for
// debugging.
func (s *EnvConfigSource) LoadHeaders() ([]string, error) {
	raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_HEADERS"))
	if raw == "" {
		return []string{"Content-Type", "Authorization", "X-Request-ID", "X-Trace-ID"}, nil
	}

	headers := splitCSV(raw)
	if len(headers) == 0 {
		return nil, fmt.Errorf("at least one valid header must be configured in CORS_ALLOWED_HEADERS")
	}
	return headers, nil
}

// LoadMaxAge reads CORS_MAX_AGE, defaulting to 86400 (24 hours). The value
// must parse as a non-negative integer; zero disables preflight caching.
func (s *EnvConfigSource) LoadMaxAge() (int, error) {
	raw := strings.TrimSpace(os.Getenv("CORS_MAX_AGE"))
	if raw == "" {
		return 86400, nil
	}

	maxAge, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid CORS_MAX_AGE '%s': must be a valid integer", raw)
	}
	if maxAge < 0 {
		return 0, fmt.Errorf("CORS_MAX_AGE must be non-negative, got: %d", maxAge)
	}
	return maxAge, nil
}

// LoadCORSConfig loads the CORS policy from environment variables. The
// returned config has no Logger; the caller injects one after loading:
//
//	cfg, err := middleware.LoadCORSConfig()
//	if err != nil {
//	    // refuse to start
//	}
//	cfg.Logger = &middleware.SlogAdapter{Logger: logger}
func LoadCORSConfig() (*CORSConfig, error) {
	return LoadCORSConfigFromSource(&EnvConfigSource{}, nil)
}

// LoadCORSConfigFromSource assembles a CORSConfig from any ConfigSource,
// wiring a WhitelistValidator over the loaded origins. logger may be nil;
// the caller can inject one later.
func LoadCORSConfigFromSource(source ConfigSource, logger CORSLogger) (*CORSConfig, error) {
	origins, err := source.LoadOrigins()
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed origins: %w", err)
	}

	methods, err := source.LoadMethods()
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed methods: %w", err)
	}

	headers, err := source.LoadHeaders()
	if err != nil {
		return nil, fmt.Errorf("failed to load allowed headers: %w", err)
	}

	maxAge, err := source.LoadMaxAge()
	if err != nil {
		return nil, fmt.Errorf("failed to load max age: %w", err)
	}

	return &CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: methods,
		AllowedHeaders: headers,
		// The compose UI sends a bearer token, so credentials are always
		// granted.
		AllowCredentials: true,
		MaxAge:           maxAge,
		Validator:        NewWhitelistValidator(origins),
		Logger:           logger,
	}, nil
}
