package middleware

import (
	"net/http"
	"strings"

	"inkwell/pkg/security/csp"
)

// CSPConfig selects which Content-Security-Policy applies to which routes.
type CSPConfig struct {
	// Enabled turns the middleware into a no-op when false.
	Enabled bool
	// ReportOnly emits violations without enforcing them. Applies to every
	// policy the middleware serves.
	ReportOnly bool
	// Default is applied when no path policy matches. Nil means the strict
	// API policy.
	Default *csp.Policy
	// PathPolicies maps a path prefix to a policy. The longest matching
	// prefix wins, so "/swagger/" can relax what "/" enforces.
	PathPolicies map[string]*csp.Policy
}

// CSP sets Content-Security-Policy headers on every response. Policies are
// rendered once at construction; request handling only picks a prefix.
type CSP struct {
	enabled      bool
	header       string
	defaultValue string
	pathValues   map[string]string
}

// NewCSP builds the middleware from cfg.
func NewCSP(cfg CSPConfig) *CSP {
	def := cfg.Default
	if def == nil {
		def = csp.Strict()
	}
	def.ReportOnly(cfg.ReportOnly)

	values := make(map[string]string, len(cfg.PathPolicies))
	for prefix, policy := range cfg.PathPolicies {
		if policy == nil {
			continue
		}
		values[prefix] = policy.Build()
	}

	return &CSP{
		enabled:      cfg.Enabled,
		header:       def.Header(),
		defaultValue: def.Build(),
		pathValues:   values,
	}
}

// Middleware applies the selected policy before calling next.
func (c *CSP) Middleware(next http.Handler) http.Handler {
	if !c.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if value := c.valueFor(r.URL.Path); value != "" {
			w.Header().Set(c.header, value)
		}
		next.ServeHTTP(w, r)
	})
}

func (c *CSP) valueFor(path string) string {
	best, bestLen := c.defaultValue, -1
	for prefix, value := range c.pathValues {
		if len(prefix) > bestLen && strings.HasPrefix(path, prefix) {
			best, bestLen = value, len(prefix)
		}
	}
	return best
}
