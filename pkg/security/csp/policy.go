// Package csp builds Content-Security-Policy header values.
//
// A Policy accumulates directives through a fluent interface and renders them
// with Build. Directives appear in the header in the order they were first
// set, which keeps the output deterministic and readable:
//
//	value := csp.New().
//	    DefaultSrc("'self'").
//	    ScriptSrc("'self'", "https://cdn.example.com").
//	    Build()
//
// Policy is not safe for concurrent mutation; build policies once at startup
// and share the resulting strings.
package csp

import "strings"

// Policy accumulates CSP directives.
type Policy struct {
	order      []string
	directives map[string][]string
	reportOnly bool
}

// New returns an empty Policy.
func New() *Policy {
	return &Policy{directives: make(map[string][]string)}
}

// Directive sets an arbitrary directive, replacing any previous sources for
// it. The named helpers below all funnel through here.
func (p *Policy) Directive(name string, sources ...string) *Policy {
	if _, seen := p.directives[name]; !seen {
		p.order = append(p.order, name)
	}
	p.directives[name] = sources
	return p
}

// DefaultSrc sets default-src, the fallback for fetch directives.
func (p *Policy) DefaultSrc(sources ...string) *Policy { return p.Directive("default-src", sources...) }

// ScriptSrc sets script-src.
func (p *Policy) ScriptSrc(sources ...string) *Policy { return p.Directive("script-src", sources...) }

// StyleSrc sets style-src.
func (p *Policy) StyleSrc(sources ...string) *Policy { return p.Directive("style-src", sources...) }

// ImgSrc sets img-src.
func (p *Policy) ImgSrc(sources ...string) *Policy { return p.Directive("img-src", sources...) }

// FontSrc sets font-src.
func (p *Policy) FontSrc(sources ...string) *Policy { return p.Directive("font-src", sources...) }

// ConnectSrc sets connect-src, which governs fetch, XHR, and WebSocket
// targets.
func (p *Policy) ConnectSrc(sources ...string) *Policy { return p.Directive("connect-src", sources...) }

// FrameAncestors sets frame-ancestors. "'none'" blocks all framing and is
// the usual clickjacking defence.
func (p *Policy) FrameAncestors(sources ...string) *Policy {
	return p.Directive("frame-ancestors", sources...)
}

// FormAction sets form-action.
func (p *Policy) FormAction(sources ...string) *Policy { return p.Directive("form-action", sources...) }

// BaseURI sets base-uri.
func (p *Policy) BaseURI(sources ...string) *Policy { return p.Directive("base-uri", sources...) }

// ObjectSrc sets object-src.
func (p *Policy) ObjectSrc(sources ...string) *Policy { return p.Directive("object-src", sources...) }

// ReportOnly switches the policy between enforcement and report-only mode.
// The mode only affects Header; the rendered value is the same either way.
func (p *Policy) ReportOnly(enabled bool) *Policy {
	p.reportOnly = enabled
	return p
}

// Build renders the header value. Directives with no sources are skipped; an
// empty policy renders as "".
func (p *Policy) Build() string {
	var parts []string
	for _, name := range p.order {
		sources := p.directives[name]
		if len(sources) == 0 {
			continue
		}
		parts = append(parts, name+" "+strings.Join(sources, " "))
	}
	return strings.Join(parts, "; ")
}

// Header returns the header name matching the policy's mode.
func (p *Policy) Header() string {
	if p.reportOnly {
		return "Content-Security-Policy-Report-Only"
	}
	return "Content-Security-Policy"
}

// Strict returns the locked-down policy used for JSON endpoints. Nothing is
// loadable except same-origin connections, and framing is blocked outright.
func Strict() *Policy {
	return New().
		DefaultSrc("'none'").
		ConnectSrc("'self'").
		FrameAncestors("'none'").
		BaseURI("'self'").
		FormAction("'self'")
}

// SwaggerUI returns a policy permissive enough for the bundled Swagger UI,
// which needs inline scripts and styles plus the jsdelivr CDN. Everything
// else stays strict.
func SwaggerUI() *Policy {
	return New().
		DefaultSrc("'self'").
		ScriptSrc("'self'", "'unsafe-inline'", "https://cdn.jsdelivr.net").
		StyleSrc("'self'", "'unsafe-inline'", "https://cdn.jsdelivr.net").
		ImgSrc("'self'", "data:", "https:").
		FontSrc("'self'", "data:").
		ConnectSrc("'self'", "blob:").
		FrameAncestors("'none'").
		BaseURI("'self'").
		FormAction("'self'").
		ObjectSrc("'none'")
}
