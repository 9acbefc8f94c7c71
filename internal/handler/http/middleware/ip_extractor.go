package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"
)

// IPExtractor resolves the client IP a rate limit decision is keyed on.
type IPExtractor interface {
	ExtractIP(r *http.Request) (string, error)
}

// RemoteAddrExtractor keys on the TCP peer address. This is the default: the
// peer address cannot be forged by the client, while forwarding headers can.
// Use it whenever the server is reached directly.
type RemoteAddrExtractor struct{}

// ExtractIP strips the port from r.RemoteAddr. Handles bracketed IPv6
// ("[2001:db8::1]:443") as well as bare addresses without a port.
func (RemoteAddrExtractor) ExtractIP(r *http.Request) (string, error) {
	return ipFromAddr(r.RemoteAddr)
}

// TrustedProxyConfig names the reverse proxies whose forwarding headers are
// believed. Anything not in the list gets RemoteAddr treatment no matter
// what headers it sends.
type TrustedProxyConfig struct {
	// Enabled gates header-based extraction entirely.
	Enabled bool

	// AllowedCIDRs are the proxy ranges. Single addresses load as /32 or
	// /128 prefixes.
	AllowedCIDRs []netip.Prefix
}

// IsTrusted reports whether remoteAddr ("ip:port" or bare IP) falls inside a
// trusted proxy range.
func (c *TrustedProxyConfig) IsTrusted(remoteAddr string) bool {
	ip, err := ipFromAddr(remoteAddr)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range c.AllowedCIDRs {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// LoadTrustedProxyConfig reads RATE_LIMIT_TRUST_PROXY and
// RATE_LIMIT_TRUSTED_PROXIES (comma-separated IPs or CIDR ranges).
//
// Misconfiguration fails closed: trust enabled with an empty or unparseable
// proxy list is a startup error, not a silently open header trust.
func LoadTrustedProxyConfig() (*TrustedProxyConfig, error) {
	cfg := &TrustedProxyConfig{
		Enabled: os.Getenv("RATE_LIMIT_TRUST_PROXY") == "true",
	}
	if !cfg.Enabled {
		return cfg, nil
	}

	raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_TRUSTED_PROXIES"))
	if raw == "" {
		return nil, fmt.Errorf("RATE_LIMIT_TRUST_PROXY is enabled but RATE_LIMIT_TRUSTED_PROXIES is empty")
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		prefix, err := parseProxyEntry(part)
		if err != nil {
			return nil, err
		}
		cfg.AllowedCIDRs = append(cfg.AllowedCIDRs, prefix)
	}
	if len(cfg.AllowedCIDRs) == 0 {
		return nil, fmt.Errorf("RATE_LIMIT_TRUSTED_PROXIES contains no usable entries")
	}
	return cfg, nil
}

// parseProxyEntry accepts CIDR notation or a bare address.
func parseProxyEntry(s string) (netip.Prefix, error) {
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return prefix, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid proxy entry %q: want an IP or CIDR range", s)
	}
	bits := 32
	if addr.Is6() {
		bits = 128
	}
	return netip.PrefixFrom(addr, bits), nil
}

// TrustedProxyExtractor reads X-Forwarded-For (first hop) or X-Real-IP, but
// only when the connecting peer is a trusted proxy. Untrusted peers sending
// forwarding headers are logged and keyed on their real address, so a client
// cannot rotate its apparent IP by forging headers.
type TrustedProxyExtractor struct {
	config TrustedProxyConfig
}

func NewTrustedProxyExtractor(config TrustedProxyConfig) *TrustedProxyExtractor {
	return &TrustedProxyExtractor{config: config}
}

func (e *TrustedProxyExtractor) ExtractIP(r *http.Request) (string, error) {
	if !e.config.Enabled {
		return ipFromAddr(r.RemoteAddr)
	}

	if !e.config.IsTrusted(r.RemoteAddr) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			slog.Warn("forwarding header from untrusted peer ignored",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("x_forwarded_for", xff))
		}
		return ipFromAddr(r.RemoteAddr)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := firstForwardedIP(xff); ip != "" {
			return ip, nil
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String(), nil
		}
	}
	return ipFromAddr(r.RemoteAddr)
}

// ipFromAddr extracts the IP from "host:port", "[v6]:port", or a bare
// address.
func ipFromAddr(addr string) (string, error) {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host, nil
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String(), nil
	}
	return "", fmt.Errorf("invalid remote address %q", addr)
}

// firstForwardedIP returns the leftmost valid IP of an X-Forwarded-For list
// ("client, proxy1, proxy2"), the hop closest to the client.
func firstForwardedIP(xff string) string {
	first := xff
	if i := strings.IndexByte(xff, ','); i >= 0 {
		first = xff[:i]
	}
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return ""
}
