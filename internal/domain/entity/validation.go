package entity

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	// maxTitleLength bounds entry titles; anything longer is almost
	// certainly pasted garbage rather than a headline.
	maxTitleLength = 512

	// maxSlugLength mirrors maxTitleLength since slugs derive from titles.
	maxSlugLength = 512

	// maxBodyBytes bounds the raw markdown source (1 MiB).
	maxBodyBytes = 1 << 20

	// maxURLLength caps webhook URLs; real webhook endpoints are far
	// shorter, and unbounded input invites abuse.
	maxURLLength = 2048
)

// ValidateTitle checks that an entry title is present after trimming and
// within the length bound. Returns a ValidationError on failure.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(title) > maxTitleLength {
		return &ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("title must not exceed %d characters", maxTitleLength),
		}
	}
	return nil
}

// ValidateSlug checks that a slug is non-empty, within bounds, and consists
// only of lowercase ASCII letters, digits, and hyphens.
func ValidateSlug(slug string) error {
	if slug == "" {
		return &ValidationError{Field: "slug", Message: "slug is required"}
	}
	if len(slug) > maxSlugLength {
		return &ValidationError{
			Field:   "slug",
			Message: fmt.Sprintf("slug must not exceed %d characters", maxSlugLength),
		}
	}
	for _, r := range slug {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return &ValidationError{
				Field:   "slug",
				Message: "slug may only contain lowercase letters, digits, hyphens and underscores",
			}
		}
	}
	return nil
}

// ValidateBody checks that the markdown source fits within the storage bound.
// An empty body is allowed; a blank post is the author's business.
func ValidateBody(body string) error {
	if len(body) > maxBodyBytes {
		return &ValidationError{
			Field:   "markdown",
			Message: fmt.Sprintf("markdown body must not exceed %d bytes", maxBodyBytes),
		}
	}
	return nil
}

// ValidateWebhookURL checks that an announcement webhook URL is well formed,
// bounded in length, uses https, and does not resolve to a private address.
// The announcement channels never accept a URL this function rejects.
func ValidateWebhookURL(rawURL string) error {
	switch {
	case rawURL == "":
		return &ValidationError{Field: "webhook_url", Message: "webhook URL is required"}
	case len(rawURL) > maxURLLength:
		return &ValidationError{
			Field:   "webhook_url",
			Message: fmt.Sprintf("webhook URL must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme != "https" {
		return &ValidationError{Field: "webhook_url", Message: "webhook URL must use https scheme"}
	}
	if parsedURL.Host == "" {
		return &ValidationError{Field: "webhook_url", Message: "webhook URL must have a valid host"}
	}

	// SSRF 対策。名前解決できない場合はここでは弾かず、送信時の接続エラーに任せる。
	ips, err := net.LookupIP(parsedURL.Hostname())
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return &ValidationError{
				Field:   "webhook_url",
				Message: "webhook URL cannot point to private network",
			}
		}
	}
	return nil
}

// privateIPv4Ranges covers RFC 1918 space plus the link-local block, which
// includes cloud metadata endpoints like 169.254.169.254.
var privateIPv4Ranges = func() []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "169.254.0.0/16"} {
		_, subnet, _ := net.ParseCIDR(cidr)
		nets = append(nets, subnet)
	}
	return nets
}()

// isPrivateIP reports whether ip lives in loopback, link-local, or private
// range and must never be a webhook target.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return true
	}
	for _, subnet := range privateIPv4Ranges {
		if subnet.Contains(ip) {
			return true
		}
	}
	return false
}
