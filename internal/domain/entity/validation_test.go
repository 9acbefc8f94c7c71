package entity

import (
	"errors"
	"net"
	"strings"
	"testing"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{
			name:    "valid title",
			title:   "Hello, World!",
			wantErr: false,
		},
		{
			name:    "single character",
			title:   "x",
			wantErr: false,
		},
		{
			name:    "empty title",
			title:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			title:   "   \t  ",
			wantErr: true,
		},
		{
			name:    "at max length",
			title:   strings.Repeat("a", 512),
			wantErr: false,
		},
		{
			name:    "over max length",
			title:   strings.Repeat("a", 513),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.title)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTitle(%q) error = %v, wantErr %v", tt.title, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		wantErr bool
	}{
		{
			name:    "simple slug",
			slug:    "hello-world",
			wantErr: false,
		},
		{
			name:    "collision suffix",
			slug:    "hello-world-2-2",
			wantErr: false,
		},
		{
			name:    "fallback slug",
			slug:    "entry",
			wantErr: false,
		},
		{
			name:    "digits and underscores",
			slug:    "go_1_24-released",
			wantErr: false,
		},
		{
			name:    "empty slug",
			slug:    "",
			wantErr: true,
		},
		{
			name:    "uppercase rejected",
			slug:    "Hello-World",
			wantErr: true,
		},
		{
			name:    "spaces rejected",
			slug:    "hello world",
			wantErr: true,
		},
		{
			name:    "slash rejected",
			slug:    "a/b",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSlug(%q) error = %v, wantErr %v", tt.slug, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBody(t *testing.T) {
	if err := ValidateBody(""); err != nil {
		t.Errorf("empty body should be valid, got %v", err)
	}
	if err := ValidateBody("# heading\n\nparagraph"); err != nil {
		t.Errorf("normal body should be valid, got %v", err)
	}
	if err := ValidateBody(strings.Repeat("a", 1<<20+1)); err == nil {
		t.Error("oversized body should be rejected")
	}
}

func TestValidateWebhookURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "valid https URL",
			url:     "https://hooks.slack.com/services/T00/B00/XXX",
			wantErr: false,
		},
		{
			name:    "valid URL with port",
			url:     "https://example.com:8443/hook",
			wantErr: false,
		},
		{
			name:    "empty URL",
			url:     "",
			wantErr: true,
		},
		{
			name:    "http rejected",
			url:     "http://example.com/hook",
			wantErr: true,
		},
		{
			name:    "invalid scheme - ftp",
			url:     "ftp://example.com/hook",
			wantErr: true,
		},
		{
			name:    "invalid scheme - javascript",
			url:     "javascript:alert(1)",
			wantErr: true,
		},
		{
			name:    "no host",
			url:     "https://",
			wantErr: true,
		},
		{
			name:    "too long",
			url:     "https://example.com/" + strings.Repeat("a", 2048),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWebhookURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWebhookURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateWebhookURL_ValidationErrorType(t *testing.T) {
	err := ValidateWebhookURL("")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("want *ValidationError, got %T", err)
	}
	if vErr.Field != "webhook_url" {
		t.Errorf("Field = %q, want %q", vErr.Field, "webhook_url")
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		private bool
	}{
		{name: "loopback", ip: "127.0.0.1", private: true},
		{name: "private 10.x", ip: "10.0.0.5", private: true},
		{name: "private 172.16.x", ip: "172.16.0.1", private: true},
		{name: "private 192.168.x", ip: "192.168.1.1", private: true},
		{name: "cloud metadata", ip: "169.254.169.254", private: true},
		{name: "public", ip: "93.184.216.34", private: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isPrivateIP(net.ParseIP(tt.ip))
			if got != tt.private {
				t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
			}
		})
	}
}
