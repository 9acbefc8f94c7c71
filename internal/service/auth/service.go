// Package auth holds the transport-agnostic authentication core: the
// provider contract, the credential types, and the service that the HTTP
// layer drives. Providers live in the handler layer; this package knows
// nothing about JWT or HTTP.
package auth

import (
	"context"
	"strings"
)

// Credentials carries a login attempt. Username holds the account email.
type Credentials struct {
	Username string
	Password string
}

// CredentialRequirements is the password policy a provider enforces.
type CredentialRequirements struct {
	MinPasswordLength int
	WeakPasswords     []string
}

// AuthProvider authenticates accounts and resolves their role. The blog
// ships an env-backed implementation for the author plus an optional demo
// viewer; other backends only need to satisfy this interface.
type AuthProvider interface {
	// ValidateCredentials checks a login attempt. The error message must
	// not reveal which part of the credentials was wrong.
	ValidateCredentials(ctx context.Context, creds Credentials) error

	// GetRequirements reports the password policy for diagnostics.
	GetRequirements() CredentialRequirements

	// Name identifies the provider in logs.
	Name() string

	// IdentifyUser returns the role claim for an authenticated account.
	IdentifyUser(ctx context.Context, email string) (string, error)
}

// AuthService wires a provider to the configured public endpoint list.
type AuthService struct {
	provider        AuthProvider
	publicEndpoints []string
}

// NewAuthService builds a service around the given provider. The endpoint
// list comes from security.yaml; pass the default list when no file is
// configured.
func NewAuthService(provider AuthProvider, publicEndpoints []string) *AuthService {
	return &AuthService{
		provider:        provider,
		publicEndpoints: publicEndpoints,
	}
}

// ValidateCredentials delegates the login attempt to the provider.
func (s *AuthService) ValidateCredentials(ctx context.Context, creds Credentials) error {
	return s.provider.ValidateCredentials(ctx, creds)
}

// IsPublicEndpoint reports whether a path is reachable without a token
// under this service's configuration. The rules match the middleware:
// "/" only matches itself, entries ending in "/" are prefixes, everything
// else matches exactly or with a query string.
func (s *AuthService) IsPublicEndpoint(path string) bool {
	for _, endpoint := range s.publicEndpoints {
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

// GetProvider exposes the provider for role resolution after a successful
// login.
func (s *AuthService) GetProvider() AuthProvider {
	return s.provider
}
