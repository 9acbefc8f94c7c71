package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	authservice "inkwell/internal/service/auth"
)

// passwordPolicy holds the checks both env-backed providers run before any
// credential comparison happens.
type passwordPolicy struct {
	minLength int
	weakList  []string
}

func (pp passwordPolicy) check(creds authservice.Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("credentials must not be empty")
	}
	if len(creds.Password) < pp.minLength {
		return fmt.Errorf("password must be at least %d characters", pp.minLength)
	}
	for _, weak := range pp.weakList {
		if creds.Password == weak || strings.HasPrefix(creds.Password, weak) {
			return fmt.Errorf("weak password detected")
		}
	}
	return nil
}

func equalConstantTime(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// BasicAuthProvider authenticates the blog's single admin account against
// ADMIN_USER / ADMIN_USER_PASSWORD. Deployments that also want the read-only
// demo login use MultiUserAuthProvider instead.
type BasicAuthProvider struct {
	policy passwordPolicy
}

// NewBasicAuthProvider creates a provider enforcing the given password policy.
func NewBasicAuthProvider(minPasswordLength int, weakPasswords []string) *BasicAuthProvider {
	return &BasicAuthProvider{
		policy: passwordPolicy{minLength: minPasswordLength, weakList: weakPasswords},
	}
}

// ValidateCredentials checks creds against the admin environment variables.
func (p *BasicAuthProvider) ValidateCredentials(ctx context.Context, creds authservice.Credentials) error {
	if err := p.policy.check(creds); err != nil {
		return err
	}

	// Evaluate both comparisons unconditionally so a wrong username costs the
	// same time as a wrong password.
	userOK := equalConstantTime(creds.Username, os.Getenv("ADMIN_USER"))
	passOK := equalConstantTime(creds.Password, os.Getenv("ADMIN_USER_PASSWORD"))
	if !userOK || !passOK {
		return fmt.Errorf("invalid credentials")
	}
	return nil
}

// IdentifyUser maps a login name to its role. The basic provider knows the
// admin only.
func (p *BasicAuthProvider) IdentifyUser(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email must not be empty")
	}
	if equalConstantTime(email, os.Getenv("ADMIN_USER")) {
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("user not found")
}

// GetRequirements returns the password requirements.
func (p *BasicAuthProvider) GetRequirements() authservice.CredentialRequirements {
	return authservice.CredentialRequirements{
		MinPasswordLength: p.policy.minLength,
		WeakPasswords:     p.policy.weakList,
	}
}

// Name returns the provider name.
func (p *BasicAuthProvider) Name() string {
	return "basic"
}
