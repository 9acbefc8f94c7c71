package auth

import (
	"context"
	"fmt"
	"os"

	authservice "inkwell/internal/service/auth"
)

// envAccount describes one login backed by a pair of environment variables.
type envAccount struct {
	userEnv string
	passEnv string
	role    string
}

// loginTable returns the accounts this deployment accepts. The demo viewer
// entry participates only when DEMO_USER is set.
func loginTable() []envAccount {
	accounts := []envAccount{
		{userEnv: "ADMIN_USER", passEnv: "ADMIN_USER_PASSWORD", role: RoleAdmin},
	}
	if os.Getenv("DEMO_USER") != "" {
		accounts = append(accounts, envAccount{
			userEnv: "DEMO_USER", passEnv: "DEMO_USER_PASSWORD", role: RoleViewer,
		})
	}
	return accounts
}

// MultiUserAuthProvider authenticates the admin account plus the optional
// read-only demo account used for public showcases of the compose UI.
type MultiUserAuthProvider struct {
	policy passwordPolicy
}

// NewMultiUserAuthProvider creates a provider enforcing the given password policy.
func NewMultiUserAuthProvider(minPasswordLength int, weakPasswords []string) *MultiUserAuthProvider {
	return &MultiUserAuthProvider{
		policy: passwordPolicy{minLength: minPasswordLength, weakList: weakPasswords},
	}
}

// ValidateCredentials checks creds against every configured account. All
// accounts are compared in constant time before the verdict is returned.
func (p *MultiUserAuthProvider) ValidateCredentials(ctx context.Context, creds authservice.Credentials) error {
	if err := p.policy.check(creds); err != nil {
		return err
	}

	matched := false
	for _, account := range loginTable() {
		userOK := equalConstantTime(creds.Username, os.Getenv(account.userEnv))
		passOK := equalConstantTime(creds.Password, os.Getenv(account.passEnv))
		if userOK && passOK {
			matched = true
		}
	}
	if !matched {
		return fmt.Errorf("invalid credentials")
	}
	return nil
}

// IdentifyUser maps a login name to its role, "admin" or "viewer".
func (p *MultiUserAuthProvider) IdentifyUser(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email must not be empty")
	}
	for _, account := range loginTable() {
		if equalConstantTime(email, os.Getenv(account.userEnv)) {
			return account.role, nil
		}
	}
	return "", fmt.Errorf("user not found")
}

// GetRequirements returns the password requirements.
func (p *MultiUserAuthProvider) GetRequirements() authservice.CredentialRequirements {
	return authservice.CredentialRequirements{
		MinPasswordLength: p.policy.minLength,
		WeakPasswords:     p.policy.weakList,
	}
}

// Name returns the provider name.
func (p *MultiUserAuthProvider) Name() string {
	return "multi-user"
}
