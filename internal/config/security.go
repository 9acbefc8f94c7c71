package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SecurityConfig mirrors security.yaml. The file is optional; without it the
// blog runs on DefaultSecurityConfig.
type SecurityConfig struct {
	Security SecuritySection `yaml:"security"`
}

// SecuritySection groups the auth provider, the public endpoint list, and
// the JWT settings.
type SecuritySection struct {
	Auth            AuthSection `yaml:"auth"`
	PublicEndpoints []string    `yaml:"public_endpoints"`
	JWT             JWTSection  `yaml:"jwt"`
}

// AuthSection selects the credential provider. "basic" is the single-author
// setup; "multi_user" adds the optional demo viewer.
type AuthSection struct {
	Provider string           `yaml:"provider"`
	Basic    BasicAuthSection `yaml:"basic"`
}

// BasicAuthSection is the password policy shared by both providers.
type BasicAuthSection struct {
	MinPasswordLength int      `yaml:"min_password_length"`
	WeakPasswords     []string `yaml:"weak_passwords"`
}

// JWTSection names the env var holding the signing secret and the token
// lifetime.
type JWTSection struct {
	SecretEnv   string `yaml:"secret_env"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

// DefaultSecurityConfig returns the configuration used when no YAML file is
// provided. Every reading route is public; only compose and the operational
// write paths sit behind authentication.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		Security: SecuritySection{
			Auth: AuthSection{
				Provider: "basic",
				Basic: BasicAuthSection{
					MinPasswordLength: 12,
					WeakPasswords:     []string{"password", "123456", "admin", "test", "secret"},
				},
			},
			PublicEndpoints: []string{
				"/", "/archive", "/index", "/feed", "/entry/", "/about",
				"/auth/token", "/health", "/ready", "/live", "/metrics", "/swagger/",
			},
			JWT: JWTSection{
				SecretEnv:   "JWT_SECRET",
				ExpiryHours: 1,
			},
		},
	}
}

// LoadSecurityConfig reads and validates a security.yaml. The path comes
// from the CLI flag or a hardcoded default, never from request input.
func LoadSecurityConfig(path string) (*SecurityConfig, error) {
	// #nosec G304 -- path is provided by trusted source (CLI arg or config), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config SecurityConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *SecurityConfig) validate() error {
	if c.Security.Auth.Provider == "" {
		return fmt.Errorf("auth provider is required")
	}

	// 2 つのプロバイダーは同じパスワードポリシーを共有する
	switch c.Security.Auth.Provider {
	case "basic", "multi_user":
		if c.Security.Auth.Basic.MinPasswordLength <= 0 {
			return fmt.Errorf("min_password_length must be positive")
		}
		if c.Security.Auth.Basic.MinPasswordLength < 8 {
			return fmt.Errorf("min_password_length must be at least 8")
		}
	}

	if c.Security.JWT.SecretEnv == "" {
		return fmt.Errorf("jwt secret_env is required")
	}
	if c.Security.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("jwt expiry_hours must be positive")
	}

	return nil
}

// GetAuthProvider returns the configured authentication provider name.
func (c *SecurityConfig) GetAuthProvider() string {
	return c.Security.Auth.Provider
}

// GetMinPasswordLength returns the minimum password length requirement.
func (c *SecurityConfig) GetMinPasswordLength() int {
	return c.Security.Auth.Basic.MinPasswordLength
}

// GetWeakPasswords returns the list of rejected weak passwords.
func (c *SecurityConfig) GetWeakPasswords() []string {
	return c.Security.Auth.Basic.WeakPasswords
}

// GetPublicEndpoints returns the list of endpoints served without a token.
func (c *SecurityConfig) GetPublicEndpoints() []string {
	return c.Security.PublicEndpoints
}

// GetJWTSecretEnv returns the environment variable name for the JWT secret.
func (c *SecurityConfig) GetJWTSecretEnv() string {
	return c.Security.JWT.SecretEnv
}

// GetJWTExpiryHours returns the JWT expiry time in hours.
func (c *SecurityConfig) GetJWTExpiryHours() int {
	return c.Security.JWT.ExpiryHours
}

// TokenTTL returns the configured token lifetime as a duration.
func (c *SecurityConfig) TokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.ExpiryHours) * time.Hour
}
