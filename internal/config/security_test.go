package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSecurityYAML は一時ディレクトリに YAML を書いてパスを返す。
func writeSecurityYAML(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "security.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

/* ───────── 1. 読み込みと検証 ───────── */

func TestLoadSecurityConfig_Valid(t *testing.T) {
	path := writeSecurityYAML(t, `security:
  auth:
    provider: "basic"
    basic:
      min_password_length: 12
      weak_passwords:
        - "admin"
        - "password"
  public_endpoints:
    - "/health"
    - "/metrics"
  jwt:
    secret_env: "JWT_SECRET"
    expiry_hours: 24
`)

	config, err := LoadSecurityConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "basic", config.GetAuthProvider())
	assert.Equal(t, 12, config.GetMinPasswordLength())
	assert.Equal(t, []string{"admin", "password"}, config.GetWeakPasswords())
	assert.Equal(t, []string{"/health", "/metrics"}, config.GetPublicEndpoints())
	assert.Equal(t, "JWT_SECRET", config.GetJWTSecretEnv())
	assert.Equal(t, 24, config.GetJWTExpiryHours())
	assert.Equal(t, 24*time.Hour, config.TokenTTL())
}

func TestLoadSecurityConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing provider",
			yaml: `security:
  auth:
    basic:
      min_password_length: 12
  jwt:
    secret_env: "JWT_SECRET"
    expiry_hours: 24
`,
			wantErr: "auth provider is required",
		},
		{
			name: "zero min_password_length",
			yaml: `security:
  auth:
    provider: "basic"
    basic:
      min_password_length: 0
  jwt:
    secret_env: "JWT_SECRET"
    expiry_hours: 24
`,
			wantErr: "min_password_length must be positive",
		},
		{
			name: "min_password_length too short",
			yaml: `security:
  auth:
    provider: "basic"
    basic:
      min_password_length: 6
  jwt:
    secret_env: "JWT_SECRET"
    expiry_hours: 24
`,
			wantErr: "min_password_length must be at least 8",
		},
		{
			name: "multi_user shares the password policy",
			yaml: `security:
  auth:
    provider: "multi_user"
    basic:
      min_password_length: 6
  jwt:
    secret_env: "JWT_SECRET"
    expiry_hours: 24
`,
			wantErr: "min_password_length must be at least 8",
		},
		{
			name: "missing jwt secret_env",
			yaml: `security:
  auth:
    provider: "basic"
    basic:
      min_password_length: 12
  jwt:
    expiry_hours: 24
`,
			wantErr: "jwt secret_env is required",
		},
		{
			name: "zero jwt expiry_hours",
			yaml: `security:
  auth:
    provider: "basic"
    basic:
      min_password_length: 12
  jwt:
    secret_env: "JWT_SECRET"
    expiry_hours: 0
`,
			wantErr: "jwt expiry_hours must be positive",
		},
		{
			name: "negative jwt expiry_hours",
			yaml: `security:
  auth:
    provider: "basic"
    basic:
      min_password_length: 12
  jwt:
    secret_env: "JWT_SECRET"
    expiry_hours: -1
`,
			wantErr: "jwt expiry_hours must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSecurityConfig(writeSecurityYAML(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSecurityConfig_EmptyListsAreValid(t *testing.T) {
	// 弱いパスワードのリストも公開リストも空にできる。空の公開リストは
	// 会員制の構成
	path := writeSecurityYAML(t, `security:
  auth:
    provider: "basic"
    basic:
      min_password_length: 12
      weak_passwords: []
  public_endpoints: []
  jwt:
    secret_env: "JWT_SECRET"
    expiry_hours: 24
`)

	config, err := LoadSecurityConfig(path)
	require.NoError(t, err)
	assert.Empty(t, config.GetWeakPasswords())
	assert.Empty(t, config.GetPublicEndpoints())
}

func TestLoadSecurityConfig_FileErrors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		_, err := LoadSecurityConfig("/nonexistent/path/security.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeSecurityYAML(t, `security:
  auth:
    provider: "basic"
    basic:
      min_password_length: invalid
`)
		_, err := LoadSecurityConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config")
	})
}

/* ───────── 2. 直接構築した設定の検証 ───────── */

func TestValidate_UnknownProviderSkipsPasswordPolicy(t *testing.T) {
	// basic / multi_user 以外のプロバイダーはパスワードポリシーを持たない
	cfg := &SecurityConfig{
		Security: SecuritySection{
			Auth: AuthSection{Provider: "oauth"},
			JWT:  JWTSection{SecretEnv: "JWT_SECRET", ExpiryHours: 24},
		},
	}
	assert.NoError(t, cfg.validate())
}

/* ───────── 3. 既定構成 ───────── */

func TestDefaultSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()

	require.NoError(t, config.validate(), "default config must validate")
	assert.Equal(t, "basic", config.GetAuthProvider())
	assert.Equal(t, 12, config.GetMinPasswordLength())
	assert.Equal(t, 1, config.GetJWTExpiryHours())
	assert.Equal(t, time.Hour, config.TokenTTL())

	// 読み取り面はすべて公開、執筆面は含まれない
	got := config.GetPublicEndpoints()
	for _, want := range []string{"/", "/archive", "/feed", "/entry/", "/about", "/auth/token"} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "/compose")
}
