package auth

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	authservice "inkwell/internal/service/auth"
)

// measureMean は fn を iterations 回実行し平均所要時間を返す。
func measureMean(iterations int, fn func()) time.Duration {
	var total time.Duration
	for i := 0; i < iterations; i++ {
		start := time.Now()
		fn()
		total += time.Since(start)
	}
	return total / time.Duration(iterations)
}

func deviationPercent(mean, global time.Duration) float64 {
	return math.Abs(float64(mean-global)) / float64(global) * 100
}

/* ───────── 1. 検証時間の統計検査 ───────── */

// 有効・無効の資格情報で ValidateCredentials の所要時間に統計的な差が
// 出ないことを確認する。差が出るとパスワードの正誤やメールアドレスの
// 存在が応答時間から推測できてしまう。
func TestValidateCredentials_TimingAttackResistance(t *testing.T) {
	// CI の共有リソース上では計測ノイズが大きすぎる
	if os.Getenv("CI") != "" {
		t.Skip("Skipping timing attack test in CI environment (too noisy)")
	}

	setupTestEnv(t, "admin@example.com", "admin-strong-password-123",
		"viewer@example.com", "viewer-strong-password-456")
	provider := NewMultiUserAuthProvider(8, []string{"password", "12345678"})
	ctx := context.Background()

	scenarios := []struct {
		name  string
		creds authservice.Credentials
	}{
		{"valid admin", authservice.Credentials{Username: "admin@example.com", Password: "admin-strong-password-123"}},
		{"valid viewer", authservice.Credentials{Username: "viewer@example.com", Password: "viewer-strong-password-456"}},
		{"invalid password admin", authservice.Credentials{Username: "admin@example.com", Password: "wrong-password-123"}},
		{"invalid password viewer", authservice.Credentials{Username: "viewer@example.com", Password: "wrong-password-456"}},
		{"unknown email", authservice.Credentials{Username: "unknown@example.com", Password: "some-password-789"}},
	}

	const iterations = 150
	means := make(map[string]time.Duration)
	var globalTotal time.Duration
	for _, sc := range scenarios {
		mean := measureMean(iterations, func() {
			_ = provider.ValidateCredentials(ctx, sc.creds)
		})
		means[sc.name] = mean
		globalTotal += mean
		t.Logf("%s: mean=%v", sc.name, mean)
	}
	globalMean := globalTotal / time.Duration(len(scenarios))
	t.Logf("global mean: %v", globalMean)

	// 65% まで許容。クレデンシャル長の違いと OS スケジューリングの揺らぎを
	// 吸収しつつ、桁違いのリークは検出できる。
	for name, mean := range means {
		pct := deviationPercent(mean, globalMean)
		t.Logf("%s: deviation %.2f%%", name, pct)
		assert.LessOrEqual(t, pct, 65.0,
			"%s: timing deviation may leak credential validity", name)
	}
}

// IdentifyUser の所要時間がメールアドレスの存在で変わらないことを確認する。
func TestIdentifyUser_TimingAttackResistance(t *testing.T) {
	if os.Getenv("CI") != "" {
		t.Skip("Skipping timing attack test in CI environment (too noisy)")
	}

	setupTestEnv(t, "admin@example.com", "dummy-pass", "viewer@example.com", "dummy-pass")
	provider := NewMultiUserAuthProvider(8, []string{})
	ctx := context.Background()

	scenarios := []struct {
		name  string
		email string
	}{
		{"admin email", "admin@example.com"},
		{"viewer email", "viewer@example.com"},
		{"unknown email", "unknown@example.com"},
		{"invalid format", "not-an-email"},
	}

	const iterations = 150
	means := make(map[string]time.Duration)
	var globalTotal time.Duration
	for _, sc := range scenarios {
		mean := measureMean(iterations, func() {
			_, _ = provider.IdentifyUser(ctx, sc.email)
		})
		means[sc.name] = mean
		globalTotal += mean
		t.Logf("%s: mean=%v", sc.name, mean)
	}
	globalMean := globalTotal / time.Duration(len(scenarios))

	// IdentifyUser はナノ秒オーダーで相対ノイズが大きいため 100% まで許容
	for name, mean := range means {
		pct := deviationPercent(mean, globalMean)
		t.Logf("%s: deviation %.2f%%", name, pct)
		assert.LessOrEqual(t, pct, 100.0,
			"%s: timing deviation may leak email existence", name)
	}
}

/* ───────── 2. 比較の位置によらない拒否 ───────── */

// 先頭・末尾どの文字が違っても同様に拒否されること。早期 return する
// 比較実装が紛れ込んでいればここで挙動が変わる。
func TestValidateCredentials_MismatchPosition(t *testing.T) {
	setupTestEnv(t, "admin@example.com", "admin-password", "", "")
	provider := NewMultiUserAuthProvider(8, []string{})
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"correct", "admin@example.com", false},
		{"wrong first character", "xdmin@example.com", true},
		{"wrong last character", "admin@example.cox", true},
		{"completely different", "hacker@evil.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := provider.ValidateCredentials(ctx, authservice.Credentials{
				Username: tt.username,
				Password: "admin-password",
			})
			if tt.wantErr {
				assert.EqualError(t, err, "invalid credentials")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
