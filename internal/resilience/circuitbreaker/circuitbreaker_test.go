package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// テスト用の共通設定。しきい値 60%、最低 5 リクエストで評価する。
func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

/* ───────── 1. 生成と素通し ───────── */

func TestNew_StartsClosed(t *testing.T) {
	cb := New(testConfig())

	require.NotNil(t, cb)
	assert.Equal(t, "test-circuit", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.False(t, cb.IsOpen())
}

func TestExecute_PassesThroughResultAndError(t *testing.T) {
	cb := New(testConfig())

	result, err := cb.Execute(func() (interface{}, error) {
		return "success", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	opErr := errors.New("webhook unreachable")
	result, err = cb.Execute(func() (interface{}, error) {
		return nil, opErr
	})
	assert.ErrorIs(t, err, opErr)
	assert.Nil(t, result)
}

/* ───────── 2. 遮断とフェイルファスト ───────── */

func TestExecute_TripsOpenAtFailureRatio(t *testing.T) {
	cb := New(testConfig())

	// 4 失敗 + 1 成功 = 80%。まだ MinRequests 到達直後で閉じたまま。
	opErr := errors.New("webhook unreachable")
	for i := 0; i < 4; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, opErr })
		require.ErrorIs(t, err, opErr)
	}
	_, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)

	// もう 1 失敗でしきい値超過が確定し、回路が開く。
	_, err = cb.Execute(func() (interface{}, error) { return nil, opErr })
	require.ErrorIs(t, err, opErr)
	require.True(t, cb.IsOpen())

	// 開いている間は関数を呼ばずに即座に失敗する。
	called := false
	_, err = cb.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called, "開いた回路では関数が呼ばれてはならない")
}

func TestExecute_StaysClosedBelowMinRequests(t *testing.T) {
	cfg := testConfig()
	cfg.FailureThreshold = 0.5
	cfg.MinRequests = 10
	cb := New(cfg)

	// MinRequests 未満の失敗だけでは比率を評価しない。
	opErr := errors.New("webhook unreachable")
	for i := 0; i < 4; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, opErr })
		require.ErrorIs(t, err, opErr)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

/* ───────── 3. 復帰 ───────── */

func TestExecute_RecoversThroughHalfOpen(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequests = 2
	cfg.Timeout = 100 * time.Millisecond
	cb := New(cfg)

	opErr := errors.New("webhook unreachable")
	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, opErr })
	}
	require.True(t, cb.IsOpen())

	// Timeout 経過後の成功プローブで回路が閉じ直す。
	time.Sleep(150 * time.Millisecond)
	result, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.NotEqual(t, gobreaker.StateOpen, cb.State())
}

/* ───────── 4. 設定プリセット ───────── */

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("renderer")

	assert.Equal(t, "renderer", cfg.Name)
	assert.Equal(t, uint32(3), cfg.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.InDelta(t, 0.6, cfg.FailureThreshold, 1e-9)
	assert.Equal(t, uint32(5), cfg.MinRequests)
}

func TestWebhookConfig(t *testing.T) {
	cfg := WebhookConfig("discord-webhook")

	// Webhook は全滅型の障害が多いので、控えめなプローブと長めの Timeout。
	assert.Equal(t, "discord-webhook", cfg.Name)
	assert.Equal(t, uint32(2), cfg.MaxRequests)
	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.InDelta(t, 0.6, cfg.FailureThreshold, 1e-9)
	assert.Equal(t, uint32(4), cfg.MinRequests)
}
