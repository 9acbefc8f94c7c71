package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/domain/entity"
)

/* ───────────────────────── 1. テストヘルパ ───────────────────────── */

func testEntry(id int64) *entity.Entry {
	return &entity.Entry{
		ID:        id,
		Author:    "author@example.com",
		Title:     fmt.Sprintf("Entry %d", id),
		Slug:      fmt.Sprintf("entry-%d", id),
		Body:      "Hello, world.",
		HTML:      "<p>Hello, world.</p>",
		Published: time.Now(),
		Updated:   time.Now(),
	}
}

// waitSends polls until the channel has seen want sends, or fails after the
// timeout. Polling keeps the happy-path tests fast; fixed sleeps are only
// used where the assertion is "nothing happened".
func waitSends(t *testing.T, ch *mockChannel, want int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ch.getSendCalledCount() >= want {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, want, ch.getSendCalledCount())
}

// settleDelay is how long negative tests wait before asserting that no send
// happened.
const settleDelay = 100 * time.Millisecond

func healthByName(svc Service) map[string]ChannelHealthStatus {
	byName := make(map[string]ChannelHealthStatus)
	for _, h := range svc.GetChannelHealth() {
		byName[h.Name] = h
	}
	return byName
}

/* ───────────────────────── 2. ディスパッチ ───────────────────────── */

func TestAnnounceEntry_SingleChannel(t *testing.T) {
	mock := &mockChannel{name: "discord", enabled: true}
	svc := NewService([]Channel{mock}, 10)
	defer shutdownNotify(t, svc)

	svc.AnnounceEntry(context.Background(), testEntry(1))

	waitSends(t, mock, 1, time.Second)
}

func TestAnnounceEntry_SkipsDisabledChannels(t *testing.T) {
	discord := &mockChannel{name: "discord", enabled: true}
	slack := &mockChannel{name: "slack", enabled: true}
	email := &mockChannel{name: "email", enabled: false}
	svc := NewService([]Channel{discord, slack, email}, 10)
	defer shutdownNotify(t, svc)

	svc.AnnounceEntry(context.Background(), testEntry(1))

	waitSends(t, discord, 1, time.Second)
	waitSends(t, slack, 1, time.Second)
	assert.Equal(t, 0, email.getSendCalledCount(), "無効チャンネルには配送されない")
}

func TestAnnounceEntry_NoChannelsEnabled(t *testing.T) {
	discord := &mockChannel{name: "discord", enabled: false}
	slack := &mockChannel{name: "slack", enabled: false}
	svc := NewService([]Channel{discord, slack}, 10)
	defer shutdownNotify(t, svc)

	svc.AnnounceEntry(context.Background(), testEntry(1))
	time.Sleep(settleDelay)

	assert.Equal(t, 0, discord.getSendCalledCount())
	assert.Equal(t, 0, slack.getSendCalledCount())
}

func TestAnnounceEntry_NilEntry(t *testing.T) {
	mock := &mockChannel{name: "discord", enabled: true}
	svc := NewService([]Channel{mock}, 10)
	defer shutdownNotify(t, svc)

	svc.AnnounceEntry(context.Background(), nil)
	time.Sleep(settleDelay)

	assert.Equal(t, 0, mock.getSendCalledCount())
}

// 呼び出し元コンテキストに request_id が無ければ内部で生成する。
func TestAnnounceEntry_RequestIDGeneration(t *testing.T) {
	mock := &mockChannel{name: "discord", enabled: true}
	svc := NewService([]Channel{mock}, 10)
	defer shutdownNotify(t, svc)

	svc.AnnounceEntry(context.Background(), testEntry(1))

	waitSends(t, mock, 1, time.Second)
}

func TestAnnounceEntry_RequestIDInheritance(t *testing.T) {
	mock := &mockChannel{name: "discord", enabled: true}
	svc := NewService([]Channel{mock}, 10)
	defer shutdownNotify(t, svc)

	ctx := context.WithValue(context.Background(), requestIDKey, "test-request-id-123")
	svc.AnnounceEntry(ctx, testEntry(1))

	waitSends(t, mock, 1, time.Second)
}

func TestAnnounceEntry_NonBlocking(t *testing.T) {
	mock := &mockChannel{name: "discord", enabled: true, sendDelay: time.Second}
	svc := NewService([]Channel{mock}, 10)

	start := time.Now()
	svc.AnnounceEntry(context.Background(), testEntry(1))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 100*time.Millisecond, "発行側をブロックしてはならない")

	waitSends(t, mock, 1, 2*time.Second)
	shutdownNotify(t, svc)
}

func TestAnnounceEntry_QuickSuccession(t *testing.T) {
	mock := &mockChannel{name: "discord", enabled: true}
	svc := NewService([]Channel{mock}, 20)
	defer shutdownNotify(t, svc)

	const numEntries = 20
	for i := 1; i <= numEntries; i++ {
		svc.AnnounceEntry(context.Background(), testEntry(int64(i)))
	}

	waitSends(t, mock, numEntries, 2*time.Second)
}

func TestAnnounceEntry_ConcurrentCallers(t *testing.T) {
	mock := &mockChannel{name: "discord", enabled: true, sendDelay: 10 * time.Millisecond}
	svc := NewService([]Channel{mock}, 20)
	defer shutdownNotify(t, svc)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		id := int64(i + 1)
		go func() {
			defer wg.Done()
			svc.AnnounceEntry(context.Background(), testEntry(id))
		}()
	}
	wg.Wait()

	waitSends(t, mock, numGoroutines, 2*time.Second)
}

/* ───────────────────────── 3. マルチチャンネル ───────────────────────── */

func TestMultiChannel_EnableCombinations(t *testing.T) {
	tests := []struct {
		name           string
		discordEnabled bool
		slackEnabled   bool
	}{
		{"both enabled", true, true},
		{"only discord", true, false},
		{"only slack", false, true},
		{"both disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discord := &mockChannel{name: "discord", enabled: tt.discordEnabled}
			slack := &mockChannel{name: "slack", enabled: tt.slackEnabled}
			svc := NewService([]Channel{discord, slack}, 10)
			defer shutdownNotify(t, svc)

			svc.AnnounceEntry(context.Background(), testEntry(100))

			if tt.discordEnabled {
				waitSends(t, discord, 1, time.Second)
			}
			if tt.slackEnabled {
				waitSends(t, slack, 1, time.Second)
			}
			time.Sleep(settleDelay)
			if !tt.discordEnabled {
				assert.Equal(t, 0, discord.getSendCalledCount())
			}
			if !tt.slackEnabled {
				assert.Equal(t, 0, slack.getSendCalledCount())
			}

			byName := healthByName(svc)
			require.Len(t, byName, 2)
			assert.Equal(t, tt.discordEnabled, byName["discord"].Enabled)
			assert.Equal(t, tt.slackEnabled, byName["slack"].Enabled)
		})
	}
}

// 片方のチャンネルの失敗はもう片方の配送に影響しない。
// fire-and-forget なので呼び出し元にもエラーは現れない。
func TestMultiChannel_IndependentFailure(t *testing.T) {
	discord := &mockChannel{name: "discord", enabled: true, sendError: errors.New("webhook revoked")}
	slack := &mockChannel{name: "slack", enabled: true}
	svc := NewService([]Channel{discord, slack}, 10)
	defer shutdownNotify(t, svc)

	svc.AnnounceEntry(context.Background(), testEntry(101))

	waitSends(t, discord, 1, time.Second)
	waitSends(t, slack, 1, time.Second)

	// 失敗1回ではブレーカーは開かない（閾値は circuitBreakerThreshold）
	byName := healthByName(svc)
	assert.False(t, byName["discord"].CircuitBreakerOpen)
	assert.False(t, byName["slack"].CircuitBreakerOpen)
}

func TestMultiChannel_AllChannelsFail(t *testing.T) {
	discord := &mockChannel{name: "discord", enabled: true, sendError: errors.New("discord down")}
	slack := &mockChannel{name: "slack", enabled: true, sendError: errors.New("slack down")}
	svc := NewService([]Channel{discord, slack}, 10)
	defer shutdownNotify(t, svc)

	svc.AnnounceEntry(context.Background(), testEntry(106))

	waitSends(t, discord, 1, time.Second)
	waitSends(t, slack, 1, time.Second)
}

func TestMultiChannel_ParallelDispatch(t *testing.T) {
	discord := &mockChannel{name: "discord", enabled: true, sendDelay: 100 * time.Millisecond}
	slack := &mockChannel{name: "slack", enabled: true, sendDelay: 100 * time.Millisecond}
	svc := NewService([]Channel{discord, slack}, 10)
	defer shutdownNotify(t, svc)

	start := time.Now()
	svc.AnnounceEntry(context.Background(), testEntry(105))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	waitSends(t, discord, 1, time.Second)
	waitSends(t, slack, 1, time.Second)

	// 直列なら 200ms 以上かかるはず。CI のゆらぎ分は余裕を持たせる。
	assert.Less(t, time.Since(start), 350*time.Millisecond, "チャンネルへの配送は並列で行う")
}

func TestMultiChannel_EntryPassedUnmodified(t *testing.T) {
	discord := &mockChannel{name: "discord", enabled: true}
	slack := &mockChannel{name: "slack", enabled: true}
	svc := NewService([]Channel{discord, slack}, 10)
	defer shutdownNotify(t, svc)

	entry := &entity.Entry{
		ID:        107,
		Author:    "author@example.com",
		Title:     "Data Verification Test",
		Slug:      "data-verification-test",
		HTML:      "<p>Testing correct data passed to channels</p>",
		Published: time.Now(),
	}
	svc.AnnounceEntry(context.Background(), entry)

	waitSends(t, discord, 1, time.Second)
	waitSends(t, slack, 1, time.Second)

	for _, mock := range []*mockChannel{discord, slack} {
		got := mock.getLastEntry()
		require.NotNil(t, got, "channel %s should receive an entry", mock.name)
		assert.Equal(t, int64(107), got.ID)
		assert.Equal(t, "Data Verification Test", got.Title)
		assert.Equal(t, "data-verification-test", got.Slug)
	}
}

/* ───────────────────────── 4. ワーカープール ───────────────────────── */

func TestWorkerPool_Saturation(t *testing.T) {
	const maxConcurrent = 2
	mock := &mockChannel{name: "discord", enabled: true, sendDelay: 500 * time.Millisecond}
	svc := NewService([]Channel{mock}, maxConcurrent)

	for i := 0; i < 5; i++ {
		svc.AnnounceEntry(context.Background(), testEntry(int64(i+1)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	// workerPoolTimeout 内に空きが出るので全件送れるはずだが、
	// 最低でも同時実行数ぶんは確実に送られている。
	assert.GreaterOrEqual(t, mock.getSendCalledCount(), maxConcurrent)
}

func TestWorkerPool_DropsWhenFull(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the worker pool timeout")
	}

	// プールサイズ1を長時間占有し、2件目がタイムアウトで捨てられることを見る
	mock := &mockChannel{name: "discord", enabled: true, sendDelay: 10 * time.Second}
	svc := NewService([]Channel{mock}, 1)

	svc.AnnounceEntry(context.Background(), testEntry(1))
	time.Sleep(50 * time.Millisecond)
	svc.AnnounceEntry(context.Background(), testEntry(2))

	time.Sleep(workerPoolTimeout + time.Second)

	assert.Equal(t, 1, mock.getSendCalledCount(), "プール満杯時の2件目は破棄される")
	shutdownNotify(t, svc)
}

/* ───────────────────────── 5. 障害からの回復 ───────────────────────── */

func TestNotifyChannel_PanicRecovery(t *testing.T) {
	mock := &mockChannel{name: "discord", enabled: true, panicOnSend: true}
	svc := NewService([]Channel{mock}, 10)
	defer shutdownNotify(t, svc)

	svc.AnnounceEntry(context.Background(), testEntry(1))
	time.Sleep(settleDelay)

	// panic 後もサービスは生きている
	mock.setPanicOnSend(false)
	mock.resetSendCalled()
	svc.AnnounceEntry(context.Background(), testEntry(2))

	waitSends(t, mock, 1, time.Second)
}

/* ───────────────────────── 6. シャットダウン ───────────────────────── */

func TestShutdown_NoInflight(t *testing.T) {
	svc := NewService([]Channel{&mockChannel{name: "discord", enabled: true}}, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	err := svc.Shutdown(ctx)

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestShutdown_WaitsForInflight(t *testing.T) {
	mock := &mockChannel{name: "discord", enabled: true, sendDelay: 50 * time.Millisecond}
	svc := NewService([]Channel{mock}, 10)

	svc.AnnounceEntry(context.Background(), testEntry(1))
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Shutdown は内部コンテキストをキャンセルした上でゴルーチンの
	// 完了を待つ。配送自体は中断されることがある。
	assert.NoError(t, svc.Shutdown(ctx))
}

/* ───────────────────────── 7. チャンネルヘルス ───────────────────────── */

func TestGetChannelHealth(t *testing.T) {
	discord := &mockChannel{name: "discord", enabled: true}
	slack := &mockChannel{name: "slack", enabled: false}
	svc := NewService([]Channel{discord, slack}, 10)
	defer shutdownNotify(t, svc)

	byName := healthByName(svc)
	require.Len(t, byName, 2)

	assert.True(t, byName["discord"].Enabled)
	assert.False(t, byName["discord"].CircuitBreakerOpen)
	assert.Nil(t, byName["discord"].DisabledUntil)

	assert.False(t, byName["slack"].Enabled)
	assert.False(t, byName["slack"].CircuitBreakerOpen)
	assert.Nil(t, byName["slack"].DisabledUntil)
}
