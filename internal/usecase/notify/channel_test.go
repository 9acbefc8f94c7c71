package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"inkwell/internal/domain/entity"
)

// mockChannel は Channel の配信先をシミュレートする。ディスパッチャーの
// テストが失敗やパニック、遅延を注入するのに使う。
type mockChannel struct {
	name      string
	enabled   bool
	sendDelay time.Duration

	// sendError と panicOnSend はテスト途中で差し替えられるので mu で守る。
	mu          sync.Mutex
	sendError   error
	panicOnSend bool

	calls     atomic.Int32
	lastEntry atomic.Pointer[entity.Entry]
}

var _ Channel = (*mockChannel)(nil)

func (m *mockChannel) Name() string    { return m.name }
func (m *mockChannel) IsEnabled() bool { return m.enabled }

func (m *mockChannel) Send(ctx context.Context, entry *entity.Entry) error {
	m.calls.Add(1)
	if entry != nil {
		m.lastEntry.Store(entry)
	}

	m.mu.Lock()
	injectedErr, shouldPanic := m.sendError, m.panicOnSend
	m.mu.Unlock()

	if shouldPanic {
		panic("mock panic in Send()")
	}

	// 実チャンネルと同じ前提条件を守る
	if !m.enabled {
		return ErrChannelDisabled
	}
	if entry == nil || entry.Slug == "" {
		return ErrInvalidEntry
	}

	if m.sendDelay > 0 {
		select {
		case <-time.After(m.sendDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return injectedErr
}

func (m *mockChannel) getSendCalledCount() int { return int(m.calls.Load()) }

func (m *mockChannel) getLastEntry() *entity.Entry { return m.lastEntry.Load() }

func (m *mockChannel) resetSendCalled() { m.calls.Store(0) }

func (m *mockChannel) setPanicOnSend(panic bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicOnSend = panic
}

func (m *mockChannel) setSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendError = err
}

/* ───────── チャンネル契約 ───────── */

// Send の前提条件はどの実装でも共通。モックがそれを守ることを固定し、
// ディスパッチャー側のテストの前提を保証する。
func TestChannelContract(t *testing.T) {
	validEntry := &entity.Entry{ID: 1, Title: "Hello World", Slug: "hello-world"}
	networkErr := errors.New("network error")

	tests := []struct {
		name      string
		enabled   bool
		entry     *entity.Entry
		sendError error
		wantErr   error
	}{
		{"enabled channel delivers", true, validEntry, nil, nil},
		{"disabled channel refuses", false, validEntry, nil, ErrChannelDisabled},
		{"nil entry rejected", true, nil, nil, ErrInvalidEntry},
		{"unpublished entry rejected", true, &entity.Entry{ID: 2, Title: "Draft"}, nil, ErrInvalidEntry},
		{"transport error surfaces", true, validEntry, networkErr, networkErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &mockChannel{name: "mock", enabled: tt.enabled, sendError: tt.sendError}

			err := ch.Send(context.Background(), tt.entry)

			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.Same(t, tt.entry, ch.getLastEntry())
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, 1, ch.getSendCalledCount())
		})
	}
}
