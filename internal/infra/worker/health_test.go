package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/* ───────── 1. ハンドラー単体 ───────── */

func TestHealthServer_Liveness(t *testing.T) {
	server := NewHealthServer("localhost:0", testLogger())

	rec := httptest.NewRecorder()
	server.handleLiveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("liveness は常に 200 のはず: %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("レスポンスの JSON が不正: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestHealthServer_Readiness(t *testing.T) {
	server := NewHealthServer("localhost:0", testLogger())

	// 起動直後は not ready
	rec := httptest.NewRecorder()
	server.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("初期状態は 503 のはず: %d", rec.Code)
	}

	server.SetReady(true)
	rec = httptest.NewRecorder()
	server.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("SetReady(true) 後は 200 のはず: %d", rec.Code)
	}

	server.SetReady(false)
	rec = httptest.NewRecorder()
	server.handleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("SetReady(false) 後は 503 のはず: %d", rec.Code)
	}
}

/* ───────── 2. 起動と graceful shutdown ───────── */

func TestHealthServer_GracefulShutdown(t *testing.T) {
	server := NewHealthServer("localhost:19091", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Start(ctx)
	}()

	// 起動を待ってからキャンセル
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("graceful shutdown は ErrServerClosed を返すはず: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("シャットダウンがタイムアウト")
	}
}
