package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthServer answers the worker's probes: /health always succeeds while
// the process is alive, /health/ready flips to 200 once SetReady(true) is
// called after startup.
type HealthServer struct {
	addr   string
	logger *slog.Logger
	ready  atomic.Bool
	server *http.Server
}

type healthResponse struct {
	Status string `json:"status"`
}

// NewHealthServer builds the server; it starts not-ready.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{addr: addr, logger: logger}
}

// Start serves until ctx is cancelled, then shuts down gracefully with a
// five-second deadline. Returns http.ErrServerClosed on a clean stop.
func (h *HealthServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /health/ready", h.handleReadiness)

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		return http.ErrServerClosed

	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady flips the readiness probe.
func (h *HealthServer) SetReady(ready bool) {
	h.ready.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	h.writeStatus(w, http.StatusOK, "ok")
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		h.writeStatus(w, http.StatusOK, "ok")
		return
	}
	h.writeStatus(w, http.StatusServiceUnavailable, "not ready")
}

func (h *HealthServer) writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(healthResponse{Status: status}); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
