package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultMetricsPort = 9090

type healthResponse struct {
	Status string `json:"status"`
}

type dbHealthResponse struct {
	Healthy   bool   `json:"healthy"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// startMetricsServer serves /metrics for Prometheus scrapes plus the
// worker's liveness (/health) and readiness (/health/db) probes. The server
// runs in the background and drains within 5 seconds once ctx is canceled.
// The port comes from METRICS_PORT, defaulting to 9090.
func startMetricsServer(ctx context.Context, logger *slog.Logger, database *sql.DB) *http.Server {
	port := metricsPort()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      metricsMux(database),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("metrics server shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
			return
		}
		logger.Info("metrics server stopped")
	}()

	return server
}

func metricsMux(database *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", liveness)
	mux.HandleFunc("/health/db", dbReadiness(database))
	return mux
}

func metricsPort() int {
	raw := os.Getenv("METRICS_PORT")
	if raw == "" {
		return defaultMetricsPort
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return defaultMetricsPort
	}
	return port
}

// liveness always answers 200: the process is up.
func liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

// dbReadiness pings the database with a short deadline. The sweep is
// useless without the database, so this is the worker's real readiness
// signal.
func dbReadiness(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if database == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "database not initialized",
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		start := time.Now()
		err := database.PingContext(ctx)

		resp := dbHealthResponse{
			Healthy:   err == nil,
			LatencyMs: time.Since(start).Milliseconds(),
		}
		status := http.StatusOK
		if err != nil {
			status = http.StatusServiceUnavailable
			resp.Error = "database unreachable"
		}
		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
