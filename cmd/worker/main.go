package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"inkwell/internal/handler/http/respond"
	pgRepo "inkwell/internal/infra/adapter/persistence/postgres"
	"inkwell/internal/infra/db"
	workerPkg "inkwell/internal/infra/worker"
	"inkwell/internal/markdown"
	"inkwell/internal/observability/logging"
	"inkwell/internal/observability/metrics"
	"inkwell/internal/resilience/circuitbreaker"
	"inkwell/internal/resilience/retry"
	entryUC "inkwell/internal/usecase/entry"
)

// waitForMigrations polls until the entries table exists. The migrate
// container runs alongside the worker, so the schema may land a few seconds
// after the connection does.
func waitForMigrations(logger *slog.Logger, db *sql.DB) {
	const probe = "SELECT 1 FROM entries LIMIT 1"
	for attempt := 1; attempt <= 10; attempt++ {
		if _, err := db.Exec(probe); err == nil {
			return
		}
		logger.Info("entries table not visible yet, retrying in 3s", slog.Int("attempt", attempt))
		time.Sleep(3 * time.Second)
	}
	logger.Error("migrations did not complete in time")
	os.Exit(1)
}

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := openWorkerDB(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	// ctx stops the metrics refresher and the health server when main returns.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerMetrics := workerPkg.NewMetrics()
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("sweep_parallelism", workerConfig.SweepParallelism),
		slog.Duration("sweep_timeout", workerConfig.SweepTimeout),
		slog.Int("health_port", workerConfig.HealthPort))

	startMetricsServer(ctx, logger, database)

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server listening", slog.String("addr", healthAddr))

	startCronWorker(logger, setupEntryService(database), workerConfig, workerMetrics, healthServer)
}

// openWorkerDB connects with backoff, then blocks until the schema is in
// place. A worker that starts before postgres or the migrate step finishes
// should wait, not crash-loop.
func openWorkerDB(logger *slog.Logger) *sql.DB {
	var database *sql.DB
	err := retry.WithBackoff(context.Background(), retry.DBConnectConfig(), func() error {
		var openErr error
		database, openErr = db.Open(os.Getenv("DATABASE_URL"))
		return openErr
	})
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	waitForMigrations(logger, database)
	return database
}

// setupEntryService wires the entry service over the postgres repository.
// The worker only needs the read and re-render paths, so no slug or clock
// overrides are required here.
//
// Sweep queries go through a DB circuit breaker: a sweep touches every entry
// row, and once the database is down the breaker fails the remaining rows
// fast instead of burning the sweep timeout on each one.
func setupEntryService(database *sql.DB) *entryUC.Service {
	guarded := circuitbreaker.NewDBCircuitBreaker(database)
	return &entryUC.Service{
		Repo:     pgRepo.NewEntryRepo(guarded),
		Renderer: markdown.NewGoldmarkRenderer(),
	}
}

// startCronWorker starts the cron scheduler and runs the render sweep periodically.
func startCronWorker(logger *slog.Logger, svc *entryUC.Service, cfg *workerPkg.Config, workerMetrics *workerPkg.Metrics, healthServer *workerPkg.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runRenderSweep(logger, svc, cfg, workerMetrics)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	// Readiness flips only once the schedule is registered.
	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))
	select {}
}

// runRenderSweep executes a single re-render sweep with timeout and error handling.
// The sweep keeps stored HTML in step with the current renderer so sanitizer
// or extension upgrades propagate to every published entry overnight.
func runRenderSweep(logger *slog.Logger, svc *entryUC.Service, cfg *workerPkg.Config, workerMetrics *workerPkg.Metrics) {
	startTime := time.Now()
	workerMetrics.RecordSweepRun("started")
	logger.Info("render sweep started")

	// スイープ処理のタイムアウト（設定から取得）
	ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepTimeout)
	defer cancel()

	scanned, refreshed, err := svc.RenderAll(ctx, cfg.SweepParallelism)
	if err != nil {
		// 機密情報をマスクしてログ出力
		logger.Error("render sweep failed", slog.String("error", respond.SanitizeError(err)))
		workerMetrics.RecordSweepRun("failure")
		workerMetrics.RecordSweepDuration(time.Since(startTime).Seconds())
		return
	}

	workerMetrics.RecordSweepRun("success")
	workerMetrics.RecordSweepDuration(time.Since(startTime).Seconds())
	workerMetrics.RecordEntriesRefreshed(refreshed)
	workerMetrics.RecordLastSuccess()

	refreshEntriesGauge(logger, svc)

	logger.Info("render sweep completed",
		slog.Int("scanned", scanned),
		slog.Int("refreshed", refreshed),
		slog.Duration("duration", time.Since(startTime)),
	)
}

// refreshEntriesGauge re-reads the entry count after a sweep so the
// entries_total gauge tracks reality even when entries were published or
// deleted since the API last touched it.
func refreshEntriesGauge(logger *slog.Logger, svc *entryUC.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := svc.Count(ctx)
	if err != nil {
		logger.Warn("failed to refresh entries gauge", slog.Any("error", err))
		return
	}
	metrics.UpdateEntriesTotal(count)
}
