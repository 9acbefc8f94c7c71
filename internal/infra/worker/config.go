package worker

import (
	"fmt"
	"log/slog"
	"time"

	"inkwell/internal/pkg/config"
)

// Config controls the nightly re-render sweep: when it runs, how many
// entries render concurrently, and how long a sweep may take before it is
// cancelled.
type Config struct {
	// CronSchedule is a five-field cron expression for the sweep.
	CronSchedule string

	// Timezone is the IANA zone the schedule is evaluated in.
	Timezone string

	// SweepParallelism is how many entries render concurrently.
	SweepParallelism int

	// SweepTimeout cancels a sweep that runs longer than this.
	SweepTimeout time.Duration

	// HealthPort serves the liveness and readiness probes.
	HealthPort int
}

// DefaultConfig runs the sweep nightly at 5:30 JST with four concurrent
// renders and a 15-minute ceiling.
func DefaultConfig() Config {
	return Config{
		CronSchedule:     "30 5 * * *",
		Timezone:         "Asia/Tokyo",
		SweepParallelism: 4,
		SweepTimeout:     15 * time.Minute,
		HealthPort:       9091,
	}
}

// Validate collects every field error rather than stopping at the first, so
// an operator fixing the config sees everything at once.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.SweepParallelism, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("sweep parallelism: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.SweepTimeout); err != nil {
		errs = append(errs, fmt.Errorf("sweep timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv builds the worker configuration fail-open: every bad
// value falls back to its default with a warning and a metrics bump, and
// the function never errors. A worker with a mangled CRON_SCHEDULE still
// sweeps at the default time instead of not sweeping at all.
//
// Variables: CRON_SCHEDULE, WORKER_TIMEZONE, SWEEP_PARALLELISM,
// SWEEP_TIMEOUT (1m to 4h), WORKER_HEALTH_PORT.
func LoadConfigFromEnv(logger *slog.Logger, metrics *Metrics) *Config {
	cfg := DefaultConfig()
	anyFallback := false

	apply := func(field string, fallbackApplied bool, warning string) {
		if !fallbackApplied {
			return
		}
		anyFallback = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field)
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}

	schedule := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = schedule.Value
	apply("cron_schedule", schedule.FallbackApplied, schedule.Warning)

	tz := config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = tz.Value
	apply("timezone", tz.FallbackApplied, tz.Warning)

	parallelism := config.LoadEnvInt("SWEEP_PARALLELISM", cfg.SweepParallelism, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.SweepParallelism = parallelism.Value
	apply("sweep_parallelism", parallelism.FallbackApplied, parallelism.Warning)

	timeout := config.LoadEnvDuration("SWEEP_TIMEOUT", cfg.SweepTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.SweepTimeout = timeout.Value
	apply("sweep_timeout", timeout.FallbackApplied, timeout.Warning)

	port := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = port.Value
	apply("health_port", port.FallbackApplied, port.Warning)

	metrics.SetFallbackActive(anyFallback)
	metrics.RecordLoadTimestamp()

	return &cfg
}
