package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"inkwell/pkg/config"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,               // Maximum number of open connections
		MaxIdleConns:    10,               // Maximum number of idle connections
		ConnMaxLifetime: 1 * time.Hour,    // Maximum lifetime of a connection
		ConnMaxIdleTime: 30 * time.Minute, // Maximum idle time of a connection
	}
}

// ConnectionConfigFromEnv reads connection pool configuration from
// DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME and
// DB_CONN_MAX_IDLE_TIME, falling back to defaults. Non-positive values are
// rejected.
func ConnectionConfigFromEnv() ConnectionConfig {
	def := DefaultConnectionConfig()
	cfg := ConnectionConfig{
		MaxOpenConns:    config.GetEnvInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns),
		MaxIdleConns:    config.GetEnvInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns),
		ConnMaxLifetime: config.GetEnvDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime),
		ConnMaxIdleTime: config.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime),
	}

	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = def.MaxOpenConns
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime <= 0 {
		cfg.ConnMaxIdleTime = def.ConnMaxIdleTime
	}

	return cfg
}

// Open creates and configures a database connection pool for the given DSN,
// then verifies it with a ping.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open database: empty DSN")
	}

	pool, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := ConnectionConfigFromEnv()
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connection established successfully")
	return pool, nil
}
