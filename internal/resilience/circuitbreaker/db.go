// Database circuit breaker. The render-sweep worker routes its repository
// queries through this wrapper so an unavailable database trips the breaker
// after a handful of failures instead of letting every remaining entry in
// the sweep wait out its own timeout.
package circuitbreaker

import (
	"context"
	"database/sql"
	"time"

	"github.com/sony/gobreaker"
)

// DBCircuitBreaker guards a *sql.DB behind a circuit breaker. It exposes the
// same QueryContext/ExecContext/QueryRowContext surface the repositories use,
// so it can stand in for the raw pool wherever they accept one.
type DBCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// DBConfig returns the breaker tuning used for database access: trip after
// five consecutive failures, probe again after 30 seconds.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// NewDBCircuitBreaker wraps db with the default database breaker tuning.
func NewDBCircuitBreaker(db *sql.DB) *DBCircuitBreaker {
	return &DBCircuitBreaker{
		cb: New(DBConfig()),
		db: db,
	}
}

// NewDBCircuitBreakerWithConfig wraps db with caller-supplied breaker tuning.
func NewDBCircuitBreakerWithConfig(db *sql.DB, cfg Config) *DBCircuitBreaker {
	return &DBCircuitBreaker{
		cb: New(cfg),
		db: db,
	}
}

// QueryContext runs a query through the breaker. With the circuit open it
// returns gobreaker.ErrOpenState without touching the database.
func (dcb *DBCircuitBreaker) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	result, err := dcb.cb.Execute(func() (interface{}, error) {
		return dcb.db.QueryContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(*sql.Rows), nil
}

// ExecContext runs a statement through the breaker. With the circuit open it
// returns gobreaker.ErrOpenState without touching the database.
func (dcb *DBCircuitBreaker) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := dcb.cb.Execute(func() (interface{}, error) {
		return dcb.db.ExecContext(ctx, query, args...)
	})
	if err != nil {
		return nil, err
	}
	return result.(sql.Result), nil
}

// QueryRowContext bypasses the breaker: *sql.Row defers its error to Scan,
// so there is no failure signal to feed the breaker at call time. Single-row
// lookups therefore still reach a dead database; the sweep's list and update
// statements are the calls the breaker actually shields.
func (dcb *DBCircuitBreaker) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return dcb.db.QueryRowContext(ctx, query, args...)
}

// State returns the current breaker state.
func (dcb *DBCircuitBreaker) State() gobreaker.State {
	return dcb.cb.State()
}

// IsOpen reports whether the breaker is open.
func (dcb *DBCircuitBreaker) IsOpen() bool {
	return dcb.cb.IsOpen()
}

// DB exposes the raw pool for calls that must not trip the breaker, such as
// health-check pings that need to observe the real database state.
func (dcb *DBCircuitBreaker) DB() *sql.DB {
	return dcb.db
}
