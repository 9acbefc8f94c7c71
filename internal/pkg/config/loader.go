// Package config carries the worker's fail-open configuration machinery:
// typed env loaders that fall back to defaults with a recorded warning,
// validators for the values they load, and the Prometheus metrics that make
// an active fallback visible from the outside.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Result is the outcome of loading one configuration value. Value always
// holds something usable; when the environment held garbage, Value is the
// default and Warning says what was rejected.
type Result[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

// LoadEnvString returns the variable's value, or def when unset. No
// validation, no fallback tracking.
func LoadEnvString(envKey, def string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

// loadEnv is the shared fallback skeleton: unset means default without a
// warning, parse or validation failure means default with one.
func loadEnv[T any](envKey string, def T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return Result[T]{Value: def}
	}

	fallback := func(err error) Result[T] {
		return Result[T]{
			Value:           def,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default '%v'", envKey, raw, err, def),
			FallbackApplied: true,
		}
	}

	v, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return fallback(err)
		}
	}
	return Result[T]{Value: v}
}

// LoadEnvWithFallback loads a string and runs it through validate, falling
// back to def on rejection. validate may be nil.
func LoadEnvWithFallback(envKey, def string, validate func(string) error) Result[string] {
	return loadEnv(envKey, def, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvDuration loads a time.ParseDuration value ("15m", "1h30m") with
// optional validation.
func LoadEnvDuration(envKey string, def time.Duration, validate func(time.Duration) error) Result[time.Duration] {
	return loadEnv(envKey, def, time.ParseDuration, validate)
}

// LoadEnvInt loads an integer with optional validation.
func LoadEnvInt(envKey string, def int, validate func(int) error) Result[int] {
	return loadEnv(envKey, def, strconv.Atoi, validate)
}

// LoadEnvBool loads a boolean with strconv.ParseBool semantics.
func LoadEnvBool(envKey string, def bool) Result[bool] {
	return loadEnv(envKey, def, strconv.ParseBool, nil)
}
