// Package config holds the env-var plumbing shared by every binary: typed
// getters with warn-and-default behaviour, duration validators, and the
// rate-limit and CSP settings loaders.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvString returns the variable's value, or def when unset or empty.
func GetEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetEnvInt parses the variable as an integer. Unparseable values warn and
// fall back to def rather than aborting startup.
func GetEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer in environment, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Int("default", def))
		return def
	}
	return v
}

// GetEnvBool parses the variable with strconv.ParseBool semantics
// ("1"/"t"/"true"/"TRUE" and friends). Invalid values warn and fall back.
func GetEnvBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Bool("default", def))
		return def
	}
	return v
}

// GetEnvDuration parses the variable with time.ParseDuration ("30s",
// "1h30m"). Invalid values warn and fall back.
func GetEnvDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration in environment, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.String("default", def.String()))
		return def
	}
	return v
}

// GetEnvStringList splits the variable on commas, trimming whitespace and
// dropping empty entries. An unset variable or one that yields no entries
// returns def.
func GetEnvStringList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
