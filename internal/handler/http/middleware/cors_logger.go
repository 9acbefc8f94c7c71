package middleware

import (
	"log/slog"
)

// SlogAdapter bridges CORSLogger to the application's *slog.Logger,
// turning map fields into slog attributes.
type SlogAdapter struct {
	Logger *slog.Logger
}

func slogArgs(fields map[string]any) []any {
	args := make([]any, 0, len(fields))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return args
}

// Info forwards to slog at INFO level.
func (a *SlogAdapter) Info(msg string, fields map[string]any) {
	if fields == nil {
		a.Logger.Info(msg)
		return
	}
	a.Logger.Info(msg, slogArgs(fields)...)
}

// Warn forwards to slog at WARN level.
func (a *SlogAdapter) Warn(msg string, fields map[string]any) {
	if fields == nil {
		a.Logger.Warn(msg)
		return
	}
	a.Logger.Warn(msg, slogArgs(fields)...)
}

// Debug forwards to slog at DEBUG level.
func (a *SlogAdapter) Debug(msg string, fields map[string]any) {
	if fields == nil {
		a.Logger.Debug(msg)
		return
	}
	a.Logger.Debug(msg, slogArgs(fields)...)
}

// NoOpLogger discards everything. Tests use it when log output is not under
// inspection.
type NoOpLogger struct{}

// Info does nothing.
func (l *NoOpLogger) Info(string, map[string]any) {}

// Warn does nothing.
func (l *NoOpLogger) Warn(string, map[string]any) {}

// Debug does nothing.
func (l *NoOpLogger) Debug(string, map[string]any) {}
