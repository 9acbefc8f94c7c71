package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"inkwell/internal/handler/http/requestid"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// LOG_LEVEL accepts debug, info, warn and error (default info). LOG_FORMAT
// accepts json and text (default json). Warn and error records carry the
// source location.
func NewLogger() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelWarn,
	}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID attaches the request ID from ctx to the logger. Without a
// request ID the logger is returned unchanged.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	reqID := requestid.FromContext(ctx)
	if reqID == "" {
		return logger
	}
	return logger.With("request_id", reqID)
}
