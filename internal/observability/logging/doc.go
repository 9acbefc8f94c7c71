// Package logging configures the process-wide slog logger.
//
// Both binaries call NewLogger at startup and install the result as the
// default. Output format and level come from LOG_FORMAT and LOG_LEVEL so
// local runs can keep text output while production stays on JSON.
//
// Handlers attach the request ID from the context when one is present, so
// every log line emitted while serving a request can be correlated with the
// access log:
//
//	logger := logging.WithRequestID(ctx, slog.Default())
//	logger.Info("entry published", slog.String("slug", slug))
package logging
