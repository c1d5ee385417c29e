package logging

import (
	"context"
	"log/slog"
)

type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// WithContext stores the request-scoped logger. The request middleware puts
// one here carrying method, path and trace ids, and the auth middleware
// narrows it with the caller's user_id.
func WithContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext falls back to slog.Default, which platform/logger installs at
// startup, so websocket sessions detached from the request still log.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
