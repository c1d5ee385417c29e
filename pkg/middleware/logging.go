package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/KelvCodes/real-time-chat-app/pkg/logging"

	"go.opentelemetry.io/otel/trace"
)

// RequestLogger creates a middleware that logs requests and injects the logger.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// child logger with request details
			reqLog := log.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			)
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				reqLog = reqLog.With(
					logging.TraceID(sc.TraceID().String()),
					logging.SpanID(sc.SpanID().String()),
				)
			}

			ctx := logging.WithContext(r.Context(), reqLog)
			reqLog.DebugContext(ctx, "request started")

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			reqLog.InfoContext(ctx, "request completed",
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
