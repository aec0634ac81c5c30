// Package logger is the structured logger shared by the API, the scheduler
// and the Lambda handlers.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type requestIDKey struct{}

// ContextWithRequestID stores the request ID picked by the HTTP layer.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFrom returns the request ID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Logger wraps slog.Logger with the events this service emits.
type Logger struct {
	*slog.Logger
}

// New returns a text logger at debug level for development and a JSON logger
// at info level everywhere else.
func New(env string) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// WithContext tags the logger with the request ID and the active trace and
// span IDs found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	out := l
	if requestID := RequestIDFrom(ctx); requestID != "" {
		out = out.WithRequestID(requestID)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		out = &Logger{Logger: out.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)}
	}
	return out
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.With(slog.String("request_id", requestID))}
}

func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{Logger: l.With(slog.String("user_id", userID))}
}

// HTTPRequest logs a completed request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs a request that ended in a server error.
func (l *Logger) HTTPError(method, path string, status int, latencyMs float64, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// JobStarted logs the start of a batch job invocation.
func (l *Logger) JobStarted(job, trigger string) {
	l.Info("job_started",
		slog.String("job", job),
		slog.String("trigger", trigger),
	)
}

// JobCompleted logs a finished batch job with its result attributes.
func (l *Logger) JobCompleted(job string, durationMs float64, attrs ...any) {
	args := append([]any{
		slog.String("job", job),
		slog.Float64("duration_ms", durationMs),
	}, attrs...)
	l.Info("job_completed", args...)
}

// JobFailed logs a batch job that aborted.
func (l *Logger) JobFailed(job string, durationMs float64, err error) {
	l.Error("job_failed",
		slog.String("job", job),
		slog.Float64("duration_ms", durationMs),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs a failed query with the repository operation name.
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs a rejected request.
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
