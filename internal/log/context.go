package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type contextKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or one wrapping the slog default
// when ctx carries none.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	def := slog.Default()
	if ch, ok := def.Handler().(componentHandler); ok {
		return &Logger{Logger: def, component: ch.component}
	}
	return wrap(def.Handler(), "unknown")
}

// AccessLog writes one line when a request arrives and one when it is done.
type AccessLog struct {
	logger *Logger
}

func NewAccessLog(logger *Logger) AccessLog {
	return AccessLog{logger: logger.WithComponent(ComponentHTTP)}
}

// Started logs at debug so healthy traffic stays quiet at info.
func (a AccessLog) Started(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithClientIP(clientIP)
	a.logger.DebugContext(ctx, "HTTP request started", fields.Args()...)
}

// Finished logs 4xx at warn and 5xx at error.
func (a AccessLog) Finished(ctx context.Context, r *http.Request, status int, elapsed time.Duration, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithStatus(status, elapsed.Milliseconds()).
		WithClientIP(clientIP)
	a.logger.Logger.Log(ctx, level, "HTTP request completed", fields.Args()...)
}
