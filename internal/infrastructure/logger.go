package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"mongosuite/internal/config"
)

var (
	globalLogger     *slog.Logger
	globalLoggerOnce sync.Once
)

// contextKey keeps our context values from colliding with other packages.
type contextKey string

// TraceIDContextKey carries the request trace ID through a context.
const TraceIDContextKey contextKey = "trace_id"

// InitializeLogger builds the process-wide logger from cfg and installs it as
// the slog default. The first call wins; later calls return the same logger
// and ignore their config.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var err error
	globalLoggerOnce.Do(func() {
		globalLogger, err = createLogger(cfg)
		if globalLogger != nil {
			slog.SetDefault(globalLogger)
		}
	})
	return globalLogger, err
}

// GetLogger returns the process-wide logger, or the slog default when
// InitializeLogger has not run yet.
func GetLogger() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

func createLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(cfg.Level),
	}

	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(&traceHandler{Handler: handler}), nil
}

// traceHandler decorates every record with the trace ID carried by the
// context, so log lines correlate with spans without callers passing it.
type traceHandler struct {
	slog.Handler
}

// Handle stamps trace_id onto the record. A request-scoped ID set by the
// middleware wins; otherwise the active span's trace ID is used.
func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := GetTraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	} else if spanID := TraceIDFromContext(ctx); spanID != "" {
		r.AddAttrs(slog.String("trace_id", spanID))
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps derived handlers wrapped so they still inject trace IDs.
func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps derived handlers wrapped so they still inject trace IDs.
func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel maps a config string to a slog.Level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithTraceID returns a context carrying traceID for log correlation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace ID stored in ctx, or an empty string.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDContextKey).(string); ok {
		return traceID
	}
	return ""
}

// LoggerFromContext returns the global logger, pre-tagged with the context's
// trace ID when one is set.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()

	if traceID := GetTraceID(ctx); traceID != "" {
		return logger.With("trace_id", traceID)
	}

	return logger
}

// MustInitializeLogger is InitializeLogger for main: any error panics.
func MustInitializeLogger(cfg config.LoggingConfig) *slog.Logger {
	logger, err := InitializeLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("initialize logger: %v", err))
	}
	return logger
}

// ResetLoggerForTesting clears the global logger so tests can initialize a
// fresh one.
func ResetLoggerForTesting() {
	globalLogger = nil
	globalLoggerOnce = sync.Once{}
}
