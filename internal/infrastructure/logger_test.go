package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"mongosuite/internal/config"
)

// newBufferedTraceLogger builds a logger backed by an in-memory buffer with
// the same traceHandler wrapping createLogger applies.
func newBufferedTraceLogger(buf *bytes.Buffer, opts *slog.HandlerOptions) *slog.Logger {
	return slog.New(&traceHandler{Handler: slog.NewJSONHandler(buf, opts)})
}

func lastLogEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	lastLine := lines[len(lines)-1]

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lastLine), &entry); err != nil {
		t.Fatalf("Failed to parse log JSON %q: %v", lastLine, err)
	}
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Logger is nil")
	}

	if GetLogger() != logger {
		t.Error("GetLogger did not return the initialized logger")
	}
	if slog.Default() != logger {
		t.Error("InitializeLogger did not set the slog default")
	}

	// Subsequent calls must return the same instance regardless of config.
	second, err := InitializeLogger(config.LoggingConfig{Level: "error", Format: "text"})
	if err != nil {
		t.Fatalf("Second InitializeLogger failed: %v", err)
	}
	if second != logger {
		t.Error("InitializeLogger created a second logger instance")
	}
}

func TestGetLoggerBeforeInitialization(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	if GetLogger() == nil {
		t.Error("GetLogger returned nil before initialization")
	}
}

func TestMustInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logger := MustInitializeLogger(config.Default().Logging)
	if logger == nil {
		t.Fatal("MustInitializeLogger returned nil")
	}
}

func TestTraceIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedTraceLogger(&buf, nil)

	ctx := WithTraceID(context.Background(), "test-trace-123")
	logger.InfoContext(ctx, "test with trace")

	entry := lastLogEntry(t, &buf)
	if entry["trace_id"] != "test-trace-123" {
		t.Errorf("Expected trace_id='test-trace-123', got %v", entry["trace_id"])
	}

	// Without a trace ID in context nothing is injected.
	buf.Reset()
	logger.InfoContext(context.Background(), "no trace")

	entry = lastLogEntry(t, &buf)
	if _, ok := entry["trace_id"]; ok {
		t.Errorf("Unexpected trace_id in entry: %v", entry["trace_id"])
	}
}

func TestTraceIDFromSpanContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedTraceLogger(&buf, nil)

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    expectedTraceID(t),
		SpanID:     trace.SpanID{0x01},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)
	logger.InfoContext(ctx, "span trace")

	entry := lastLogEntry(t, &buf)
	if entry["trace_id"] != spanCtx.TraceID().String() {
		t.Errorf("Expected span trace ID %s, got %v", spanCtx.TraceID().String(), entry["trace_id"])
	}

	// A request-scoped trace ID takes precedence over the active span.
	buf.Reset()
	logger.InfoContext(WithTraceID(ctx, "request-scoped"), "both present")

	entry = lastLogEntry(t, &buf)
	if entry["trace_id"] != "request-scoped" {
		t.Errorf("Expected request-scoped trace ID to win, got %v", entry["trace_id"])
	}
}

func expectedTraceID(t *testing.T) trace.TraceID {
	t.Helper()

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	if err != nil {
		t.Fatalf("Failed to build trace ID: %v", err)
	}
	return traceID
}

func TestTraceHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedTraceLogger(&buf, nil)

	ctx := WithTraceID(context.Background(), "attr-trace")
	logger.With("component", "runner").InfoContext(ctx, "with attrs")

	entry := lastLogEntry(t, &buf)
	if entry["component"] != "runner" {
		t.Errorf("Expected component='runner', got %v", entry["component"])
	}
	if entry["trace_id"] != "attr-trace" {
		t.Error("Derived handler lost trace ID injection after WithAttrs")
	}

	buf.Reset()
	logger.WithGroup("request").InfoContext(ctx, "with group", "method", "POST")

	entry = lastLogEntry(t, &buf)
	group, ok := entry["request"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected grouped attrs, got %v", entry["request"])
	}
	if group["method"] != "POST" {
		t.Errorf("Expected grouped method='POST', got %v", group["method"])
	}
	if group["trace_id"] != "attr-trace" {
		t.Error("Derived handler lost trace ID injection after WithGroup")
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := parseLogLevel(tt.level); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestTraceHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedTraceLogger(&buf, &slog.HandlerOptions{Level: parseLogLevel("warn")})

	logger.Info("filtered out")
	if buf.Len() != 0 {
		t.Errorf("Expected info record to be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("kept")
	entry := lastLogEntry(t, &buf)
	if entry["level"] != "WARN" {
		t.Errorf("Expected level='WARN', got %v", entry["level"])
	}
}

func TestWithTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "round-trip")
	if got := GetTraceID(ctx); got != "round-trip" {
		t.Errorf("Expected 'round-trip', got %q", got)
	}

	if got := GetTraceID(context.Background()); got != "" {
		t.Errorf("Expected empty trace ID on bare context, got %q", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var buf bytes.Buffer
	globalLogger = newBufferedTraceLogger(&buf, nil)

	ctx := WithTraceID(context.Background(), "ctx-logger-trace")
	LoggerFromContext(ctx).Info("from context")

	entry := lastLogEntry(t, &buf)
	if entry["trace_id"] != "ctx-logger-trace" {
		t.Errorf("Expected trace_id='ctx-logger-trace', got %v", entry["trace_id"])
	}

	// Without a trace ID the global logger is returned untouched.
	if LoggerFromContext(context.Background()) != globalLogger {
		t.Error("Expected the global logger when no trace ID is set")
	}
}

func TestTextFormat(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:  "info",
		Format: "text",
		Output: "stderr",
	})
	if err != nil {
		t.Fatalf("Failed to initialize text logger: %v", err)
	}

	handler := logger.Handler()
	if _, ok := handler.(*traceHandler); !ok {
		t.Errorf("Expected traceHandler wrapper, got %T", handler)
	}
}

func TestContextHelpers(t *testing.T) {
	// Minted IDs are non-empty and unique.
	first := GenerateTraceID()
	second := GenerateTraceID()
	if first == "" {
		t.Fatal("GenerateTraceID returned empty string")
	}
	if first == second {
		t.Error("Expected distinct trace IDs from consecutive calls")
	}

	ctx := ContextWithTraceID(context.Background())
	traceID := GetTraceID(ctx)
	if traceID == "" {
		t.Error("Expected trace ID to be generated")
	}

	// EnsureTraceID keeps an existing ID.
	ctx2 := EnsureTraceID(ctx)
	if GetTraceID(ctx2) != traceID {
		t.Error("EnsureTraceID changed existing trace ID")
	}

	// EnsureTraceID mints one when missing.
	ctx3 := EnsureTraceID(context.Background())
	if GetTraceID(ctx3) == "" {
		t.Error("EnsureTraceID did not add trace ID")
	}
}
