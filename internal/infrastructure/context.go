package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique trace ID.
func GenerateTraceID() string {
	return uuid.New().String()
}

// ContextWithTraceID returns a context carrying a freshly generated trace ID.
func ContextWithTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, GenerateTraceID())
}

// EnsureTraceID adds a trace ID when the context has none yet. Entry points
// in front of the progress stream call it so every published event is
// correlatable, whether or not the request passed the HTTP middleware.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return ContextWithTraceID(ctx)
	}
	return ctx
}
