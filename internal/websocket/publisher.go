package websocket

import (
	"context"
	"log/slog"

	"mongosuite/internal/infrastructure"
)

// ProgressPublisher pushes catalog execution events to connected WebSocket
// clients. It satisfies the operations package's publisher contract without
// that package importing this one.
type ProgressPublisher struct {
	hub    *Hub
	logger *slog.Logger
}

// NewProgressPublisher creates a new progress publisher with dependency injection
func NewProgressPublisher(hub *Hub, logger *slog.Logger) *ProgressPublisher {
	if logger == nil {
		logger = hub.logger // Use hub's logger if none provided
	}
	return &ProgressPublisher{
		hub:    hub,
		logger: logger.With(slog.String("component", "websocket.publisher")),
	}
}

// PublishProgress broadcasts a progress event to all connected clients.
// Delivery is fire-and-forget: a full queue or absent clients never block
// or fail the caller.
func (p *ProgressPublisher) PublishProgress(ctx context.Context, event interface{}) {
	traceID := infrastructure.GetTraceID(ctx)

	p.logger.DebugContext(ctx, "Publishing progress event",
		slog.Int("client_count", p.hub.ClientCount()))

	p.hub.BroadcastProgressWithTrace(event, traceID)
}
