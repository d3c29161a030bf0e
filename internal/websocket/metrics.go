package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "mongosuite.websocket"

// Metrics holds the OpenTelemetry instruments for the progress stream. A nil
// *Metrics records nothing, so callers use it without guarding.
type Metrics struct {
	connects   metric.Int64Counter
	active     metric.Int64UpDownCounter
	duration   metric.Float64Histogram
	sends      metric.Int64Counter
	sentBytes  metric.Int64Counter
	drops      metric.Int64Counter
	broadcasts metric.Int64Counter
	clients    metric.Int64Gauge
	queueDepth metric.Int64Gauge
}

// NewMetrics creates the stream instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	connects, err := meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections accepted"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"websocket_connections_active",
		metric.WithDescription("Number of currently connected WebSocket clients"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"websocket_connection_duration_seconds",
		metric.WithDescription("How long WebSocket connections stayed open"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	sends, err := meter.Int64Counter(
		"websocket_messages_sent_total",
		metric.WithDescription("Total number of frames written to clients"),
	)
	if err != nil {
		return nil, err
	}

	sentBytes, err := meter.Int64Counter(
		"websocket_sent_bytes_total",
		metric.WithDescription("Total bytes written to clients"),
	)
	if err != nil {
		return nil, err
	}

	drops, err := meter.Int64Counter(
		"websocket_dropped_messages_total",
		metric.WithDescription("Messages dropped instead of delivered, by reason"),
	)
	if err != nil {
		return nil, err
	}

	broadcasts, err := meter.Int64Counter(
		"websocket_broadcasts_total",
		metric.WithDescription("Total number of fan-out rounds"),
	)
	if err != nil {
		return nil, err
	}

	clients, err := meter.Int64Gauge(
		"websocket_clients",
		metric.WithDescription("Connected clients as last observed by the hub"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64Gauge(
		"websocket_queue_depth",
		metric.WithDescription("Pending messages in the broadcast queue"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		connects:   connects,
		active:     active,
		duration:   duration,
		sends:      sends,
		sentBytes:  sentBytes,
		drops:      drops,
		broadcasts: broadcasts,
		clients:    clients,
		queueDepth: queueDepth,
	}, nil
}

// RecordConnect counts a new client connection.
func (m *Metrics) RecordConnect(ctx context.Context) {
	if m == nil {
		return
	}
	m.connects.Add(ctx, 1)
	m.active.Add(ctx, 1)
}

// RecordDisconnect counts a departed client and how long it stayed.
func (m *Metrics) RecordDisconnect(ctx context.Context, connected time.Duration) {
	if m == nil {
		return
	}
	m.active.Add(ctx, -1)
	m.duration.Record(ctx, connected.Seconds())
}

// RecordSend counts one frame written to a client.
func (m *Metrics) RecordSend(ctx context.Context, bytes int64) {
	if m == nil {
		return
	}
	m.sends.Add(ctx, 1)
	m.sentBytes.Add(ctx, bytes)
}

// RecordDrop counts a message that was not delivered. Reason is "queue_full"
// for publisher-side drops and "slow_client" for evictions.
func (m *Metrics) RecordDrop(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.drops.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordBroadcast counts one fan-out round.
func (m *Metrics) RecordBroadcast(ctx context.Context) {
	if m == nil {
		return
	}
	m.broadcasts.Add(ctx, 1)
}

// RecordClients records the current client count.
func (m *Metrics) RecordClients(ctx context.Context, count int64) {
	if m == nil {
		return
	}
	m.clients.Record(ctx, count)
}

// RecordQueueDepth records the broadcast queue backlog.
func (m *Metrics) RecordQueueDepth(ctx context.Context, depth int64) {
	if m == nil {
		return
	}
	m.queueDepth.Record(ctx, depth)
}

var globalMetrics *Metrics

// InitMetrics builds the package instruments against the global meter
// provider. Call it once after the provider is installed; until then every
// record is a no-op.
func InitMetrics() error {
	m, err := NewMetrics(otel.Meter(meterName))
	if err != nil {
		return err
	}
	globalMetrics = m
	return nil
}

func metrics() *Metrics {
	return globalMetrics
}
