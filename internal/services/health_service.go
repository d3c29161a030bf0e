package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"mongosuite/internal/config"
	"mongosuite/internal/infrastructure"
	"mongosuite/internal/mongodb"
	ws "mongosuite/internal/websocket"
)

// HealthStatus is the health endpoint response.
type HealthStatus struct {
	Status        string                 `json:"status"`
	Timestamp     time.Time              `json:"timestamp"`
	Version       string                 `json:"version,omitempty"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Observability map[string]interface{} `json:"observability"`
	Runtime       map[string]interface{} `json:"runtime,omitempty"`
	Services      map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth describes one component inside the health response.
type ServiceHealth struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthService aggregates connectivity and component state. Collaborators
// may be nil (a partially wired process still answers health checks); each
// missing component reports not_configured instead of failing the endpoint.
type HealthService struct {
	version       string
	observability config.ObservabilityConfig
	client        *mongodb.Client
	ops           *mongodb.Operations
	hub           *ws.Hub
	runner        *RunnerService
	startTime     time.Time
	logger        *slog.Logger
}

// NewHealthService builds the service with injected collaborators.
func NewHealthService(version string, observability config.ObservabilityConfig, client *mongodb.Client, ops *mongodb.Operations, hub *ws.Hub, runner *RunnerService, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &HealthService{
		version:       version,
		observability: observability,
		client:        client,
		ops:           ops,
		hub:           hub,
		runner:        runner,
		startTime:     time.Now(),
		logger:        logger.With(slog.String("service", "health")),
	}
}

// Health reports overall status. The two checks that touch the database run
// concurrently; in-memory components are read afterwards. Overall status is
// healthy unless the database is unreachable, in which case it degrades but
// the endpoint still answers.
func (hs *HealthService) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:        "healthy",
		Timestamp:     time.Now().UTC(),
		Version:       hs.version,
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Observability: hs.observabilitySection(),
		Services:      make(map[string]interface{}),
	}

	var mongoHealth, collectionHealth ServiceHealth
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mongoHealth = hs.checkMongo(gctx)
		return nil
	})
	g.Go(func() error {
		collectionHealth = hs.checkCollection(gctx)
		return nil
	})
	_ = g.Wait()

	status.Services["mongodb"] = mongoHealth
	status.Services["collection"] = collectionHealth
	status.Services["websocket"] = hs.checkWebSocket()
	status.Services["runner"] = hs.checkRunner()

	if mongoHealth.Status == "unreachable" {
		status.Status = "degraded"
		hs.logger.WarnContext(ctx, "health_degraded", slog.String("mongodb", mongoHealth.Message))
	}
	return status
}

// Ready reports whether the harness can serve operations; the database ping
// is the gate.
func (hs *HealthService) Ready(ctx context.Context) (HealthStatus, bool) {
	mongoHealth := hs.checkMongo(ctx)
	ready := mongoHealth.Status == "connected"

	status := HealthStatus{
		Status:        "ready",
		Timestamp:     time.Now().UTC(),
		Version:       hs.version,
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Observability: hs.observabilitySection(),
		Services:      map[string]interface{}{"mongodb": mongoHealth},
	}
	if !ready {
		status.Status = "not_ready"
	}
	return status, ready
}

// Live reports process liveness with runtime detail. It never touches the
// database.
func (hs *HealthService) Live(_ context.Context) HealthStatus {
	return HealthStatus{
		Status:        "alive",
		Timestamp:     time.Now().UTC(),
		Version:       hs.version,
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Observability: hs.observabilitySection(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

func (hs *HealthService) checkMongo(ctx context.Context) ServiceHealth {
	if hs.client == nil {
		return ServiceHealth{Status: "not_configured"}
	}
	if err := hs.client.Ping(ctx); err != nil {
		return ServiceHealth{Status: "unreachable", Message: err.Error()}
	}
	return ServiceHealth{Status: "connected"}
}

func (hs *HealthService) checkCollection(ctx context.Context) ServiceHealth {
	// Stats needs a live connection; without one the collection is as
	// unconfigured as the client itself.
	if hs.ops == nil || hs.client == nil {
		return ServiceHealth{Status: "not_configured"}
	}
	namespace := hs.ops.Handle().FullName()
	stats, err := hs.ops.Stats(ctx)
	if err != nil {
		// A freshly dropped collection has no stats; report it without
		// degrading overall health.
		return ServiceHealth{
			Status:  "unavailable",
			Message: err.Error(),
			Details: map[string]interface{}{"namespace": namespace},
		}
	}
	return ServiceHealth{Status: "available", Details: stats}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_configured"}
	}
	stats := hs.hub.Stats()
	return ServiceHealth{
		Status: "running",
		Details: map[string]interface{}{
			"clients":           stats.ActiveClients,
			"total_connections": stats.TotalConnections,
			"messages_sent":     stats.MessagesSent,
			"dropped_messages":  stats.DroppedMessages,
		},
	}
}

func (hs *HealthService) checkRunner() ServiceHealth {
	if hs.runner == nil {
		return ServiceHealth{Status: "not_configured"}
	}
	return ServiceHealth{
		Status: "ready",
		Details: map[string]interface{}{
			"catalog_operations": hs.runner.CatalogSize(),
			"runs_started":       hs.runner.RunsStarted(),
		},
	}
}

func (hs *HealthService) observabilitySection() map[string]interface{} {
	otelState := "disabled"
	if hs.observability.EnableTracing || hs.observability.EnableMetrics {
		otelState = "enabled"
	}
	return map[string]interface{}{
		"opentelemetry": otelState,
		"tracing":       hs.observability.EnableTracing,
		"metrics":       hs.observability.EnableMetrics,
	}
}
