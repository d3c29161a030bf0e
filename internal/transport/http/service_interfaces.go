package http

import (
	"context"

	"mongosuite/internal/operations"
	"mongosuite/internal/services"
)

// OperationService executes a single named collection operation. Implemented
// by services.OperationService; handlers depend on the interface so tests can
// substitute scripted results.
type OperationService interface {
	// Execute runs the named operation with the decoded request payload and
	// returns the operation's JSON-shaped result.
	Execute(ctx context.Context, name string, payload map[string]interface{}) (map[string]interface{}, error)

	// Stats reports collection statistics.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// OperationGroups lists the supported operations keyed by group.
	OperationGroups() map[string][]string
}

// RunnerService executes the full operation catalog and returns the ordered
// report. Implemented by services.RunnerService.
type RunnerService interface {
	Run(ctx context.Context) *operations.Report
}

// HealthService answers the liveness and readiness probes. Implemented by
// services.HealthService.
type HealthService interface {
	Health(ctx context.Context) services.HealthStatus
	Ready(ctx context.Context) (services.HealthStatus, bool)
	Live(ctx context.Context) services.HealthStatus
}
