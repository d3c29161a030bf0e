// Package services implements the business logic layer between the HTTP
// handlers and the collection-operation layer. It keeps handlers thin:
// handlers parse and render, services decide and log.
//
// Services follow these principles:
//
//	1. Dependency injection through constructors that reject nil collaborators
//	2. Context propagation on every call that can block
//	3. Structured logging with slog, never printing directly
//
// OperationService executes single named operations, RunnerService drives
// full catalog runs, and HealthService aggregates connectivity and component
// state for the health endpoint.
package services
