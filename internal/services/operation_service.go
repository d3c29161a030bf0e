package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mongosuite/internal/infrastructure"
	"mongosuite/internal/mongodb"
)

// OperationService executes single collection operations on behalf of the
// HTTP handlers. All parsing quirks live in the mongodb dispatch layer; this
// service adds logging and keeps the handlers free of domain wiring.
type OperationService struct {
	ops    *mongodb.Operations
	logger *slog.Logger
}

// NewOperationService builds the service. The operations layer is required;
// a nil logger falls back to the shared default.
func NewOperationService(ops *mongodb.Operations, logger *slog.Logger) (*OperationService, error) {
	if ops == nil {
		return nil, fmt.Errorf("operations layer is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &OperationService{
		ops:    ops,
		logger: logger.With(slog.String("service", "operation")),
	}, nil
}

// Execute runs one named operation with the payload parsed from the request
// body and returns its result document.
func (s *OperationService) Execute(ctx context.Context, name string, payload map[string]interface{}) (map[string]interface{}, error) {
	start := time.Now()
	result, err := s.ops.Invoke(ctx, name, payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "operation_failed",
			slog.String("operation", name),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.DebugContext(ctx, "operation_executed",
		slog.String("operation", name),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// Stats reports statistics for the collection the handle currently points
// at.
func (s *OperationService) Stats(ctx context.Context) (map[string]interface{}, error) {
	return s.ops.Stats(ctx)
}

// Handle exposes the current collection target.
func (s *OperationService) Handle() mongodb.Handle {
	return s.ops.Handle()
}

// OperationGroups returns the operation names grouped the way the API
// advertises them. group stays listed for endpoint parity even though the
// run catalog omits it.
func (s *OperationService) OperationGroups() map[string][]string {
	return map[string][]string{
		"insert":      {"insert_one", "insert_many", "insert", "save"},
		"find":        {"find", "find_one", "find_one_and_delete", "find_one_and_replace", "find_one_and_update", "find_and_modify"},
		"update":      {"update_one", "update_many", "update", "replace_one"},
		"delete":      {"delete_one", "delete_many", "remove"},
		"count":       {"count", "count_documents", "estimated_document_count"},
		"aggregation": {"aggregate", "group", "map_reduce", "inline_map_reduce"},
		"index":       {"create_index", "create_indexes", "ensure_index", "drop_index", "drop_indexes", "reindex"},
		"collection":  {"distinct", "rename", "drop"},
		"bulk":        {"bulk_write"},
	}
}
