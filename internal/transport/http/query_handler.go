package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// QueryHandler serves the counting and aggregation endpoints. The estimated
// count is a GET because it takes no arguments; the rest accept a JSON body.
// The group, map_reduce and inline_map_reduce endpoints exist for parity with
// the wrapped client and always report the server's rejection of those
// commands as an operation failure.
type QueryHandler struct {
	service OperationService
	logger  *slog.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(service OperationService, logger *slog.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logger:  logger.With(slog.String("component", "query_handler")),
	}
}

// RegisterRoutes attaches the query endpoints to the API router.
func (h *QueryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/count_documents", h.operation("count_documents"))
	r.Get("/estimated_document_count", h.operation("estimated_document_count"))
	r.Post("/count", h.operation("count"))

	r.Post("/aggregate", h.operation("aggregate"))
	r.Post("/group", h.operation("group"))
	r.Post("/map_reduce", h.operation("map_reduce"))
	r.Post("/inline_map_reduce", h.operation("inline_map_reduce"))

	r.Post("/distinct", h.operation("distinct"))
}

// operation builds the handler for a single named operation.
func (h *QueryHandler) operation(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		executeOperation(w, r, h.service, h.logger, name)
	}
}
