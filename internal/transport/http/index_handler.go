package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// IndexHandler serves the index management endpoints.
type IndexHandler struct {
	service OperationService
	logger  *slog.Logger
}

// NewIndexHandler creates an index handler.
func NewIndexHandler(service OperationService, logger *slog.Logger) *IndexHandler {
	return &IndexHandler{
		service: service,
		logger:  logger.With(slog.String("component", "index_handler")),
	}
}

// RegisterRoutes attaches the index endpoints to the API router.
func (h *IndexHandler) RegisterRoutes(r chi.Router) {
	r.Post("/create_index", h.operation("create_index"))
	r.Post("/create_indexes", h.operation("create_indexes"))
	r.Post("/ensure_index", h.operation("ensure_index"))
	r.Post("/reindex", h.operation("reindex"))
	r.Post("/drop_index", h.operation("drop_index"))
	r.Post("/drop_indexes", h.operation("drop_indexes"))
}

// operation builds the handler for a single named operation.
func (h *IndexHandler) operation(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		executeOperation(w, r, h.service, h.logger, name)
	}
}
