package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// CollectionHandler serves the collection level endpoints: structural changes
// (rename, drop), bulk writes, the clear helper, collection statistics and
// the operation listing.
type CollectionHandler struct {
	service OperationService
	logger  *slog.Logger
}

// NewCollectionHandler creates a collection handler.
func NewCollectionHandler(service OperationService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{
		service: service,
		logger:  logger.With(slog.String("component", "collection_handler")),
	}
}

// RegisterRoutes attaches the collection endpoints to the API router.
func (h *CollectionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/rename", h.operation("rename"))
	r.Post("/drop", h.operation("drop"))
	r.Post("/bulk_write", h.operation("bulk_write"))
	r.Post("/clear", h.operation("clear"))

	r.Get("/stats", h.Stats)
	r.Get("/operations", h.ListOperations)
}

// operation builds the handler for a single named operation.
func (h *CollectionHandler) operation(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		executeOperation(w, r, h.service, h.logger, name)
	}
}

// Stats handles GET /api/stats.
func (h *CollectionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "stats request failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(ctx)),
		)
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	respondData(w, r, stats)
}

// ListOperations handles GET /api/operations. The total counts the grouped
// operations plus the clear helper, which is not listed in any group.
func (h *CollectionHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"success":    true,
		"operations": h.service.OperationGroups(),
		"total":      35,
	})
}
