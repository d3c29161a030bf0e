package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DocumentHandler serves the document lifecycle endpoints: inserts, finds,
// updates, replaces and deletes, including the legacy aliases (insert, save,
// update, remove, find_and_modify) the wrapped client still advertises.
type DocumentHandler struct {
	service OperationService
	logger  *slog.Logger
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(service OperationService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger.With(slog.String("component", "document_handler")),
	}
}

// RegisterRoutes attaches the document endpoints to the API router.
func (h *DocumentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/insert_one", h.operation("insert_one"))
	r.Post("/insert_many", h.operation("insert_many"))
	r.Post("/insert", h.operation("insert"))
	r.Post("/save", h.operation("save"))

	r.Post("/find", h.operation("find"))
	r.Post("/find_one", h.operation("find_one"))
	r.Post("/find_one_and_delete", h.operation("find_one_and_delete"))
	r.Post("/find_one_and_replace", h.operation("find_one_and_replace"))
	r.Post("/find_one_and_update", h.operation("find_one_and_update"))
	r.Post("/find_and_modify", h.operation("find_and_modify"))

	r.Post("/update_one", h.operation("update_one"))
	r.Post("/update_many", h.operation("update_many"))
	r.Post("/update", h.operation("update"))
	r.Post("/replace_one", h.operation("replace_one"))

	r.Post("/delete_one", h.operation("delete_one"))
	r.Post("/delete_many", h.operation("delete_many"))
	r.Post("/remove", h.operation("remove"))
}

// operation builds the handler for a single named operation.
func (h *DocumentHandler) operation(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		executeOperation(w, r, h.service, h.logger, name)
	}
}
