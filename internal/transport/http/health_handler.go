package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler handles the health probes. The probes answer with the bare
// health document rather than the operation envelope so that load balancers
// and orchestrators can consume them directly.
type HealthHandler struct {
	service HealthService
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// RegisterRoutes attaches the probes to the top-level router. The root
// /health route predates the /api/health tree and is kept for clients that
// still poll it.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Route("/api/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/ready", h.ReadinessCheck)
		r.Get("/live", h.LivenessCheck)
	})
}

// HealthCheck handles GET /health and GET /api/health. It always answers 200;
// component state is reported in the body.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Health(r.Context()))
}

// ReadinessCheck handles GET /api/health/ready. Not ready answers 503 so the
// probe can gate traffic.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status, ready := h.service.Ready(r.Context())
	if !ready {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}

// LivenessCheck handles GET /api/health/live.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Live(r.Context()))
}
