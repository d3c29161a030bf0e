package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunnerHandler serves POST /api/run_all, the endpoint that executes the
// whole operation catalog in order and returns the per-operation results.
type RunnerHandler struct {
	service RunnerService
	logger  *slog.Logger
}

// NewRunnerHandler creates a runner handler.
func NewRunnerHandler(service RunnerService, logger *slog.Logger) *RunnerHandler {
	return &RunnerHandler{
		service: service,
		logger:  logger.With(slog.String("component", "runner_handler")),
	}
}

// RegisterRoutes attaches the runner endpoint to the API router.
func (h *RunnerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/run_all", h.RunAll)
}

// RunAll handles POST /api/run_all. Any request body is ignored; the run
// always covers the full catalog. The response reports success even when
// individual operations failed, because the run itself completed.
func (h *RunnerHandler) RunAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)
	tracer := otel.Tracer("runner-handler")

	ctx, span := tracer.Start(ctx, "runner_handler.run_all",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/run_all"),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "run_all requested",
		slog.String("request_id", reqID),
	)

	report := h.service.Run(ctx)

	span.SetAttributes(
		attribute.Int("run.successful", report.Summary.Successful),
		attribute.Int("run.failed", report.Summary.Failed),
	)

	h.logger.InfoContext(ctx, "run_all finished",
		slog.Int("successful", report.Summary.Successful),
		slog.Int("failed", report.Summary.Failed),
		slog.Float64("total_time_ms", report.Summary.TotalTimeMS),
		slog.String("request_id", reqID),
	)

	render.JSON(w, r, map[string]interface{}{
		"success": true,
		"summary": report.Summary,
		"results": report.Results,
	})
}
