package operations

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"mongosuite/internal/infrastructure"
)

// Invoker executes one named operation with its payload and reports the
// operation's result document. The mongodb package supplies the production
// implementation; the executor calls it in-process rather than routing back
// through the HTTP surface.
type Invoker interface {
	Invoke(ctx context.Context, name string, payload map[string]interface{}) (map[string]interface{}, error)
}

// Executor walks a catalog strictly one operation at a time, recording a
// result per entry and streaming progress events as it goes. A failed
// operation is recorded and the run continues; nothing short of process exit
// stops a run once started.
type Executor struct {
	invoker   Invoker
	catalog   Catalog
	publisher Publisher
	logger    *slog.Logger
	metrics   *infrastructure.HarnessMetrics
}

// NewExecutor builds an executor over a validated catalog. A nil publisher
// falls back to NopPublisher and a nil logger to the shared default; metrics
// may be nil when observability is disabled.
func NewExecutor(invoker Invoker, catalog Catalog, publisher Publisher, logger *slog.Logger, metrics *infrastructure.HarnessMetrics) (*Executor, error) {
	if invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Executor{
		invoker:   invoker,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "executor")),
		metrics:   metrics,
	}, nil
}

// Catalog returns the plan this executor runs.
func (e *Executor) Catalog() Catalog {
	return e.catalog
}

// Run executes the full catalog in order and returns the report. The
// collection is cleared first on a best-effort basis; a clear that fails is
// logged and otherwise ignored so the run always proceeds.
func (e *Executor) Run(ctx context.Context) *Report {
	total := len(e.catalog)
	results := make([]ExecutionResult, 0, total)
	runStart := time.Now()

	if _, err := e.invoker.Invoke(ctx, "clear", nil); err != nil {
		e.logger.WarnContext(ctx, "pre_run_clear_failed", slog.String("error", err.Error()))
	}

	e.publisher.PublishProgress(ctx, StartEvent{
		Type:    EventStart,
		Total:   total,
		Message: fmt.Sprintf("Starting sequential execution of %d operations...", total),
	})
	e.logger.InfoContext(ctx, "run_start", slog.Int("total_operations", total))

	completed := 0
	successful := 0
	for i, d := range e.catalog {
		e.publisher.PublishProgress(ctx, OperationStartEvent{
			Type:      EventOperationStart,
			Operation: d.Name,
			Current:   i + 1,
			Total:     total,
			Message:   fmt.Sprintf("Executing %s...", d.Name),
		})

		opStart := time.Now()
		result, err := e.invoker.Invoke(ctx, d.Name, d.Payload)
		opElapsed := time.Since(opStart)
		elapsedMS := roundMS(opElapsed)
		completed++

		entry := ExecutionResult{
			Operation:       d.Name,
			Success:         err == nil,
			ExecutionTimeMS: elapsedMS,
		}
		event := OperationCompleteEvent{
			Type:            EventOperationComplete,
			Operation:       d.Name,
			Success:         err == nil,
			Current:         completed,
			Total:           total,
			ExecutionTimeMS: elapsedMS,
		}
		if err != nil {
			entry.Error = err.Error()
			event.Error = err.Error()
			event.Message = fmt.Sprintf("✗ %s failed: %s", d.Name, truncate(err.Error(), 50))
			e.logger.ErrorContext(ctx, "operation_failed",
				slog.String("operation", d.Name),
				slog.Float64("execution_time_ms", elapsedMS),
				slog.String("error", err.Error()))
		} else {
			successful++
			entry.Result = result
			event.Message = fmt.Sprintf("✓ %s completed in %.1fms", d.Name, math.Round(elapsedMS))
			e.logger.InfoContext(ctx, "operation_complete",
				slog.String("operation", d.Name),
				slog.Float64("execution_time_ms", elapsedMS))
		}
		results = append(results, entry)
		e.publisher.PublishProgress(ctx, event)
		infrastructure.RecordOperationMetrics(ctx, e.metrics, d.Name, opElapsed, err == nil)
	}

	runElapsed := time.Since(runStart)
	summary := RunSummary{
		TotalOperations: len(results),
		Successful:      successful,
		Failed:          len(results) - successful,
		TotalTimeMS:     roundMS(runElapsed),
	}
	e.publisher.PublishProgress(ctx, CompleteEvent{
		Type:    EventComplete,
		Summary: summary,
		Message: fmt.Sprintf("Completed! %d/%d operations succeeded in %.1fms", successful, len(results), math.Round(summary.TotalTimeMS)),
	})
	e.logger.InfoContext(ctx, "run_complete",
		slog.Int("successful", successful),
		slog.Int("failed", summary.Failed),
		slog.Float64("total_time_ms", summary.TotalTimeMS))
	infrastructure.RecordRunMetrics(ctx, e.metrics, runElapsed, summary.Failed)

	return &Report{Summary: summary, Results: results}
}

// roundMS converts a duration to milliseconds rounded to two decimal places.
func roundMS(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000*100) / 100
}

// truncate shortens a string for display messages. Full strings still travel
// in the structured fields.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
