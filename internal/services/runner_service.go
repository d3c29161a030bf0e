package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"mongosuite/internal/infrastructure"
	"mongosuite/internal/operations"
)

// RunnerService fronts the catalog executor for the orchestration endpoint.
// Runs are serialized here: structural operations from two interleaved runs
// on one collection have undefined semantics, so a second request waits its
// turn. The executor itself stays lock-free and relies on catalog order
// within a run.
type RunnerService struct {
	executor    *operations.Executor
	logger      *slog.Logger
	mu          sync.Mutex
	runsStarted atomic.Int64
}

// NewRunnerService builds the service around a ready executor.
func NewRunnerService(executor *operations.Executor, logger *slog.Logger) (*RunnerService, error) {
	if executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &RunnerService{
		executor: executor,
		logger:   logger.With(slog.String("service", "runner")),
	}, nil
}

// Run executes the full catalog and returns the report. It blocks until the
// run finishes, queueing behind any run already in flight; the caller's
// request timeout is the only bound.
func (s *RunnerService) Run(ctx context.Context) *operations.Report {
	// Progress events downstream correlate on the trace ID; direct callers
	// get one minted here.
	ctx = infrastructure.EnsureTraceID(ctx)

	seq := s.runsStarted.Add(1)
	if !s.mu.TryLock() {
		s.logger.InfoContext(ctx, "run_queued", slog.Int64("run_seq", seq))
		s.mu.Lock()
	}
	defer s.mu.Unlock()

	s.logger.InfoContext(ctx, "run_accepted",
		slog.Int64("run_seq", seq),
		slog.Int("catalog_operations", s.CatalogSize()))

	report := s.executor.Run(ctx)

	s.logger.InfoContext(ctx, "run_delivered",
		slog.Int64("run_seq", seq),
		slog.Int("successful", report.Summary.Successful),
		slog.Int("failed", report.Summary.Failed),
		slog.Float64("total_time_ms", report.Summary.TotalTimeMS))
	return report
}

// CatalogSize reports how many operations a run executes.
func (s *RunnerService) CatalogSize() int {
	return len(s.executor.Catalog())
}

// RunsStarted reports how many runs this process has accepted.
func (s *RunnerService) RunsStarted() int64 {
	return s.runsStarted.Load()
}
