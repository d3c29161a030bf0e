package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records Go runtime gauges so the Prometheus scrape carries
// process health alongside the harness counters.
type RuntimeMetrics struct {
	goroutines    metric.Int64Gauge
	heapAlloc     metric.Int64Gauge
	totalAlloc    metric.Int64Gauge
	sysMemory     metric.Int64Gauge
	gcTotal       metric.Int64Counter
	gcPause       metric.Float64Histogram
	processUptime metric.Float64Gauge
}

// NewRuntimeMetrics registers the runtime instruments on the meter.
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64Gauge(
		"runtime_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"runtime_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"runtime_total_alloc_bytes",
		metric.WithDescription("Cumulative bytes allocated for heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	sysMemory, err := meter.Int64Gauge(
		"runtime_sys_memory_bytes",
		metric.WithDescription("Memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcTotal, err := meter.Int64Counter(
		"runtime_gc_total",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	gcPause, err := meter.Float64Histogram(
		"runtime_gc_pause_seconds",
		metric.WithDescription("Garbage collection pause duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	processUptime, err := meter.Float64Gauge(
		"process_uptime_seconds",
		metric.WithDescription("Process uptime"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goroutines:    goroutines,
		heapAlloc:     heapAlloc,
		totalAlloc:    totalAlloc,
		sysMemory:     sysMemory,
		gcTotal:       gcTotal,
		gcPause:       gcPause,
		processUptime: processUptime,
	}, nil
}

// RuntimeStats is one sample of the runtime counters.
type RuntimeStats struct {
	Goroutines  int64
	HeapAlloc   int64
	TotalAlloc  int64
	SysMemory   int64
	GCCount     uint32
	LastGCPause time.Duration
	Uptime      time.Duration
}

// RuntimeMetricsCollector samples the runtime on a fixed interval. Start
// blocks; callers run it on its own goroutine and Stop it on shutdown.
type RuntimeMetricsCollector struct {
	metrics   *RuntimeMetrics
	startTime time.Time
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
	lastGC    uint32
}

// NewRuntimeMetricsCollector builds a collector recording on the meter.
func NewRuntimeMetricsCollector(meter metric.Meter, interval time.Duration) (*RuntimeMetricsCollector, error) {
	metrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("create runtime metrics: %w", err)
	}

	return &RuntimeMetricsCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start collects until Stop is called or the context ends. An initial sample
// is taken immediately so the first scrape is never empty.
func (c *RuntimeMetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect(ctx)

	for {
		select {
		case <-ticker.C:
			c.collect(ctx)
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends collection. Safe to call more than once.
func (c *RuntimeMetricsCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// collect reads the runtime counters and records them. GC cycles are counted
// as a delta against the previous sample; lastGC is only touched from the
// Start goroutine.
func (c *RuntimeMetricsCollector) collect(ctx context.Context) *RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &RuntimeStats{
		Goroutines:  int64(runtime.NumGoroutine()),
		HeapAlloc:   int64(memStats.Alloc),
		TotalAlloc:  int64(memStats.TotalAlloc),
		SysMemory:   int64(memStats.Sys),
		GCCount:     memStats.NumGC,
		LastGCPause: time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256]),
		Uptime:      time.Since(c.startTime),
	}

	c.metrics.goroutines.Record(ctx, stats.Goroutines)
	c.metrics.heapAlloc.Record(ctx, stats.HeapAlloc)
	c.metrics.totalAlloc.Record(ctx, stats.TotalAlloc)
	c.metrics.sysMemory.Record(ctx, stats.SysMemory)
	c.metrics.processUptime.Record(ctx, stats.Uptime.Seconds())

	if cycles := stats.GCCount - c.lastGC; cycles > 0 {
		c.metrics.gcTotal.Add(ctx, int64(cycles))
		c.metrics.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}
	c.lastGC = stats.GCCount

	return stats
}
