package infrastructure

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func newTestCollector(t *testing.T, interval time.Duration) *RuntimeMetricsCollector {
	t.Helper()

	meter := noop.NewMeterProvider().Meter("test")
	collector, err := NewRuntimeMetricsCollector(meter, interval)
	require.NoError(t, err)
	return collector
}

func TestNewRuntimeMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	metrics, err := NewRuntimeMetrics(meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.goroutines)
	assert.NotNil(t, metrics.heapAlloc)
	assert.NotNil(t, metrics.totalAlloc)
	assert.NotNil(t, metrics.sysMemory)
	assert.NotNil(t, metrics.gcTotal)
	assert.NotNil(t, metrics.gcPause)
	assert.NotNil(t, metrics.processUptime)
}

func TestRuntimeMetricsCollectorCollect(t *testing.T) {
	collector := newTestCollector(t, time.Minute)

	stats := collector.collect(context.Background())
	require.NotNil(t, stats)

	assert.GreaterOrEqual(t, stats.Goroutines, int64(1))
	assert.Greater(t, stats.HeapAlloc, int64(0))
	assert.Greater(t, stats.TotalAlloc, int64(0))
	assert.Greater(t, stats.SysMemory, int64(0))
	assert.Greater(t, stats.Uptime, time.Duration(0))
	assert.Equal(t, stats.GCCount, collector.lastGC)
}

func TestRuntimeMetricsCollectorGCDelta(t *testing.T) {
	collector := newTestCollector(t, time.Minute)

	first := collector.collect(context.Background())

	// Force a cycle so the next sample sees a positive delta.
	runtime.GC()

	second := collector.collect(context.Background())
	assert.Greater(t, second.GCCount, first.GCCount)
	assert.Equal(t, second.GCCount, collector.lastGC)
}

func TestRuntimeMetricsCollectorStartStop(t *testing.T) {
	collector := newTestCollector(t, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		collector.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	collector.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}

	// Stop is idempotent.
	collector.Stop()
}

func TestRuntimeMetricsCollectorContextCancel(t *testing.T) {
	collector := newTestCollector(t, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		collector.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not exit on context cancellation")
	}
}
