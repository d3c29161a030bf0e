package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"mongosuite/internal/config"
)

const (
	ServiceName    = "mongo-operations-suite"
	ServiceVersion = "1.0.0"
	MeterName      = "mongosuite"
)

// OTelConfig selects exporters and sampling for the process.
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders bundles the SDK handles the application owns for its
// lifetime. Fields stay nil for subsystems the config disables; consumers
// check before use.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig is the stdout-tracing, prometheus-metrics setup the
// harness runs with when nothing overrides it.
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}
}

// OTelConfigFromApp maps the observability section of the app config onto an
// OTelConfig, keeping the default service identity.
func OTelConfigFromApp(cfg config.ObservabilityConfig) *OTelConfig {
	oc := DefaultOTelConfig()
	oc.EnableTracing = cfg.EnableTracing
	oc.EnableMetrics = cfg.EnableMetrics
	oc.TraceExporter = cfg.TraceExporter
	oc.MetricExporter = cfg.MetricExporter
	oc.SampleRatio = cfg.SampleRatio
	return oc
}

// InitializeOTel stands up tracing and metrics per cfg and registers the
// W3C trace context propagator. Disabled subsystems leave their provider
// fields nil rather than installing noop implementations.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Starting OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := newResource(cfg)
	providers := &OTelProviders{
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := startTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := startMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

func newResource(cfg *OTelConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", instanceID()),
	)
}

func startTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// startMetrics wires the prometheus exporter into a meter provider and
// exposes the scrape handler for the /metrics route.
func startMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		otel.SetMeterProvider(mp)

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// HarnessMetrics is the instrument set shared by the HTTP middleware and the
// catalog run executor.
type HarnessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Collection operation metrics
	OperationExecutionsTotal   metric.Int64Counter
	OperationExecutionDuration metric.Float64Histogram
	OperationErrors            metric.Int64Counter

	// Catalog run metrics
	RunsTotal   metric.Int64Counter
	RunDuration metric.Float64Histogram
}

// CreateHarnessMetrics registers every harness instrument on the meter.
func CreateHarnessMetrics(meter metric.Meter) (*HarnessMetrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	operationExecutionsTotal, err := meter.Int64Counter(
		"collection_operation_executions_total",
		metric.WithDescription("Total number of collection operation executions"),
	)
	if err != nil {
		return nil, err
	}

	operationExecutionDuration, err := meter.Float64Histogram(
		"collection_operation_duration_seconds",
		metric.WithDescription("Collection operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	operationErrors, err := meter.Int64Counter(
		"collection_operation_errors_total",
		metric.WithDescription("Total number of failed collection operations"),
	)
	if err != nil {
		return nil, err
	}

	runsTotal, err := meter.Int64Counter(
		"catalog_runs_total",
		metric.WithDescription("Total number of full catalog runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"catalog_run_duration_seconds",
		metric.WithDescription("Full catalog run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &HarnessMetrics{
		HTTPRequestsTotal:          httpRequestsTotal,
		HTTPRequestDuration:        httpRequestDuration,
		HTTPActiveRequests:         httpActiveRequests,
		OperationExecutionsTotal:   operationExecutionsTotal,
		OperationExecutionDuration: operationExecutionDuration,
		OperationErrors:            operationErrors,
		RunsTotal:                  runsTotal,
		RunDuration:                runDuration,
	}, nil
}

// RecordOperationMetrics records metrics for one collection operation execution
func RecordOperationMetrics(ctx context.Context, metrics *HarnessMetrics, operation string, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
	}

	metrics.OperationExecutionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if !success {
		statusAttr = attribute.String("status", "failure")
		metrics.OperationErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	metrics.OperationExecutionDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(append(attrs, statusAttr)...))
}

// RecordRunMetrics records metrics for one full catalog run
func RecordRunMetrics(ctx context.Context, metrics *HarnessMetrics, duration time.Duration, failed int) {
	if metrics == nil {
		return
	}

	outcome := "clean"
	if failed > 0 {
		outcome = "partial"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	metrics.RunsTotal.Add(ctx, 1, attrs)
	metrics.RunDuration.Record(ctx, duration.Seconds(), attrs)
}

// Shutdown flushes and stops both providers, collecting errors instead of
// stopping at the first so each provider gets its chance to flush.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func instanceID() string {
	host, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", host, time.Now().Unix())
}

// TraceIDFromContext returns the active span's trace ID, or "" when no valid
// span context is present. The log handler uses it for correlation.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}
