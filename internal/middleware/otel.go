package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"mongosuite/internal/infrastructure"
)

// OTelMiddleware traces and measures every HTTP request. Logging stays with
// StructuredLogger; this layer only feeds spans and instruments.
type OTelMiddleware struct {
	tracer  trace.Tracer
	metrics *infrastructure.HarnessMetrics
}

// NewOTelMiddleware builds the middleware and its instruments. When tracing
// or metrics are disabled the providers carry no tracer or meter; the global
// no-op implementations stand in so the chain works unchanged.
func NewOTelMiddleware(providers *infrastructure.OTelProviders) (*OTelMiddleware, error) {
	tracer := providers.Tracer
	if tracer == nil {
		tracer = otel.Tracer("mongosuite.middleware")
	}
	meter := providers.Meter
	if meter == nil {
		meter = otel.Meter("mongosuite.middleware")
	}

	metrics, err := infrastructure.CreateHarnessMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("create harness metrics: %w", err)
	}

	return &OTelMiddleware{tracer: tracer, metrics: metrics}, nil
}

// Metrics exposes the instruments created alongside the middleware so other
// components record against the same set.
func (m *OTelMiddleware) Metrics() *infrastructure.HarnessMetrics {
	return m.metrics
}

// Handler wraps the next handler in a server span, continues any trace
// context the caller sent, and records the request metrics.
func (m *OTelMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := m.tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPathKey.String(r.URL.Path),
				semconv.ServerAddressKey.String(r.Host),
				semconv.UserAgentOriginalKey.String(r.UserAgent()),
				semconv.ClientAddressKey.String(GetRealIP(r)),
			),
		)
		defer span.End()

		ctx = infrastructure.WithTraceID(ctx, span.SpanContext().TraceID().String())
		r = r.WithContext(ctx)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.metrics.HTTPActiveRequests.Add(ctx, 1)
		defer m.metrics.HTTPActiveRequests.Add(ctx, -1)

		start := time.Now()
		next.ServeHTTP(ww, r)
		duration := time.Since(start)

		// The route pattern is only known after routing, so the span gets
		// its low-cardinality name here.
		route := getRoutePattern(r)
		span.SetName(r.Method + " " + route)

		attrs := []attribute.KeyValue{
			attribute.String("method", r.Method),
			attribute.String("route", route),
			attribute.Int("status_code", ww.Status()),
		}
		m.metrics.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
		m.metrics.HTTPRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

		span.SetAttributes(
			semconv.HTTPRouteKey.String(route),
			semconv.HTTPResponseStatusCodeKey.Int(ww.Status()),
			semconv.HTTPResponseBodySizeKey.Int(ww.BytesWritten()),
		)
		// For a server span only 5xx is an error; a 4xx is the client's
		// problem.
		if ww.Status() >= 500 {
			span.SetStatus(codes.Error, http.StatusText(ww.Status()))
		}
	})
}

// WebSocketTraceMiddleware traces upgrade requests on the stream route. The
// full instrumented chain cannot run there: wrapping the ResponseWriter
// hides the Hijacker the upgrader needs.
func WebSocketTraceMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	tracer := otel.Tracer("mongosuite.websocket")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "websocket_upgrade",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String("/ws"),
					attribute.String("origin", r.Header.Get("Origin")),
				),
			)
			defer span.End()

			traceID := span.SpanContext().TraceID().String()
			ctx = infrastructure.WithTraceID(ctx, traceID)

			logger.InfoContext(ctx, "WebSocket upgrade attempt",
				slog.String("origin", r.Header.Get("Origin")),
				slog.String("trace_id", traceID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// getRoutePattern returns the chi route pattern when the request was routed,
// falling back to the raw path.
func getRoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}

// GetRealIP returns the client address, preferring proxy headers over the
// socket peer. X-Forwarded-For may carry a whole chain of hops; the first
// entry is the client.
func GetRealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
