package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"mongosuite/internal/config"
	"mongosuite/internal/errors"
	"mongosuite/internal/infrastructure"
	customMiddleware "mongosuite/internal/middleware"
	"mongosuite/internal/mongodb"
	"mongosuite/internal/operations"
	"mongosuite/internal/services"
	handlers "mongosuite/internal/transport/http"
	ws "mongosuite/internal/websocket"
)

const (
	VERSION = "1.0.0"
	AppName = "MongoDB Operations Suite"

	runtimeMetricsInterval = 30 * time.Second
)

// Application is the dependency container. Everything is wired at startup;
// nothing reaches for globals past the logger and tracer.
type Application struct {
	Config *config.Config
	Router *chi.Mux
	Server *http.Server
	Logger *slog.Logger

	OTelProviders *infrastructure.OTelProviders
	MongoClient   *mongodb.Client
	Operations    *mongodb.Operations
	WebSocketHub  *ws.Hub

	OperationService *services.OperationService
	RunnerService    *services.RunnerService
	HealthService    *services.HealthService

	otelMiddleware *customMiddleware.OTelMiddleware
	runtimeMetrics *infrastructure.RuntimeMetricsCollector
}

// NewApplication loads configuration, connects the infrastructure and builds
// the fully wired application. A MongoDB deployment must be reachable;
// startup fails on the initial ping rather than deferring the error to the
// first request.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromApp(cfg.Observability), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize OpenTelemetry: %w", err)
	}

	if err := ws.InitMetrics(); err != nil {
		return nil, fmt.Errorf("initialize WebSocket metrics: %w", err)
	}

	client, err := mongodb.Connect(context.Background(), cfg.Mongo, logger)
	if err != nil {
		return nil, fmt.Errorf("mongodb: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		MongoClient:   client,
	}

	if err := app.initializeServices(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the hub, the operations layer and the services
// on top of it. The MongoClient field may be nil in tests; every consumer
// downstream tolerates that for the driver-free paths.
func (a *Application) initializeServices() error {
	hub := ws.NewHub(a.Logger)
	hub.ConfigureTimeouts(a.Config.WebSocket.PongWait, a.Config.WebSocket.PingPeriod)
	hub.Start()
	a.WebSocketHub = hub

	a.Operations = mongodb.NewOperations(a.MongoClient, a.Config.Mongo, a.Logger)

	operationService, err := services.NewOperationService(a.Operations, a.Logger)
	if err != nil {
		return fmt.Errorf("operation service: %w", err)
	}
	a.OperationService = operationService

	// The OTel middleware owns the harness metrics instruments; the executor
	// records against the same set.
	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("otel middleware: %w", err)
	}
	a.otelMiddleware = otelMiddleware

	if a.OTelProviders.Meter != nil {
		collector, err := infrastructure.NewRuntimeMetricsCollector(a.OTelProviders.Meter, runtimeMetricsInterval)
		if err != nil {
			return fmt.Errorf("runtime metrics: %w", err)
		}
		a.runtimeMetrics = collector
	}

	publisher := ws.NewProgressPublisher(hub, a.Logger)
	executor, err := operations.NewExecutor(a.Operations, operations.DefaultCatalog(), publisher, a.Logger, otelMiddleware.Metrics())
	if err != nil {
		return fmt.Errorf("executor: %w", err)
	}

	runnerService, err := services.NewRunnerService(executor, a.Logger)
	if err != nil {
		return fmt.Errorf("runner service: %w", err)
	}
	a.RunnerService = runnerService

	a.HealthService = services.NewHealthService(
		VERSION,
		a.Config.Observability,
		a.MongoClient,
		a.Operations,
		hub,
		runnerService,
		a.Logger,
	)

	return nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// The WebSocket route takes only the trace middleware; anything that
	// wraps the ResponseWriter would break the upgrade.
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	// Probes and the Prometheus scrape stay outside the full chain so they
	// are never rate limited or body validated.
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	healthHandler.RegisterRoutes(r)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(a.otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(errors.RecoveryMiddleware(errorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.corsConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, errorHandler)
	})

	a.Router = r
}

// setupAPIRoutes registers the /api tree. Collection operations share the
// request timeout; the catalog run gets its own, much longer one.
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *errors.ErrorHandler) {
	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	r.Route("/api", func(api chi.Router) {
		api.Use(render.SetContentType(render.ContentTypeJSON))

		api.Group(func(g chi.Router) {
			g.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
			g.Use(validation.ValidateRequest)

			handlers.NewDocumentHandler(a.OperationService, a.Logger).RegisterRoutes(g)
			handlers.NewQueryHandler(a.OperationService, a.Logger).RegisterRoutes(g)
			handlers.NewIndexHandler(a.OperationService, a.Logger).RegisterRoutes(g)
			handlers.NewCollectionHandler(a.OperationService, a.Logger).RegisterRoutes(g)
		})

		api.Group(func(g chi.Router) {
			g.Use(customMiddleware.Timeout(a.Config.Server.RunTimeout, a.Logger))

			handlers.NewRunnerHandler(a.RunnerService, a.Logger).RegisterRoutes(g)
		})
	})
}

// corsConfig builds the CORS policy from configuration.
func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start launches the HTTP server. Server errors cancel the supplied context
// so Run can unwind.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Server listening",
		slog.String("addr", a.Server.Addr),
		slog.String("database", a.Config.Mongo.Database),
		slog.String("collection", a.Config.Mongo.Collection))

	if a.runtimeMetrics != nil {
		go a.runtimeMetrics.Start(ctx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.runtimeMetrics != nil {
		a.runtimeMetrics.Stop()
	}

	a.WebSocketHub.Stop()

	if a.MongoClient != nil {
		if err := a.MongoClient.Disconnect(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error disconnecting from MongoDB", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// handleWebSocket upgrades /ws connections and hands them to the hub.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = customMiddleware.GetReqID(r.Context())
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range a.Config.Security.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			a.Logger.WarnContext(ctx, "WebSocket origin rejected", slog.String("origin", origin))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrader already wrote the error response.
		return
	}

	client := ws.NewClientWithTrace(a.WebSocketHub, conn, reqID, a.Logger)
	a.WebSocketHub.Register(client)

	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))

	go client.WritePump()
	go client.ReadPump()
}
