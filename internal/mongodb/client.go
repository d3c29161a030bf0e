package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mongosuite/internal/config"
	"mongosuite/internal/infrastructure"
)

const tracerName = "mongosuite.mongodb"

// tracer returns the package tracer, resolving through the global provider
// so spans appear once tracing is configured and are no-ops otherwise.
func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Client wraps the driver client with the connection lifecycle the harness
// needs: a bounded connect, a ping proving the deployment is reachable, and
// clean shutdown.
type Client struct {
	mc     *mongo.Client
	cfg    config.MongoConfig
	logger *slog.Logger
}

// Connect establishes a client for the configured deployment and verifies
// it with a ping before returning.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "mongodb"))

	ctx, span := tracer().Start(ctx, "mongodb.connect")
	defer span.End()

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer connectCancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	mc, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("connect to mongodb: %w", err))
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer pingCancel()
	if err := mc.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = mc.Disconnect(context.Background())
		return nil, spanErr(span, fmt.Errorf("ping mongodb: %w", err))
	}

	logger.InfoContext(ctx, "Connected to MongoDB",
		slog.String("database", cfg.Database),
		slog.String("collection", cfg.Collection))

	return &Client{mc: mc, cfg: cfg, logger: logger}, nil
}

// Ping verifies the deployment is still reachable within the configured
// ping timeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.PingTimeout)
	defer cancel()
	return c.mc.Ping(ctx, readpref.Primary())
}

// Disconnect closes the underlying connections.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.mc.Disconnect(ctx)
}

// Database returns a handle to the named database.
func (c *Client) Database(name string) *mongo.Database {
	return c.mc.Database(name)
}
