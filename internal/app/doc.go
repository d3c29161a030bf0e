// Package app provides application initialization and lifecycle management
// for the harness. It wires configuration, logging, OpenTelemetry, the
// MongoDB connection, the WebSocket hub and the services together, builds
// the router, and runs the HTTP server until interrupted.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and optional YAML file
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Connect to MongoDB and verify the deployment with a ping
//	4. Start the WebSocket hub and build the services
//	5. Set up the chi router and middleware chain
//	6. Configure the HTTP server
//
// # Graceful Shutdown
//
// SIGINT and SIGTERM trigger a shutdown that drains the HTTP server, stops
// the hub, disconnects from MongoDB and flushes the telemetry providers.
// Initialization errors are returned to the caller; the package never calls
// os.Exit itself.
package app
