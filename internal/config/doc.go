// Package config loads and validates the harness configuration.
//
// Configuration is layered: environment variables (prefix MONGOSUITE, with
// the bare MONGODB_* names accepted as aliases for the connection settings)
// take precedence over an optional config.yaml, with struct tag defaults
// underneath. Load returns a fully validated Config; callers never see a
// partially populated one.
package config
