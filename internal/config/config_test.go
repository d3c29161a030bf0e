package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name:     "defaults with no environment",
			setupEnv: func(*testing.T) {},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5000, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
				assert.Equal(t, 1048576, cfg.Server.MaxHeaderBytes)
				assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
				assert.Equal(t, 10*time.Minute, cfg.Server.RunTimeout)

				assert.Equal(t, "mongodb://localhost:27017/?replicaSet=rs0", cfg.Mongo.URI)
				assert.Equal(t, "testdb", cfg.Mongo.Database)
				assert.Equal(t, "test_collection", cfg.Mongo.Collection)
				assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeout)
				assert.Equal(t, 5*time.Second, cfg.Mongo.PingTimeout)

				assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.EnableCORS)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, 100.0, cfg.Security.RateLimit.RPS)
				assert.Equal(t, 50, cfg.Security.RateLimit.Burst)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.True(t, cfg.Logging.Development)

				assert.Equal(t, 1024, cfg.WebSocket.ReadBufferSize)
				assert.Equal(t, 30*time.Second, cfg.WebSocket.PingPeriod)
				assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)

				assert.True(t, cfg.Observability.EnableTracing)
				assert.True(t, cfg.Observability.EnableMetrics)
				assert.Equal(t, "stdout", cfg.Observability.TraceExporter)
				assert.Equal(t, "prometheus", cfg.Observability.MetricExporter)
				assert.Equal(t, 1.0, cfg.Observability.SampleRatio)
			},
		},
		{
			name: "environment overrides",
			setupEnv: func(t *testing.T) {
				t.Setenv("MONGOSUITE_SERVER_PORT", "8080")
				t.Setenv("MONGOSUITE_SERVER_RUN_TIMEOUT", "2m")
				t.Setenv("MONGODB_URI", "mongodb://db.internal:27017/?replicaSet=rs1")
				t.Setenv("MONGODB_DATABASE", "harness")
				t.Setenv("MONGODB_COLLECTION", "fixtures")
				t.Setenv("MONGOSUITE_LOGGING_LEVEL", "debug")
				t.Setenv("MONGOSUITE_OBSERVABILITY_METRIC_EXPORTER", "none")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 2*time.Minute, cfg.Server.RunTimeout)
				assert.Equal(t, "mongodb://db.internal:27017/?replicaSet=rs1", cfg.Mongo.URI)
				assert.Equal(t, "harness", cfg.Mongo.Database)
				assert.Equal(t, "fixtures", cfg.Mongo.Collection)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "none", cfg.Observability.MetricExporter)
			},
		},
		{
			name: "port out of range fails validation",
			setupEnv: func(t *testing.T) {
				t.Setenv("MONGOSUITE_SERVER_PORT", "70000")
			},
			wantErr: "config validation failed",
		},
		{
			name: "unknown log level fails validation",
			setupEnv: func(t *testing.T) {
				t.Setenv("MONGOSUITE_LOGGING_LEVEL", "verbose")
			},
			wantErr: "config validation failed",
		},
		{
			name: "unknown trace exporter fails validation",
			setupEnv: func(t *testing.T) {
				t.Setenv("MONGOSUITE_OBSERVABILITY_TRACE_EXPORTER", "jaeger")
			},
			wantErr: "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
server:
  port: 9090
  run_timeout: 5m
mongo:
  uri: mongodb://replica:27017/?replicaSet=rs0
  database: filedb
  collection: file_collection
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := loadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 5*time.Minute, cfg.Server.RunTimeout)
		assert.Equal(t, "mongodb://replica:27017/?replicaSet=rs0", cfg.Mongo.URI)
		assert.Equal(t, "filedb", cfg.Mongo.Database)
		assert.Equal(t, "file_collection", cfg.Mongo.Collection)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

		_, err := loadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestMergeConfigs(t *testing.T) {
	fileConfig := Config{}
	fileConfig.Server.Port = 9090
	fileConfig.Server.RunTimeout = 5 * time.Minute
	fileConfig.Mongo.URI = "mongodb://file:27017"
	fileConfig.Mongo.Database = "filedb"
	fileConfig.Security.AllowedOrigins = []string{"http://localhost:3000"}
	fileConfig.Logging.Level = "warn"

	t.Run("file fills zero fields", func(t *testing.T) {
		merged := mergeConfigs(fileConfig, Config{})

		assert.Equal(t, 9090, merged.Server.Port)
		assert.Equal(t, 5*time.Minute, merged.Server.RunTimeout)
		assert.Equal(t, "mongodb://file:27017", merged.Mongo.URI)
		assert.Equal(t, "filedb", merged.Mongo.Database)
		assert.Equal(t, []string{"http://localhost:3000"}, merged.Security.AllowedOrigins)
		assert.Equal(t, "warn", merged.Logging.Level)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		envConfig := Config{}
		envConfig.Server.Port = 8080
		envConfig.Mongo.URI = "mongodb://env:27017"
		envConfig.Logging.Level = "debug"

		merged := mergeConfigs(fileConfig, envConfig)

		assert.Equal(t, 8080, merged.Server.Port)
		assert.Equal(t, "mongodb://env:27017", merged.Mongo.URI)
		assert.Equal(t, "debug", merged.Logging.Level)
		assert.Equal(t, "filedb", merged.Mongo.Database)
	})
}

func TestValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, Default().validate())
	})

	t.Run("format falls back to json", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Format = "xml"
		require.NoError(t, cfg.validate())
		assert.Equal(t, "json", cfg.Logging.Format)
	})

	t.Run("empty output falls back to stdout", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Output = ""
		require.NoError(t, cfg.validate())
		assert.Equal(t, "stdout", cfg.Logging.Output)
	})

	t.Run("missing database is rejected", func(t *testing.T) {
		cfg := Default()
		cfg.Mongo.Database = ""
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Database")
	})

	t.Run("sample ratio above one is rejected", func(t *testing.T) {
		cfg := Default()
		cfg.Observability.SampleRatio = 1.5
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SampleRatio")
	})
}

func TestAddr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":5000", cfg.Addr())

	cfg.Server.Port = 8080
	assert.Equal(t, ":8080", cfg.Addr())
}
