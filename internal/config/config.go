package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the root of the harness configuration tree.
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Mongo         MongoConfig         `yaml:"mongo" envconfig:"MONGO"`
	Security      SecurityConfig      `yaml:"security" envconfig:"SECURITY"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	WebSocket     WebSocketConfig     `yaml:"websocket" envconfig:"WEBSOCKET"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
}

// ServerConfig tunes the HTTP listener and per-request deadlines.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"5000" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
	// RunTimeout bounds a full catalog run; index builds on a loaded
	// replica set can take a while, so it is generous.
	RunTimeout time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" default:"10m"`
}

// MongoConfig contains the connection settings for the collection under test.
type MongoConfig struct {
	URI            string        `yaml:"uri" envconfig:"MONGODB_URI" default:"mongodb://localhost:27017/?replicaSet=rs0" validate:"required"`
	Database       string        `yaml:"database" envconfig:"MONGODB_DATABASE" default:"testdb" validate:"required"`
	Collection     string        `yaml:"collection" envconfig:"MONGODB_COLLECTION" default:"test_collection" validate:"required"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" envconfig:"MONGODB_CONNECT_TIMEOUT" default:"10s" validate:"gt=0"`
	PingTimeout    time.Duration `yaml:"ping_timeout" envconfig:"MONGODB_PING_TIMEOUT" default:"5s" validate:"gt=0"`
}

// SecurityConfig groups CORS and rate limiting.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"*" validate:"min=1"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig shapes the process-wide token bucket on the API routes.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig selects level, encoding, and destination for slog output.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"true"`
}

// WebSocketConfig tunes the progress stream connections.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// ObservabilityConfig controls tracing and metrics export.
type ObservabilityConfig struct {
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING" default:"true"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS" default:"true"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"stdout" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" default:"prometheus" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" default:"1.0" validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Load assembles the configuration. Environment variables are read first,
// a config.yaml (if present) fills whatever the environment left unset, and
// the result is validated before use.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("MONGOSUITE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := findConfigFile(); configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs layers the file config under the env config. Only fields the
// env layer left at their zero value are taken from the file.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Server.ReadTimeout == 0 {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if envConfig.Server.WriteTimeout == 0 {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if envConfig.Server.RunTimeout == 0 {
		envConfig.Server.RunTimeout = fileConfig.Server.RunTimeout
	}
	if envConfig.Mongo.URI == "" {
		envConfig.Mongo.URI = fileConfig.Mongo.URI
	}
	if envConfig.Mongo.Database == "" {
		envConfig.Mongo.Database = fileConfig.Mongo.Database
	}
	if envConfig.Mongo.Collection == "" {
		envConfig.Mongo.Collection = fileConfig.Mongo.Collection
	}
	if len(envConfig.Security.AllowedOrigins) == 0 {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if envConfig.Logging.Level == "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}

	return envConfig
}

// validate normalizes the logging fields, then checks the struct tags.
func (c *Config) validate() error {
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			ve := verrs[0]
			return fmt.Errorf("invalid %s: failed %s constraint", ve.Namespace(), ve.Tag())
		}
		return err
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// findConfigFile probes the conventional locations for an optional
// config.yaml and returns the first hit, or "" to run on env vars alone.
func findConfigFile() string {
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the configuration the harness runs with when nothing is
// set, matching the struct tag defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
			RunTimeout:      10 * time.Minute,
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017/?replicaSet=rs0",
			Database:       "testdb",
			Collection:     "test_collection",
			ConnectTimeout: 10 * time.Second,
			PingTimeout:    5 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "stdout",
			Development: true,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Observability: ObservabilityConfig{
			EnableTracing:  true,
			EnableMetrics:  true,
			TraceExporter:  "stdout",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
