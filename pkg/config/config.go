package config

import (
	"time"
)

// Config is the complete windlass configuration
type Config struct {
	// Application metadata
	Application ApplicationConfig `yaml:"application" json:"application"`

	// Pipeline configuration
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`

	// Backpressure configuration
	Backpressure BackpressureConfig `yaml:"backpressure" json:"backpressure"`

	// Sink retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Sources configuration
	Sources SourcesConfig `yaml:"sources" json:"sources"`

	// Sinks configuration
	Sinks SinksConfig `yaml:"sinks" json:"sinks"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Tracing configuration
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ApplicationConfig holds application-level metadata
type ApplicationConfig struct {
	Name        string `yaml:"name" json:"name"`
	Environment string `yaml:"environment" json:"environment"` // development, staging, production
}

// PipelineConfig holds processor loop configuration
type PipelineConfig struct {
	PollTimeout time.Duration `yaml:"poll_timeout" json:"poll_timeout"`
}

// BackpressureConfig holds admission-control configuration
type BackpressureConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Max      int    `yaml:"max" json:"max"`
	Strategy string `yaml:"strategy" json:"strategy"` // block, drop, sample
}

// RetryConfig holds sink retry configuration
type RetryConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
	Jitter         float64       `yaml:"jitter" json:"jitter"`
}

// SourcesConfig holds data source configurations
type SourcesConfig struct {
	Kafka     *KafkaSourceConfig     `yaml:"kafka" json:"kafka"`
	NATS      *NATSSourceConfig      `yaml:"nats" json:"nats"`
	WebSocket *WebSocketSourceConfig `yaml:"websocket" json:"websocket"`
}

// KafkaSourceConfig holds Kafka source configuration
type KafkaSourceConfig struct {
	Brokers         []string `yaml:"brokers" json:"brokers"`
	Topics          []string `yaml:"topics" json:"topics"`
	GroupID         string   `yaml:"group_id" json:"group_id"`
	AutoOffsetReset string   `yaml:"auto_offset_reset" json:"auto_offset_reset"`
}

// NATSSourceConfig holds NATS source configuration
type NATSSourceConfig struct {
	URL        string `yaml:"url" json:"url"`
	Subject    string `yaml:"subject" json:"subject"`
	BufferSize int    `yaml:"buffer_size" json:"buffer_size"`
}

// WebSocketSourceConfig holds WebSocket source configuration
type WebSocketSourceConfig struct {
	Addr       string `yaml:"addr" json:"addr"`
	Path       string `yaml:"path" json:"path"`
	BufferSize int    `yaml:"buffer_size" json:"buffer_size"`
}

// SinksConfig holds sink configurations
type SinksConfig struct {
	Kafka    *KafkaSinkConfig    `yaml:"kafka" json:"kafka"`
	Postgres *PostgresSinkConfig `yaml:"postgres" json:"postgres"`
}

// KafkaSinkConfig holds Kafka sink configuration
type KafkaSinkConfig struct {
	Brokers []string `yaml:"brokers" json:"brokers"`
	Topic   string   `yaml:"topic" json:"topic"`
}

// PostgresSinkConfig holds Postgres sink configuration
type PostgresSinkConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	Database  string `yaml:"database" json:"database"`
	User      string `yaml:"user" json:"user"`
	Password  string `yaml:"password" json:"password"`
	Table     string `yaml:"table" json:"table"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Exporter string `yaml:"exporter" json:"exporter"` // stdout, otlp
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"` // debug, info, warn, error
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:        "windlass",
			Environment: "development",
		},
		Pipeline: PipelineConfig{
			PollTimeout: 100 * time.Millisecond,
		},
		Backpressure: BackpressureConfig{
			Enabled:  true,
			Max:      10000,
			Strategy: "block",
		},
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     10 * time.Second,
			Multiplier:     2.0,
			Jitter:         0.1,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9091",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// applyDefaults fills unset values after loading
func applyDefaults(c *Config) {
	defaults := DefaultConfig()

	if c.Application.Name == "" {
		c.Application.Name = defaults.Application.Name
	}
	if c.Application.Environment == "" {
		c.Application.Environment = defaults.Application.Environment
	}
	if c.Pipeline.PollTimeout <= 0 {
		c.Pipeline.PollTimeout = defaults.Pipeline.PollTimeout
	}
	if c.Backpressure.Max <= 0 {
		c.Backpressure.Max = defaults.Backpressure.Max
	}
	if c.Backpressure.Strategy == "" {
		c.Backpressure.Strategy = defaults.Backpressure.Strategy
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if c.Retry.InitialBackoff <= 0 {
		c.Retry.InitialBackoff = defaults.Retry.InitialBackoff
	}
	if c.Retry.MaxBackoff <= 0 {
		c.Retry.MaxBackoff = defaults.Retry.MaxBackoff
	}
	if c.Retry.Multiplier <= 0 {
		c.Retry.Multiplier = defaults.Retry.Multiplier
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = defaults.Metrics.Addr
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = defaults.Tracing.Exporter
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}
