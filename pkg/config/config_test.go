package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
application:
  name: sensor-pipeline
  environment: production
backpressure:
  enabled: true
  max: 500
  strategy: drop
sources:
  nats:
    url: nats://localhost:4222
    subject: sensors.readings
sinks:
  postgres:
    host: localhost
    database: telemetry
    table: readings
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sensor-pipeline", cfg.Application.Name)
	assert.Equal(t, 100*time.Millisecond, cfg.Pipeline.PollTimeout, "default fills the unset field")
	assert.Equal(t, "drop", cfg.Backpressure.Strategy)
	assert.Equal(t, 500, cfg.Backpressure.Max)
	require.NotNil(t, cfg.Sources.NATS)
	assert.Equal(t, "sensors.readings", cfg.Sources.NATS.Subject)
	require.NotNil(t, cfg.Sinks.Postgres)
	assert.Equal(t, "readings", cfg.Sinks.Postgres.Table)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "application": {"name": "json-pipeline"},
  "logging": {"level": "warn"}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json-pipeline", cfg.Application.Name)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
application:
  name: minimal
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, defaults.Pipeline.PollTimeout, cfg.Pipeline.PollTimeout)
	assert.Equal(t, defaults.Backpressure.Strategy, cfg.Backpressure.Strategy)
	assert.Equal(t, defaults.Logging.Level, cfg.Logging.Level)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeConfig(t, "config.toml", "whatever = true")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "application: [broken")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Application.Name, cfg.Application.Name)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backpressure.Strategy = "reject"
	cfg.Logging.Level = "verbose"
	cfg.Sinks.Kafka = &KafkaSinkConfig{}

	err := Validate(cfg)
	require.Error(t, err)

	verrs, ok := err.(*ValidationErrors)
	require.True(t, ok)
	assert.Len(t, verrs.Errors, 4, "strategy, log level, kafka brokers and topic")
}

func TestValidateSourceRequirements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sources.Kafka = &KafkaSourceConfig{}

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources.kafka.brokers")
	assert.Contains(t, err.Error(), "sources.kafka.topics")
}

func TestValidateTracing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "otlp"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracing.endpoint")

	cfg.Tracing.Endpoint = "localhost:4318"
	assert.NoError(t, Validate(cfg))
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}
