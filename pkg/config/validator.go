package config

import (
	"fmt"
	"strings"
)

// ValidationError describes one rejected configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every rejection found in one pass
type ValidationErrors struct {
	Errors []ValidationError
}

func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d validation error(s):\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// HasErrors reports whether any field was rejected
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Add records a rejection
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, ValidationError{Field: field, Message: message})
}

var validStrategies = map[string]bool{"block": true, "drop": true, "sample": true}
var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
var validExporters = map[string]bool{"stdout": true, "otlp": true}

// Validate checks the entire configuration and reports every problem at
// once rather than stopping at the first.
func Validate(config *Config) error {
	errs := &ValidationErrors{}

	if config.Pipeline.PollTimeout <= 0 {
		errs.Add("pipeline.poll_timeout", "must be positive")
	}

	if config.Backpressure.Enabled {
		if config.Backpressure.Max <= 0 {
			errs.Add("backpressure.max", "must be positive")
		}
		if !validStrategies[config.Backpressure.Strategy] {
			errs.Add("backpressure.strategy", "must be one of: block, drop, sample")
		}
	}

	if config.Retry.Enabled {
		if config.Retry.MaxAttempts < 0 {
			errs.Add("retry.max_attempts", "must not be negative")
		}
		if config.Retry.Jitter < 0 || config.Retry.Jitter > 1 {
			errs.Add("retry.jitter", "must be between 0.0 and 1.0")
		}
	}

	if kafka := config.Sources.Kafka; kafka != nil {
		if len(kafka.Brokers) == 0 {
			errs.Add("sources.kafka.brokers", "at least one broker required")
		}
		if len(kafka.Topics) == 0 {
			errs.Add("sources.kafka.topics", "at least one topic required")
		}
	}

	if nats := config.Sources.NATS; nats != nil && nats.Subject == "" {
		errs.Add("sources.nats.subject", "subject required")
	}

	if ws := config.Sources.WebSocket; ws != nil && ws.Addr == "" {
		errs.Add("sources.websocket.addr", "listen address required")
	}

	if kafka := config.Sinks.Kafka; kafka != nil {
		if len(kafka.Brokers) == 0 {
			errs.Add("sinks.kafka.brokers", "at least one broker required")
		}
		if kafka.Topic == "" {
			errs.Add("sinks.kafka.topic", "topic required")
		}
	}

	if pg := config.Sinks.Postgres; pg != nil {
		if pg.Host == "" {
			errs.Add("sinks.postgres.host", "host required")
		}
		if pg.Table == "" {
			errs.Add("sinks.postgres.table", "table required")
		}
	}

	if config.Metrics.Enabled && config.Metrics.Addr == "" {
		errs.Add("metrics.addr", "listen address required when metrics enabled")
	}

	if config.Tracing.Enabled {
		if !validExporters[config.Tracing.Exporter] {
			errs.Add("tracing.exporter", "must be one of: stdout, otlp")
		}
		if config.Tracing.Exporter == "otlp" && config.Tracing.Endpoint == "" {
			errs.Add("tracing.endpoint", "endpoint required for otlp exporter")
		}
	}

	if !validLogLevels[config.Logging.Level] {
		errs.Add("logging.level", "must be one of: debug, info, warn, error")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
