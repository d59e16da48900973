package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/backpressure"
	"github.com/windlass-io/windlass/pkg/config"
	"github.com/windlass-io/windlass/pkg/errors"
	"github.com/windlass-io/windlass/pkg/metrics"
	"github.com/windlass-io/windlass/pkg/pipeline"
	"github.com/windlass-io/windlass/pkg/sink"
	"github.com/windlass-io/windlass/pkg/source"
	"github.com/windlass-io/windlass/pkg/stream"
	"github.com/windlass-io/windlass/pkg/tracing"
)

var (
	configFile = flag.String("config", "", "Path to configuration file (yaml or json)")
	logLevel   = flag.String("log-level", "", "Log level override (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	logger := initLogger(level)
	defer logger.Sync()

	logger.Info("starting windlass",
		zap.String("application", cfg.Application.Name),
		zap.String("environment", cfg.Application.Environment),
		zap.String("config", *configFile))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Tracing.Enabled {
		provider, err := tracing.Init(ctx, cfg.Application.Name, cfg.Tracing.Exporter, cfg.Tracing.Endpoint, logger)
		if err != nil {
			logger.Fatal("initializing tracing", zap.Error(err))
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			provider.Shutdown(shutdownCtx)
		}()
	}

	collector := metrics.NewCollector(logger)
	if cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics.Addr, collector, logger)
		server.Start()
		defer server.Stop()
	}

	src, err := buildSource(cfg, logger)
	if err != nil {
		logger.Fatal("building source", zap.Error(err))
	}
	defer src.Close()

	snk, err := buildSink(cfg, logger)
	if err != nil {
		logger.Fatal("building sink", zap.Error(err))
	}
	defer snk.Close()

	processor := pipeline.New(src, snk, logger).
		WithMetrics(collector).
		WithPollTimeout(cfg.Pipeline.PollTimeout)

	if cfg.Backpressure.Enabled {
		strategy, err := backpressure.ParseStrategy(cfg.Backpressure.Strategy)
		if err != nil {
			logger.Fatal("parsing backpressure strategy", zap.Error(err))
		}
		controller, err := backpressure.New(cfg.Backpressure.Max, strategy, logger)
		if err != nil {
			logger.Fatal("building backpressure controller", zap.Error(err))
		}
		processor.WithBackpressure(controller)
	}

	if cfg.Retry.Enabled {
		processor.WithRetryPolicy(buildRetryPolicy(cfg))
	}

	if err := processor.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("pipeline terminated", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

// buildSource picks the first configured source. Without one the
// process reads JSON lines from stdin, which keeps local runs useful.
func buildSource(cfg *config.Config, logger *zap.Logger) (stream.Source, error) {
	switch {
	case cfg.Sources.Kafka != nil:
		return source.NewKafkaSource(source.KafkaConfig{
			Brokers:         cfg.Sources.Kafka.Brokers,
			Topics:          cfg.Sources.Kafka.Topics,
			GroupID:         cfg.Sources.Kafka.GroupID,
			AutoOffsetReset: cfg.Sources.Kafka.AutoOffsetReset,
		}, logger)
	case cfg.Sources.NATS != nil:
		return source.NewNATSSource(source.NATSConfig{
			URL:        cfg.Sources.NATS.URL,
			Subject:    cfg.Sources.NATS.Subject,
			BufferSize: cfg.Sources.NATS.BufferSize,
		}, logger)
	case cfg.Sources.WebSocket != nil:
		return source.NewWebSocketSource(source.WebSocketConfig{
			Addr:       cfg.Sources.WebSocket.Addr,
			Path:       cfg.Sources.WebSocket.Path,
			BufferSize: cfg.Sources.WebSocket.BufferSize,
		}, logger), nil
	default:
		return source.NewStdinSource(logger), nil
	}
}

// buildSink picks the first configured sink, falling back to stdout.
func buildSink(cfg *config.Config, logger *zap.Logger) (stream.Sink, error) {
	switch {
	case cfg.Sinks.Kafka != nil:
		return sink.NewKafkaSink(sink.KafkaConfig{
			Brokers: cfg.Sinks.Kafka.Brokers,
			Topic:   cfg.Sinks.Kafka.Topic,
		}, logger)
	case cfg.Sinks.Postgres != nil:
		return sink.NewPostgresSink(sink.PostgresConfig{
			Host:      cfg.Sinks.Postgres.Host,
			Port:      cfg.Sinks.Postgres.Port,
			Database:  cfg.Sinks.Postgres.Database,
			User:      cfg.Sinks.Postgres.User,
			Password:  cfg.Sinks.Postgres.Password,
			Table:     cfg.Sinks.Postgres.Table,
			BatchSize: cfg.Sinks.Postgres.BatchSize,
		}, logger)
	default:
		return sink.NewStdoutSink(logger), nil
	}
}

func buildRetryPolicy(cfg *config.Config) *errors.RetryPolicy {
	policy := errors.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Retry.MaxAttempts
	policy.InitialBackoff = cfg.Retry.InitialBackoff
	policy.MaxBackoff = cfg.Retry.MaxBackoff
	policy.Multiplier = cfg.Retry.Multiplier
	policy.Jitter = cfg.Retry.Jitter
	return policy
}

func initLogger(level string) *zap.Logger {
	var logLevel zap.AtomicLevel

	switch level {
	case "debug":
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		logLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		logLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config := zap.NewProductionConfig()
	config.Level = logLevel

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	return logger
}
