package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/stream"
)

// KafkaConfig holds Kafka source configuration
type KafkaConfig struct {
	Brokers         []string
	Topics          []string
	GroupID         string
	AutoOffsetReset string
}

// KafkaSource pulls events from Kafka topics. The consumer's native
// blocking read backs Poll directly.
type KafkaSource struct {
	consumer *kafka.Consumer
	topics   []string
	logger   *zap.Logger
}

// NewKafkaSource creates and subscribes a Kafka consumer
func NewKafkaSource(config KafkaConfig, logger *zap.Logger) (*KafkaSource, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("no Kafka brokers specified")
	}
	if len(config.Topics) == 0 {
		return nil, fmt.Errorf("no Kafka topics specified")
	}
	if config.GroupID == "" {
		config.GroupID = "windlass-consumer-group"
	}
	if config.AutoOffsetReset == "" {
		config.AutoOffsetReset = "earliest"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": strings.Join(config.Brokers, ","),
		"group.id":          config.GroupID,
		"auto.offset.reset": config.AutoOffsetReset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	if err := consumer.SubscribeTopics(config.Topics, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	logger.Info("Kafka source subscribed",
		zap.Strings("topics", config.Topics),
		zap.String("group_id", config.GroupID))

	return &KafkaSource{
		consumer: consumer,
		topics:   config.Topics,
		logger:   logger,
	}, nil
}

// Read returns the next message without blocking
func (s *KafkaSource) Read() (*stream.Event, error) {
	return s.poll(0)
}

// Poll blocks up to timeout on the consumer
func (s *KafkaSource) Poll(ctx context.Context, timeout time.Duration) (*stream.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.poll(timeout)
}

func (s *KafkaSource) poll(timeout time.Duration) (*stream.Event, error) {
	msg, err := s.consumer.ReadMessage(timeout)
	if err != nil {
		if ke, ok := err.(kafka.Error); ok && ke.IsTimeout() {
			return nil, nil
		}
		return nil, fmt.Errorf("kafka read: %w", err)
	}

	event, err := decodeJSON(msg.Value)
	if err != nil {
		// Malformed message: skipped, never aborts the pipeline
		s.logger.Warn("Skipping undecodable Kafka message",
			zap.String("topic", *msg.TopicPartition.Topic),
			zap.Error(err))
		return nil, nil
	}

	if event.Key == "" && len(msg.Key) > 0 {
		event.Key = string(msg.Key)
	}
	return event, nil
}

// Name identifies the source
func (s *KafkaSource) Name() string {
	return "kafka:" + strings.Join(s.topics, ",")
}

// Close closes the consumer
func (s *KafkaSource) Close() error {
	return s.consumer.Close()
}
