package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/stream"
)

// KafkaConfig holds Kafka sink configuration
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaSink writes JSON-encoded events to a Kafka topic
type KafkaSink struct {
	producer *kafka.Producer
	topic    string
	logger   *zap.Logger
}

// NewKafkaSink creates a Kafka producer sink
func NewKafkaSink(config KafkaConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("no Kafka brokers specified")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("no Kafka topic specified")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": strings.Join(config.Brokers, ","),
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	s := &KafkaSink{
		producer: producer,
		topic:    config.Topic,
		logger:   logger,
	}

	// Drain delivery reports so the producer queue never fills
	go func() {
		for e := range producer.Events() {
			if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
				s.logger.Error("Kafka delivery failed",
					zap.String("topic", config.Topic),
					zap.Error(m.TopicPartition.Error))
			}
		}
	}()

	return s, nil
}

// Write produces one event
func (s *KafkaSink) Write(ctx context.Context, event *stream.Event) error {
	data, err := encodeJSON(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &s.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Key),
		Value:          data,
		Timestamp:      event.Time,
	}

	if err := s.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("kafka produce: %w", err)
	}
	return nil
}

// Flush waits for in-flight messages to be delivered
func (s *KafkaSink) Flush(ctx context.Context) error {
	timeout := 15 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if remaining := s.producer.Flush(int(timeout.Milliseconds())); remaining > 0 {
		return fmt.Errorf("%d kafka messages still undelivered after flush", remaining)
	}
	return nil
}

// Close flushes and closes the producer
func (s *KafkaSink) Close() error {
	s.producer.Flush(5000)
	s.producer.Close()
	return nil
}
