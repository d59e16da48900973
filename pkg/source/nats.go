package source

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/stream"
)

// NATSConfig holds NATS source configuration
type NATSConfig struct {
	URL        string
	Subject    string
	BufferSize int
}

// NATSSource pulls events from a NATS subject through a bounded channel
// subscription.
type NATSSource struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	msgs    chan *nats.Msg
	subject string
	logger  *zap.Logger
}

// NewNATSSource connects and subscribes to the configured subject
func NewNATSSource(config NATSConfig, logger *zap.Logger) (*NATSSource, error) {
	if config.Subject == "" {
		return nil, fmt.Errorf("no NATS subject specified")
	}
	if config.URL == "" {
		config.URL = nats.DefaultURL
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := nats.Connect(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	msgs := make(chan *nats.Msg, config.BufferSize)
	sub, err := conn.ChanSubscribe(config.Subject, msgs)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", config.Subject, err)
	}

	logger.Info("NATS source subscribed",
		zap.String("url", config.URL),
		zap.String("subject", config.Subject))

	return &NATSSource{
		conn:    conn,
		sub:     sub,
		msgs:    msgs,
		subject: config.Subject,
		logger:  logger,
	}, nil
}

// Read drains one message without blocking
func (s *NATSSource) Read() (*stream.Event, error) {
	select {
	case msg, ok := <-s.msgs:
		if !ok {
			return nil, stream.ErrEndOfStream
		}
		return s.decode(msg)
	default:
		return nil, nil
	}
}

// Poll blocks up to timeout for the next message
func (s *NATSSource) Poll(ctx context.Context, timeout time.Duration) (*stream.Event, error) {
	select {
	case msg, ok := <-s.msgs:
		if !ok {
			return nil, stream.ErrEndOfStream
		}
		return s.decode(msg)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, nil
	}
}

func (s *NATSSource) decode(msg *nats.Msg) (*stream.Event, error) {
	event, err := decodeJSON(msg.Data)
	if err != nil {
		s.logger.Warn("Skipping undecodable NATS message",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return nil, nil
	}
	return event, nil
}

// Name identifies the source
func (s *NATSSource) Name() string {
	return "nats:" + s.subject
}

// Close unsubscribes and drains the connection
func (s *NATSSource) Close() error {
	if err := s.sub.Unsubscribe(); err != nil {
		s.logger.Warn("NATS unsubscribe failed", zap.Error(err))
	}
	return s.conn.Drain()
}
