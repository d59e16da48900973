package sink

import (
	"bufio"
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/stream"
)

// StdoutSink writes one JSON event per line to standard output.
type StdoutSink struct {
	mu     sync.Mutex
	writer *bufio.Writer
	logger *zap.Logger
}

func NewStdoutSink(logger *zap.Logger) *StdoutSink {
	return &StdoutSink{
		writer: bufio.NewWriter(os.Stdout),
		logger: logger,
	}
}

func (s *StdoutSink) Write(ctx context.Context, event *stream.Event) error {
	data, err := encodeJSON(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	return s.writer.WriteByte('\n')
}

func (s *StdoutSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Flush()
}

func (s *StdoutSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Flush()
}
