package source

import (
	"bufio"
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/stream"
)

// StdinSource reads one JSON event per line from standard input. A
// reader goroutine feeds a channel so Read stays non-blocking.
type StdinSource struct {
	events chan *stream.Event
	logger *zap.Logger
}

func NewStdinSource(logger *zap.Logger) *StdinSource {
	s := &StdinSource{
		events: make(chan *stream.Event, 64),
		logger: logger,
	}
	go s.readLoop()
	return s
}

func (s *StdinSource) readLoop() {
	defer close(s.events)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := decodeJSON(line)
		if err != nil {
			s.logger.Warn("skipping undecodable line", zap.Error(err))
			continue
		}
		s.events <- event
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("stdin read", zap.Error(err))
	}
}

func (s *StdinSource) Read() (*stream.Event, error) {
	select {
	case event, ok := <-s.events:
		if !ok {
			return nil, stream.ErrEndOfStream
		}
		return event, nil
	default:
		return nil, nil
	}
}

func (s *StdinSource) Poll(ctx context.Context, timeout time.Duration) (*stream.Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event, ok := <-s.events:
		if !ok {
			return nil, stream.ErrEndOfStream
		}
		return event, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *StdinSource) Name() string {
	return "stdin"
}

func (s *StdinSource) Close() error {
	return nil
}
