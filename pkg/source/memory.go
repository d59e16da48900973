package source

import (
	"context"
	"time"

	"github.com/windlass-io/windlass/pkg/stream"
)

// SliceSource replays a fixed set of events in order. Used in tests and
// examples where deterministic input matters.
type SliceSource struct {
	name   string
	events []*stream.Event
	pos    int
}

// NewSliceSource creates a source over the given events
func NewSliceSource(name string, events []*stream.Event) *SliceSource {
	return &SliceSource{name: name, events: events}
}

// Read returns the next event, or ErrEndOfStream once exhausted
func (s *SliceSource) Read() (*stream.Event, error) {
	if s.pos >= len(s.events) {
		return nil, stream.ErrEndOfStream
	}
	event := s.events[s.pos]
	s.pos++
	return event, nil
}

// Poll returns immediately; a slice source is never merely "not ready"
func (s *SliceSource) Poll(ctx context.Context, timeout time.Duration) (*stream.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Read()
}

// Name identifies the source
func (s *SliceSource) Name() string {
	return s.name
}

// Close is a no-op
func (s *SliceSource) Close() error {
	return nil
}

// ChannelSource bridges concurrent producers into the pull loop. The
// producers own the channel and close it to signal end of stream;
// pairing producer sends with a backpressure controller keeps the
// channel bounded.
type ChannelSource struct {
	name   string
	events <-chan *stream.Event
}

// NewChannelSource creates a source draining the given channel
func NewChannelSource(name string, events <-chan *stream.Event) *ChannelSource {
	return &ChannelSource{name: name, events: events}
}

// Read drains one event without blocking
func (s *ChannelSource) Read() (*stream.Event, error) {
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

// Poll blocks up to timeout for the next event
func (s *ChannelSource) Poll(ctx context.Context, timeout time.Duration) (*stream.Event, error) {
	select {
	case event, ok := <-s.events:
		if !ok {
			return nil, stream.ErrEndOfStream
		}
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, nil
	}
}

// Name identifies the source
func (s *ChannelSource) Name() string {
	return s.name
}

// Close is a no-op; the producer side owns the channel
func (s *ChannelSource) Close() error {
	return nil
}
