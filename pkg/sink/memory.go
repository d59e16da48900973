package sink

import (
	"context"
	"sync"

	"github.com/windlass-io/windlass/pkg/stream"
)

// MemorySink collects written events. Used in tests and for inspecting
// small pipelines.
type MemorySink struct {
	mu      sync.Mutex
	events  []*stream.Event
	flushes int
}

// NewMemorySink creates an empty memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write appends the event
func (s *MemorySink) Write(ctx context.Context, event *stream.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Flush records the flush
func (s *MemorySink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

// Close is a no-op
func (s *MemorySink) Close() error {
	return nil
}

// Events returns a copy of everything written so far
func (s *MemorySink) Events() []*stream.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*stream.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Flushes returns how many times Flush was called
func (s *MemorySink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// FuncSink adapts a function into a sink
type FuncSink struct {
	write func(ctx context.Context, event *stream.Event) error
}

// NewFuncSink wraps the write function
func NewFuncSink(write func(ctx context.Context, event *stream.Event) error) *FuncSink {
	return &FuncSink{write: write}
}

// Write delegates to the wrapped function
func (s *FuncSink) Write(ctx context.Context, event *stream.Event) error {
	return s.write(ctx, event)
}

// Flush is a no-op
func (s *FuncSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *FuncSink) Close() error {
	return nil
}
