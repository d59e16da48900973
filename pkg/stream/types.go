package stream

import (
	"context"
	"errors"
	"time"
)

// ErrEndOfStream is returned by Source.Read and Source.Poll once a source
// is exhausted. The processor loop treats it as a clean end of input.
var ErrEndOfStream = errors.New("end of stream")

// Source produces events for the pull loop.
type Source interface {
	// Read returns the next event without blocking. It returns (nil, nil)
	// when no event is ready yet and ErrEndOfStream once the source is
	// exhausted or closed.
	Read() (*Event, error)

	// Poll blocks up to timeout for the next event, re-reading internally.
	// It returns (nil, nil) when the timeout elapses with no event.
	Poll(ctx context.Context, timeout time.Duration) (*Event, error)

	// Name identifies the source in logs and metrics
	Name() string

	// Close releases source resources
	Close() error
}

// Sink consumes events produced by the pipeline.
type Sink interface {
	Write(ctx context.Context, event *Event) error
	Flush(ctx context.Context) error
	Close() error
}

// Operation is a single transformation step in the pipeline chain.
type Operation interface {
	// Apply transforms one event. ok=false drops the event: it proceeds
	// no further through the chain, and is not an error.
	Apply(event *Event) (result *Event, ok bool)

	// Name identifies the operation in logs and metrics
	Name() string
}

// Stage is a fan-out step placed between the operation chain and the
// sink: one input event may complete zero or more derived events.
// Window aggregators and join sides implement it.
type Stage interface {
	Process(event *Event) []*Event
}

// Flusher is implemented by stages that can emit a final event for their
// unflushed remainder at end of stream.
type Flusher interface {
	Flush() *Event
}

// pollInterval is how often Poll re-checks a non-blocking Read.
const pollInterval = 5 * time.Millisecond

// PollWithRead implements Source.Poll on top of a non-blocking read
// function. Sources without a native blocking read embed this.
func PollWithRead(ctx context.Context, timeout time.Duration, read func() (*Event, error)) (*Event, error) {
	deadline := time.Now().Add(timeout)

	for {
		event, err := read()
		if err != nil || event != nil {
			return event, err
		}

		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
