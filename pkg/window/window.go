package window

import (
	"errors"
	"time"

	"github.com/windlass-io/windlass/pkg/stream"
)

// Kind identifies the windowing policy
type Kind int

const (
	Tumbling Kind = iota
	Sliding
	Session
	Count
)

// String returns string representation of the window kind
func (k Kind) String() string {
	switch k {
	case Tumbling:
		return "TUMBLING"
	case Sliding:
		return "SLIDING"
	case Session:
		return "SESSION"
	case Count:
		return "COUNT"
	default:
		return "UNKNOWN"
	}
}

// Configuration errors surface at construction; Add never fails.
var (
	ErrInvalidSize  = errors.New("window size must be positive")
	ErrInvalidSlide = errors.New("slide must be positive and no larger than the window size")
	ErrInvalidGap   = errors.New("session gap must be positive")
	ErrInvalidCount = errors.New("count window size must be positive")
)

// Window buffers events and emits completed batches according to its
// policy. A window is owned exclusively by one logical stream: it is
// created once, mutated on every Add, and logically reset each time a
// batch closes. It holds no internal locking.
type Window struct {
	kind  Kind
	size  time.Duration // tumbling / sliding span
	slide time.Duration // sliding emission cadence
	gap   time.Duration // session inactivity gap
	count int           // count window cardinality

	buffer []*stream.Event

	// Tumbling boundary pair [start, end)
	start time.Time
	end   time.Time

	// Sliding emission clock; advanced monotonically so emission does
	// not depend on slide-aligned timestamps.
	nextEmit time.Time

	started bool
}

// NewTumbling creates a fixed-size, non-overlapping time window
func NewTumbling(size time.Duration) (*Window, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &Window{kind: Tumbling, size: size}, nil
}

// NewSliding creates an overlapping time window of the given size that
// emits the full buffer every slide interval
func NewSliding(size, slide time.Duration) (*Window, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if slide <= 0 || slide > size {
		return nil, ErrInvalidSlide
	}
	return &Window{kind: Sliding, size: size, slide: slide}, nil
}

// NewSession creates a window closed by an inactivity gap
func NewSession(gap time.Duration) (*Window, error) {
	if gap <= 0 {
		return nil, ErrInvalidGap
	}
	return &Window{kind: Session, gap: gap}, nil
}

// NewCount creates a window closed after a fixed number of events
func NewCount(size int) (*Window, error) {
	if size <= 0 {
		return nil, ErrInvalidCount
	}
	return &Window{kind: Count, count: size}, nil
}

// Kind returns the windowing policy
func (w *Window) Kind() Kind {
	return w.kind
}

// Add buffers the event and returns any batches the event completed:
// zero or one for tumbling, session, and count windows, and possibly
// several for sliding windows catching up over a time gap.
func (w *Window) Add(event *stream.Event) [][]*stream.Event {
	switch w.kind {
	case Tumbling:
		return w.addTumbling(event)
	case Sliding:
		return w.addSliding(event)
	case Session:
		return w.addSession(event)
	default:
		return w.addCount(event)
	}
}

func (w *Window) addTumbling(event *stream.Event) [][]*stream.Event {
	if !w.started {
		w.started = true
		w.start = event.Time
		w.end = w.start.Add(w.size)
		w.buffer = append(w.buffer, event)
		return nil
	}

	if event.Time.Before(w.end) {
		w.buffer = append(w.buffer, event)
		return nil
	}

	// An event at or past the boundary closes the current window and
	// becomes the first member of the next one.
	batch := w.drain()
	w.start = event.Time
	w.end = w.start.Add(w.size)
	w.buffer = append(w.buffer, event)

	return [][]*stream.Event{batch}
}

func (w *Window) addSliding(event *stream.Event) [][]*stream.Event {
	if !w.started {
		w.started = true
		w.nextEmit = event.Time.Add(w.slide)
	}

	w.buffer = append(w.buffer, event)

	// Evict entries older than the window span relative to the newest event
	cutoff := event.Time.Add(-w.size)
	for len(w.buffer) > 0 && w.buffer[0].Time.Before(cutoff) {
		w.buffer = w.buffer[1:]
	}

	var batches [][]*stream.Event
	for !event.Time.Before(w.nextEmit) {
		batches = append(batches, w.snapshot())
		w.nextEmit = w.nextEmit.Add(w.slide)
	}

	return batches
}

func (w *Window) addSession(event *stream.Event) [][]*stream.Event {
	if len(w.buffer) > 0 {
		last := w.buffer[len(w.buffer)-1]
		if event.Time.Sub(last.Time) > w.gap {
			batch := w.drain()
			w.buffer = append(w.buffer, event)
			return [][]*stream.Event{batch}
		}
	}

	w.buffer = append(w.buffer, event)
	return nil
}

func (w *Window) addCount(event *stream.Event) [][]*stream.Event {
	w.buffer = append(w.buffer, event)
	if len(w.buffer) < w.count {
		return nil
	}
	return [][]*stream.Event{w.drain()}
}

// Buffered returns a copy of the events awaiting a batch boundary
func (w *Window) Buffered() []*stream.Event {
	return w.snapshot()
}

// Flush drains and returns the unemitted remainder, e.g. at end of
// stream. The window keeps its boundaries and emission clock.
func (w *Window) Flush() []*stream.Event {
	if len(w.buffer) == 0 {
		return nil
	}
	return w.drain()
}

// drain hands off the buffer and replaces it
func (w *Window) drain() []*stream.Event {
	batch := w.buffer
	w.buffer = make([]*stream.Event, 0, len(batch))
	return batch
}

// snapshot copies the buffer so emitted batches stay stable while the
// window keeps mutating
func (w *Window) snapshot() []*stream.Event {
	if len(w.buffer) == 0 {
		return nil
	}
	out := make([]*stream.Event, len(w.buffer))
	copy(out, w.buffer)
	return out
}
