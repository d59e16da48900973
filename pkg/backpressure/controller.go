package backpressure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/stream"
)

// Strategy decides what happens to an event arriving at full capacity
type Strategy int

const (
	// Block suspends the caller until capacity frees
	Block Strategy = iota
	// Drop discards the event
	Drop
	// Sample admits every Nth rejected event as a representative
	// trickle under sustained overload
	Sample
)

// String returns string representation of the strategy
func (s Strategy) String() string {
	switch s {
	case Block:
		return "BLOCK"
	case Drop:
		return "DROP"
	case Sample:
		return "SAMPLE"
	default:
		return "UNKNOWN"
	}
}

// ParseStrategy maps a configuration string to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "block":
		return Block, nil
	case "drop":
		return Drop, nil
	case "sample":
		return Sample, nil
	default:
		return Block, fmt.Errorf("unknown backpressure strategy %q", s)
	}
}

// sampleInterval is the fixed N for the Sample strategy
const sampleInterval = 10

// ErrRejected reports an event refused admission. Not necessarily a
// failure: under Drop and Sample it is the expected overload behavior,
// surfaced so callers can observe it.
var ErrRejected = errors.New("event rejected by backpressure controller")

// ErrInvalidMax rejects construction with a non-positive capacity
var ErrInvalidMax = errors.New("backpressure capacity must be positive")

// Controller is an admission-control gate shared across producer and
// consumer contexts. All counter mutation happens under one mutex, so it
// is safe for any number of concurrent callers. Instantiate one
// controller per logical pipeline and pass it explicitly.
type Controller struct {
	max      int
	strategy Strategy
	logger   *zap.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	inFlight int
	rejected int64
	dropped  int64
}

// New creates a controller with the given capacity and strategy
func New(max int, strategy Strategy, logger *zap.Logger) (*Controller, error) {
	if max <= 0 {
		return nil, ErrInvalidMax
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		max:      max,
		strategy: strategy,
		logger:   logger,
	}
	c.cond = sync.NewCond(&c.mu)
	return c, nil
}

// CanAccept reports whether an event would currently be admitted.
// Read-only: the counter is not touched.
func (c *Controller) CanAccept() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight < c.max
}

// HandleEvent requests admission for the event. Below capacity the event
// is admitted and the in-flight counter incremented. At capacity the
// strategy decides: Block waits (honoring ctx) until capacity frees, Drop
// and Sample return ErrRejected for refused events. Every admitted event
// must be paired with a Release once fully processed.
func (c *Controller) HandleEvent(ctx context.Context, event *stream.Event) (*stream.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight < c.max {
		c.inFlight++
		return event, nil
	}

	switch c.strategy {
	case Block:
		return c.blockUntilAdmitted(ctx, event)

	case Sample:
		c.rejected++
		if c.rejected%sampleInterval == 0 {
			// Trickle admission may transiently exceed max; Release
			// floors the counter so the excess drains
			c.inFlight++
			return event, nil
		}
		c.dropped++
		return nil, ErrRejected

	default: // Drop
		c.rejected++
		c.dropped++
		return nil, ErrRejected
	}
}

// blockUntilAdmitted waits on the condition variable until Release frees
// capacity. A goroutine watches ctx and wakes all waiters on cancellation.
func (c *Controller) blockUntilAdmitted(ctx context.Context, event *stream.Event) (*stream.Event, error) {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer stop()

	for c.inFlight >= c.max {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.cond.Wait()
	}

	c.inFlight++
	return event, nil
}

// Release signals that one admitted event has been fully processed. The
// counter is floored at zero, and one blocked producer is woken.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight > 0 {
		c.inFlight--
	}
	c.cond.Signal()
}

// InFlight returns the current admitted-but-unreleased count
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Dropped returns how many events were refused and discarded
func (c *Controller) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
