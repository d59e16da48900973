package state

import (
	"sync"

	"github.com/windlass-io/windlass/pkg/stream"
)

// UpdateFunc folds one event into the shared state
type UpdateFunc[S any] func(state *S, event *stream.Event)

// StatefulProcessor guards a caller-defined state value behind a mutex
// and applies an update function on every processed event. It is
// designed to be shared: the pipeline calls Process while monitoring
// goroutines read through WithState. Hold the WithState lock briefly —
// a slow reader starves the update path.
type StatefulProcessor[S any] struct {
	mu     sync.Mutex
	state  S
	update UpdateFunc[S]
}

// NewStatefulProcessor creates a processor seeded with the initial state
func NewStatefulProcessor[S any](initial S, update UpdateFunc[S]) *StatefulProcessor[S] {
	return &StatefulProcessor[S]{
		state:  initial,
		update: update,
	}
}

// Process applies the update function under the lock and returns the
// event unchanged so it continues through the pipeline.
func (p *StatefulProcessor[S]) Process(event *stream.Event) *stream.Event {
	p.mu.Lock()
	p.update(&p.state, event)
	p.mu.Unlock()
	return event
}

// WithState runs fn with exclusive access to the state. The lock is held
// only for the duration of fn.
func (p *StatefulProcessor[S]) WithState(fn func(state *S)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.state)
}

// Operation adapts the processor into a pipeline step
func (p *StatefulProcessor[S]) Operation(name string) stream.Operation {
	return stream.NewMapOperation(name, p.Process)
}

// RunningAverage is a ready-made state for tracking the mean of a
// numeric field across all processed events.
type RunningAverage struct {
	Count int64
	Sum   float64
}

// Mean returns the current average, or 0 before any sample
func (r RunningAverage) Mean() float64 {
	if r.Count == 0 {
		return 0
	}
	return r.Sum / float64(r.Count)
}

// NewRunningAverage tracks the mean of the named field; events without a
// numeric value for it are ignored.
func NewRunningAverage(field string) *StatefulProcessor[RunningAverage] {
	return NewStatefulProcessor(RunningAverage{}, func(state *RunningAverage, event *stream.Event) {
		if v, ok := event.NumericField(field); ok {
			state.Count++
			state.Sum += v
		}
	})
}
