package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlass-io/windlass/pkg/stream"
)

func tempEvent(ms int64, temp float64) *stream.Event {
	return stream.NewEventAt("sensor-1", ms).WithField("temperature", stream.FloatValue(temp))
}

func TestStatefulProcessor_PassesEventThrough(t *testing.T) {
	p := NewStatefulProcessor(0, func(state *int, event *stream.Event) {
		*state++
	})

	event := tempEvent(100, 20)
	assert.Same(t, event, p.Process(event))

	p.WithState(func(state *int) {
		assert.Equal(t, 1, *state)
	})
}

func TestRunningAverage(t *testing.T) {
	p := NewRunningAverage("temperature")

	p.Process(tempEvent(100, 10))
	p.Process(tempEvent(200, 20))
	p.Process(tempEvent(300, 30))

	// Events without a numeric sample leave the state untouched.
	p.Process(stream.NewEventAt("sensor-1", 400))
	p.Process(stream.NewEventAt("sensor-1", 500).
		WithField("temperature", stream.StringValue("warm")))

	p.WithState(func(state *RunningAverage) {
		assert.Equal(t, int64(3), state.Count)
		assert.Equal(t, 20.0, state.Mean())
	})
}

func TestRunningAverage_EmptyMeanIsZero(t *testing.T) {
	assert.Equal(t, 0.0, RunningAverage{}.Mean())
}

func TestStatefulProcessor_ConcurrentReadersAndWriters(t *testing.T) {
	p := NewRunningAverage("temperature")

	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < perProducer; n++ {
				p.Process(tempEvent(int64(n), 10))
			}
		}()
	}

	// A monitoring reader interleaves with the writers; every snapshot
	// must be internally consistent.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for i := 0; i < 100; i++ {
			p.WithState(func(state *RunningAverage) {
				assert.Equal(t, float64(state.Count)*10, state.Sum)
			})
		}
	}()

	wg.Wait()
	<-readerDone

	p.WithState(func(state *RunningAverage) {
		assert.Equal(t, int64(producers*perProducer), state.Count)
		assert.Equal(t, 10.0, state.Mean())
	})
}

func TestStatefulProcessor_Operation(t *testing.T) {
	p := NewRunningAverage("temperature")
	op := p.Operation("running-average")

	require.Equal(t, "running-average", op.Name())

	event := tempEvent(100, 42)
	out, ok := op.Apply(event)
	require.True(t, ok)
	assert.Same(t, event, out)

	p.WithState(func(state *RunningAverage) {
		assert.Equal(t, int64(1), state.Count)
	})
}
