package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlass-io/windlass/pkg/stream"
)

func eventAt(ms int64) *stream.Event {
	return stream.NewEventAt("sensor-1", ms)
}

func times(batch []*stream.Event) []int64 {
	out := make([]int64, len(batch))
	for i, e := range batch {
		out[i] = e.UnixMilli()
	}
	return out
}

func TestWindowValidation(t *testing.T) {
	_, err := NewTumbling(0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewSliding(0, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = NewSliding(time.Second, 0)
	assert.ErrorIs(t, err, ErrInvalidSlide)

	_, err = NewSliding(time.Second, 2*time.Second)
	assert.ErrorIs(t, err, ErrInvalidSlide)

	_, err = NewSession(-time.Second)
	assert.ErrorIs(t, err, ErrInvalidGap)

	_, err = NewCount(0)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestTumblingWindow_BoundaryEventStartsNextWindow(t *testing.T) {
	w, err := NewTumbling(time.Second)
	require.NoError(t, err)

	assert.Nil(t, w.Add(eventAt(0)))
	assert.Nil(t, w.Add(eventAt(400)))
	assert.Nil(t, w.Add(eventAt(900)))

	// The arrival at 1200 lies past the [0, 1000) boundary: it closes
	// the first window and opens [1200, 2200) containing itself.
	batches := w.Add(eventAt(1200))
	require.Len(t, batches, 1)
	assert.Equal(t, []int64{0, 400, 900}, times(batches[0]))

	assert.Nil(t, w.Add(eventAt(1300)))
	assert.Equal(t, []int64{1200, 1300}, times(w.Buffered()))
}

func TestTumblingWindow_ExactBoundaryCloses(t *testing.T) {
	w, err := NewTumbling(time.Second)
	require.NoError(t, err)

	w.Add(eventAt(0))
	batches := w.Add(eventAt(1000))
	require.Len(t, batches, 1)
	assert.Equal(t, []int64{0}, times(batches[0]))
	assert.Equal(t, []int64{1000}, times(w.Buffered()))
}

func TestTumblingWindow_PartitionsStream(t *testing.T) {
	// Every event must land in exactly one batch across the run plus the
	// final flush.
	w, err := NewTumbling(500 * time.Millisecond)
	require.NoError(t, err)

	input := []int64{0, 100, 499, 500, 700, 1400, 1500, 2200}
	seen := make(map[int64]int)

	for _, ms := range input {
		for _, batch := range w.Add(eventAt(ms)) {
			for _, e := range batch {
				seen[e.UnixMilli()]++
			}
		}
	}
	for _, e := range w.Flush() {
		seen[e.UnixMilli()]++
	}

	require.Len(t, seen, len(input))
	for _, ms := range input {
		assert.Equal(t, 1, seen[ms], "event at %d", ms)
	}
}

func TestSlidingWindow_EmitsOnSlideClock(t *testing.T) {
	w, err := NewSliding(time.Second, 500*time.Millisecond)
	require.NoError(t, err)

	// First event establishes the emission clock at t+slide.
	assert.Nil(t, w.Add(eventAt(0)))
	assert.Nil(t, w.Add(eventAt(400)))

	batches := w.Add(eventAt(600))
	require.Len(t, batches, 1)
	assert.Equal(t, []int64{0, 400, 600}, times(batches[0]))

	// Next emission is due at 1000. The event at 1000 is exactly the
	// span behind itself, so nothing evicts yet.
	batches = w.Add(eventAt(1000))
	require.Len(t, batches, 1)
	assert.Equal(t, []int64{0, 400, 600, 1000}, times(batches[0]))
}

func TestSlidingWindow_EvictsBeforeEmitting(t *testing.T) {
	w, err := NewSliding(time.Second, 500*time.Millisecond)
	require.NoError(t, err)

	w.Add(eventAt(0))
	w.Add(eventAt(900))

	// Entries older than size relative to the newest arrival are gone
	// before the snapshot is taken: the event at 0 never appears.
	batches := w.Add(eventAt(1700))
	require.NotEmpty(t, batches)
	for _, batch := range batches {
		assert.Equal(t, []int64{900, 1700}, times(batch))
	}
}

func TestSlidingWindow_CatchesUpOverGap(t *testing.T) {
	w, err := NewSliding(time.Second, 500*time.Millisecond)
	require.NoError(t, err)

	w.Add(eventAt(0))

	// The clock is at 500; an arrival at 1600 owes emissions at 500,
	// 1000, and 1500.
	batches := w.Add(eventAt(1600))
	assert.Len(t, batches, 3)
}

func TestSessionWindow_GapClosesSession(t *testing.T) {
	w, err := NewSession(300 * time.Millisecond)
	require.NoError(t, err)

	assert.Nil(t, w.Add(eventAt(0)))
	assert.Nil(t, w.Add(eventAt(200)))
	assert.Nil(t, w.Add(eventAt(500))) // exactly the gap: same session

	batches := w.Add(eventAt(900))
	require.Len(t, batches, 1)
	assert.Equal(t, []int64{0, 200, 500}, times(batches[0]))
	assert.Equal(t, []int64{900}, times(w.Buffered()))
}

func TestCountWindow_ClosesAtCardinality(t *testing.T) {
	w, err := NewCount(3)
	require.NoError(t, err)

	assert.Nil(t, w.Add(eventAt(1)))
	assert.Nil(t, w.Add(eventAt(2)))

	batches := w.Add(eventAt(3))
	require.Len(t, batches, 1)
	assert.Equal(t, []int64{1, 2, 3}, times(batches[0]))

	assert.Nil(t, w.Add(eventAt(4)))
	assert.Equal(t, []int64{4}, times(w.Buffered()))
}

func TestWindowFlush(t *testing.T) {
	w, err := NewCount(10)
	require.NoError(t, err)

	w.Add(eventAt(1))
	w.Add(eventAt(2))

	remainder := w.Flush()
	assert.Equal(t, []int64{1, 2}, times(remainder))
	assert.Empty(t, w.Buffered())
	assert.Nil(t, w.Flush())
}

func TestWindowKindString(t *testing.T) {
	assert.Equal(t, "TUMBLING", Tumbling.String())
	assert.Equal(t, "SLIDING", Sliding.String())
	assert.Equal(t, "SESSION", Session.String())
	assert.Equal(t, "COUNT", Count.String())
}
