package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlass-io/windlass/pkg/stream"
)

func TestSliceSource(t *testing.T) {
	events := []*stream.Event{
		stream.NewEventAt("a", 1),
		stream.NewEventAt("b", 2),
	}
	src := NewSliceSource("test", events)
	assert.Equal(t, "test", src.Name())

	first, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, "a", first.Key)

	second, err := src.Poll(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "b", second.Key)

	_, err = src.Read()
	assert.ErrorIs(t, err, stream.ErrEndOfStream)
	require.NoError(t, src.Close())
}

func TestChannelSource(t *testing.T) {
	ch := make(chan *stream.Event, 1)
	src := NewChannelSource("test", ch)

	// Empty channel: Read is non-blocking, Poll waits out the timeout.
	event, err := src.Read()
	require.NoError(t, err)
	assert.Nil(t, event)

	event, err = src.Poll(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, event)

	ch <- stream.NewEventAt("a", 1)
	event, err = src.Poll(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", event.Key)

	close(ch)
	_, err = src.Read()
	assert.ErrorIs(t, err, stream.ErrEndOfStream)
}

func TestChannelSource_PollHonorsCancellation(t *testing.T) {
	src := NewChannelSource("test", make(chan *stream.Event))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Poll(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeJSON(t *testing.T) {
	event, err := decodeJSON([]byte(`{
		"key": "sensor-1",
		"timestamp": 1700000000123,
		"temperature": 21.5,
		"active": true,
		"tags": ["indoor", "calibrated"]
	}`))
	require.NoError(t, err)

	assert.Equal(t, "sensor-1", event.Key)
	assert.Equal(t, int64(1700000000123), event.UnixMilli())

	temp, ok := event.NumericField("temperature")
	require.True(t, ok)
	assert.Equal(t, 21.5, temp)

	// Reserved fields never leak into the payload.
	_, ok = event.Field("key")
	assert.False(t, ok)
	_, ok = event.Field("timestamp")
	assert.False(t, ok)

	tags, ok := event.Field("tags")
	require.True(t, ok)
	assert.Equal(t, stream.KindList, tags.Kind())
}

func TestDecodeJSON_MissingTimestampFallsBack(t *testing.T) {
	before := time.Now()
	event, err := decodeJSON([]byte(`{"key": "k", "value": 1}`))
	require.NoError(t, err)
	assert.False(t, event.Time.Before(before.Truncate(time.Millisecond)))
}

func TestDecodeJSON_Malformed(t *testing.T) {
	_, err := decodeJSON([]byte(`not json`))
	assert.Error(t, err)
}
