package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlass-io/windlass/pkg/stream"
)

func TestMemorySink(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, stream.NewEventAt("a", 1)))
	require.NoError(t, s.Write(ctx, stream.NewEventAt("b", 2)))
	require.NoError(t, s.Flush(ctx))

	assert.Len(t, s.Events(), 2)
	assert.Equal(t, 1, s.Flushes())
	require.NoError(t, s.Close())
}

func TestFuncSink(t *testing.T) {
	boom := errors.New("boom")
	s := NewFuncSink(func(context.Context, *stream.Event) error {
		return boom
	})

	assert.ErrorIs(t, s.Write(context.Background(), stream.NewEventAt("a", 1)), boom)
	assert.NoError(t, s.Flush(context.Background()))
}

func TestEncodeJSON(t *testing.T) {
	event := stream.NewEventAt("sensor-1", 1700000000123).
		WithField("temperature", stream.FloatValue(21.5)).
		WithField("active", stream.BoolValue(true))

	data, err := encodeJSON(event)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "sensor-1", doc["key"])
	assert.Equal(t, float64(1700000000123), doc["timestamp"])
	assert.Equal(t, 21.5, doc["temperature"])
	assert.Equal(t, true, doc["active"])
}
