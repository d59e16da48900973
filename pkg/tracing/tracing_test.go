package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/stream"
)

func TestInitRejectsUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), "windlass", "zipkin", "", zap.NewNop())
	assert.Error(t, err)
}

func TestInitStdoutAndShutdown(t *testing.T) {
	p, err := Init(context.Background(), "windlass-test", ExporterStdout, "", zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestShutdownOnNilProvider(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}

type staticStage struct{ out []*stream.Event }

func (s staticStage) Process(*stream.Event) []*stream.Event { return s.out }

func TestWrapStagePassesThrough(t *testing.T) {
	derived := []*stream.Event{stream.NewEventAt("a", 1), stream.NewEventAt("b", 2)}
	wrapped := WrapStage("test-stage", staticStage{out: derived})

	out := wrapped.Process(stream.NewEventAt("in", 0))
	assert.Equal(t, derived, out)

	// The inner stage has no Flush, so the wrapper drains nothing.
	assert.Nil(t, wrapped.Flush())
}
