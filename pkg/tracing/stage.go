package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/windlass-io/windlass/pkg/stream"
)

const tracerName = "github.com/windlass-io/windlass"

// TracedStage wraps a stage so every Process call produces a span
// carrying the event key and the number of emitted events.
type TracedStage struct {
	inner  stream.Stage
	name   string
	tracer trace.Tracer
}

// WrapStage decorates a stage with span instrumentation.
func WrapStage(name string, inner stream.Stage) *TracedStage {
	return &TracedStage{
		inner:  inner,
		name:   name,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracedStage) Process(event *stream.Event) []*stream.Event {
	_, span := s.tracer.Start(context.Background(), s.name)
	defer span.End()

	span.SetAttributes(attribute.String("event.key", event.Key))
	out := s.inner.Process(event)
	span.SetAttributes(attribute.Int("emitted", len(out)))
	return out
}

// Flush forwards to the inner stage when it can drain buffered state.
func (s *TracedStage) Flush() *stream.Event {
	if f, ok := s.inner.(stream.Flusher); ok {
		return f.Flush()
	}
	return nil
}
