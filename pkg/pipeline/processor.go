package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/backpressure"
	"github.com/windlass-io/windlass/pkg/errors"
	"github.com/windlass-io/windlass/pkg/metrics"
	"github.com/windlass-io/windlass/pkg/stream"
)

// defaultPollTimeout bounds how long one loop iteration waits on the
// source before treating the stream as drained.
const defaultPollTimeout = 100 * time.Millisecond

// Processor is the driving pull/process/push loop. It is single-threaded:
// one event is pulled, threaded through the ordered operation chain (and
// the optional stage), and pushed to the sink before the next pull. There
// is no internal parallelism; the shared pieces (backpressure controller,
// stateful processors inside operations) carry their own locking.
type Processor struct {
	source      stream.Source
	sink        stream.Sink
	operations  []stream.Operation
	stage       stream.Stage
	controller  *backpressure.Controller
	retry       *errors.RetryPolicy
	collector   *metrics.Collector
	logger      *zap.Logger
	pollTimeout time.Duration
}

// New creates a processor. The reference behavior is fail-fast on sink
// errors; wire a RetryPolicy for bounded retries with backoff.
func New(source stream.Source, sink stream.Sink, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		source:      source,
		sink:        sink,
		retry:       errors.NoRetryPolicy(),
		logger:      logger,
		pollTimeout: defaultPollTimeout,
	}
}

// AddOperation appends a transformation step; steps run in add order
func (p *Processor) AddOperation(op stream.Operation) *Processor {
	p.operations = append(p.operations, op)
	return p
}

// WithStage sets the fan-out stage between the operation chain and the
// sink (window aggregator or join side). With a stage attached, the sink
// receives the stage's derived events instead of the input event.
func (p *Processor) WithStage(stage stream.Stage) *Processor {
	p.stage = stage
	return p
}

// WithBackpressure gates admission through the shared controller
func (p *Processor) WithBackpressure(controller *backpressure.Controller) *Processor {
	p.controller = controller
	return p
}

// WithRetryPolicy sets the sink write retry policy
func (p *Processor) WithRetryPolicy(policy *errors.RetryPolicy) *Processor {
	p.retry = policy
	return p
}

// WithMetrics attaches a Prometheus collector
func (p *Processor) WithMetrics(collector *metrics.Collector) *Processor {
	p.collector = collector
	return p
}

// WithPollTimeout sets how long each iteration waits on the source
func (p *Processor) WithPollTimeout(timeout time.Duration) *Processor {
	p.pollTimeout = timeout
	return p
}

// Run pulls events until the source drains, ctx is cancelled, or a sink
// write exhausts its retry budget. A drained source flushes the sink and
// returns nil; cancellation returns ctx.Err(); sink failure returns the
// terminal error without flushing.
func (p *Processor) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID), zap.String("source", p.source.Name()))
	log.Info("Pipeline run starting", zap.Int("operations", len(p.operations)))

	for {
		if err := ctx.Err(); err != nil {
			log.Info("Pipeline run cancelled")
			return err
		}

		event, err := p.source.Poll(ctx, p.pollTimeout)
		if err != nil {
			if stderrors.Is(err, stream.ErrEndOfStream) {
				return p.finish(ctx, log)
			}
			return fmt.Errorf("source %s: %w", p.source.Name(), err)
		}
		if event == nil {
			// Nothing available within the poll timeout; the stream is
			// idle, not drained
			continue
		}

		if event, err = p.admit(ctx, event); err != nil {
			return err
		}
		if event == nil {
			continue // rejected, observable via metrics
		}

		if err := p.handle(ctx, event); err != nil {
			log.Error("Pipeline run aborted", zap.Error(err))
			return err
		}
	}
}

// admit runs the backpressure gate. A rejected event returns (nil, nil):
// dropped, not an error.
func (p *Processor) admit(ctx context.Context, event *stream.Event) (*stream.Event, error) {
	if p.controller == nil {
		return event, nil
	}

	admitted, err := p.controller.HandleEvent(ctx, event)
	if err != nil {
		if stderrors.Is(err, backpressure.ErrRejected) {
			if p.collector != nil {
				p.collector.BackpressureRejected.Inc()
				p.collector.EventsDropped.WithLabelValues("backpressure").Inc()
			}
			return nil, nil
		}
		return nil, err
	}

	if p.collector != nil {
		p.collector.InFlight.Set(float64(p.controller.InFlight()))
	}
	return admitted, nil
}

// handle threads one admitted event through the chain and the sink
func (p *Processor) handle(ctx context.Context, event *stream.Event) error {
	if p.controller != nil {
		defer func() {
			p.controller.Release()
			if p.collector != nil {
				p.collector.InFlight.Set(float64(p.controller.InFlight()))
			}
		}()
	}

	start := time.Now()

	for _, op := range p.operations {
		next, ok := op.Apply(event)
		if !ok {
			// Filtered: dropped without affecting later events
			if p.collector != nil {
				p.collector.EventsFiltered.WithLabelValues(op.Name()).Inc()
			}
			return nil
		}
		event = next
	}

	outputs := []*stream.Event{event}
	if p.stage != nil {
		outputs = p.stage.Process(event)
	}

	for _, out := range outputs {
		if err := p.write(ctx, out); err != nil {
			return err
		}
	}

	if p.collector != nil {
		p.collector.EventsProcessed.WithLabelValues(p.source.Name()).Inc()
		p.collector.ProcessingLatency.WithLabelValues(p.source.Name()).Observe(time.Since(start).Seconds())
	}
	return nil
}

// write pushes one event to the sink under the retry policy
func (p *Processor) write(ctx context.Context, event *stream.Event) error {
	attempts := 0
	err := p.retry.Execute(ctx, func(ctx context.Context) error {
		attempts++
		return p.sink.Write(ctx, event)
	})

	if p.collector != nil && attempts > 1 {
		p.collector.SinkRetries.Add(float64(attempts - 1))
	}
	if err != nil {
		if p.collector != nil {
			p.collector.SinkFailures.Inc()
		}
		return fmt.Errorf("sink write: %w", err)
	}
	return nil
}

// finish drains the stage remainder and flushes the sink at end of stream
func (p *Processor) finish(ctx context.Context, log *zap.Logger) error {
	if flusher, ok := p.stage.(stream.Flusher); ok && flusher != nil {
		if final := flusher.Flush(); final != nil {
			if err := p.write(ctx, final); err != nil {
				return err
			}
		}
	}

	if err := p.sink.Flush(ctx); err != nil {
		return fmt.Errorf("sink flush: %w", err)
	}

	log.Info("Pipeline run finished")
	return nil
}
