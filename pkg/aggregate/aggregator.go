package aggregate

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/metrics"
	"github.com/windlass-io/windlass/pkg/stream"
	"github.com/windlass-io/windlass/pkg/window"
)

// AggregationKind selects the scalar computed over a completed batch
type AggregationKind int

const (
	Sum AggregationKind = iota
	Average
	Count
	Min
	Max
	StdDev
)

// String returns string representation of the aggregation kind
func (k AggregationKind) String() string {
	switch k {
	case Sum:
		return "SUM"
	case Average:
		return "AVG"
	case Count:
		return "COUNT"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case StdDev:
		return "STDDEV"
	default:
		return "UNKNOWN"
	}
}

// ResultKey is the key carried by every aggregation result event
const ResultKey = "aggregation"

// ErrNoSamples reports a batch with no numeric samples for the configured
// field. It is recovered locally: the batch produces no result event and
// the pipeline continues.
var ErrNoSamples = errors.New("no numeric samples in batch")

// ErrEmptyField rejects construction without an aggregation field
var ErrEmptyField = errors.New("aggregation field must not be empty")

// WindowAggregator reduces each batch completed by its window to a single
// summary event. Events whose field is absent or non-numeric are skipped,
// never an error. Like the window it owns, an aggregator belongs to one
// logical stream and is not safe for concurrent use.
type WindowAggregator struct {
	win       *window.Window
	field     string
	kind      AggregationKind
	logger    *zap.Logger
	collector *metrics.Collector

	skippedBatches int64
}

// NewWindowAggregator creates an aggregator over the given window
func NewWindowAggregator(win *window.Window, field string, kind AggregationKind, logger *zap.Logger) (*WindowAggregator, error) {
	if win == nil {
		return nil, errors.New("window must not be nil")
	}
	if field == "" {
		return nil, ErrEmptyField
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WindowAggregator{
		win:    win,
		field:  field,
		kind:   kind,
		logger: logger,
	}, nil
}

// WithMetrics attaches a Prometheus collector for window observability
func (a *WindowAggregator) WithMetrics(collector *metrics.Collector) *WindowAggregator {
	a.collector = collector
	return a
}

// Process adds the event to the owned window and returns one result event
// per batch the arrival completed.
func (a *WindowAggregator) Process(event *stream.Event) []*stream.Event {
	var results []*stream.Event
	for _, batch := range a.win.Add(event) {
		if a.collector != nil {
			a.collector.WindowsFired.WithLabelValues(a.win.Kind().String()).Inc()
		}
		if result := a.reduce(batch); result != nil {
			results = append(results, result)
		}
	}

	if a.collector != nil {
		a.collector.WindowBuffered.WithLabelValues(a.win.Kind().String()).Set(float64(len(a.win.Buffered())))
	}
	return results
}

// Flush reduces the unemitted remainder of the window, e.g. at end of
// stream. Returns nil when the buffer is empty or holds no samples.
func (a *WindowAggregator) Flush() *stream.Event {
	batch := a.win.Flush()
	if len(batch) == 0 {
		return nil
	}
	return a.reduce(batch)
}

// SkippedBatches reports how many completed batches produced no result
// because they held no numeric samples.
func (a *WindowAggregator) SkippedBatches() int64 {
	return a.skippedBatches
}

func (a *WindowAggregator) reduce(batch []*stream.Event) *stream.Event {
	if len(batch) == 0 {
		return nil
	}

	samples := make([]float64, 0, len(batch))
	for _, e := range batch {
		if v, ok := e.NumericField(a.field); ok {
			samples = append(samples, v)
		}
	}

	value, err := a.compute(samples)
	if err != nil {
		a.skippedBatches++
		if a.collector != nil {
			a.collector.BatchesSkipped.Inc()
		}
		a.logger.Debug("Batch skipped",
			zap.String("field", a.field),
			zap.String("kind", a.kind.String()),
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		return nil
	}

	// The result carries the closing batch's latest event time
	result := stream.NewEvent(ResultKey, batch[len(batch)-1].Time)
	return result.WithField(a.field, stream.FloatValue(value))
}

// compute reduces the numeric samples of one batch. Every kind except
// Count is undefined over an empty sample set and reports ErrNoSamples
// instead of propagating a numeric fault.
func (a *WindowAggregator) compute(samples []float64) (float64, error) {
	if a.kind == Count {
		return float64(len(samples)), nil
	}
	if len(samples) == 0 {
		return 0, fmt.Errorf("%s over %q: %w", a.kind, a.field, ErrNoSamples)
	}

	switch a.kind {
	case Sum:
		return stats.Sum(samples)
	case Average:
		return stats.Mean(samples)
	case Min:
		return stats.Min(samples)
	case Max:
		return stats.Max(samples)
	case StdDev:
		return stats.StandardDeviation(samples)
	default:
		return 0, fmt.Errorf("unknown aggregation kind %d", a.kind)
	}
}
