package join

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/windlass-io/windlass/pkg/metrics"
	"github.com/windlass-io/windlass/pkg/stream"
)

// entry is a buffered event with its rendered join key and match state
type entry struct {
	event   *stream.Event
	key     string
	matched bool
}

// StreamJoin correlates two event streams over a shared time window.
//
// Each arrival joins only against the opposite buffer, so every matching
// pair is emitted exactly once, at the moment both members are buffered —
// regardless of call order. Buffers are pruned of entries older than the
// window relative to the incoming event; for the outer variants, a pruned
// entry that never matched produces one outer result at eviction time.
//
// A mutex guards both buffers so the two sides may be fed from
// independent goroutines.
type StreamJoin struct {
	config    Config
	logger    *zap.Logger
	collector *metrics.Collector

	mu    sync.Mutex
	left  []*entry
	right []*entry

	leftReceived  int64
	rightReceived int64
	matchesFound  int64
	outerEmitted  int64
}

// New creates a stream join. Configuration errors are reported here;
// Process never fails.
func New(config Config, logger *zap.Logger) (*StreamJoin, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StreamJoin{
		config: config,
		logger: logger,
	}, nil
}

// WithMetrics attaches a Prometheus collector for join observability
func (j *StreamJoin) WithMetrics(collector *metrics.Collector) *StreamJoin {
	j.collector = collector
	return j
}

// ProcessLeft feeds one event from the left stream and returns the join
// results it produced: merged pairs plus any outer results for entries
// this arrival expired.
func (j *StreamJoin) ProcessLeft(event *stream.Event) []*stream.Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.leftReceived++
	return j.process(event, &j.left, &j.right, true)
}

// ProcessRight feeds one event from the right stream
func (j *StreamJoin) ProcessRight(event *stream.Event) []*stream.Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.rightReceived++
	return j.process(event, &j.right, &j.left, false)
}

func (j *StreamJoin) process(event *stream.Event, own, opposite *[]*entry, fromLeft bool) []*stream.Event {
	results := j.prune(event.Time)

	key, ok := joinKey(event, j.config.KeyField)
	if !ok {
		// Not correlatable: nothing to buffer, nothing to match
		return results
	}

	incoming := &entry{event: event, key: key}
	*own = append(*own, incoming)

	// Join the new arrival against the opposite buffer only; pairs
	// already emitted are never rescanned.
	for _, candidate := range *opposite {
		if candidate.key != key {
			continue
		}
		if !withinWindow(event.Time, candidate.event.Time, j.config.Window) {
			continue
		}

		incoming.matched = true
		candidate.matched = true
		j.matchesFound++
		if j.collector != nil {
			j.collector.JoinMatches.Inc()
		}

		if fromLeft {
			results = append(results, j.merge(event, candidate.event))
		} else {
			results = append(results, j.merge(candidate.event, event))
		}
	}

	return results
}

// prune evicts entries older than the window relative to the incoming
// timestamp and emits outer results for never-matched evictions.
func (j *StreamJoin) prune(now time.Time) []*stream.Event {
	var results []*stream.Event

	emitLeft := j.config.Type == LeftOuter || j.config.Type == FullOuter
	emitRight := j.config.Type == RightOuter || j.config.Type == FullOuter

	j.left = j.pruneSide(j.left, now, emitLeft, false, &results)
	j.right = j.pruneSide(j.right, now, emitRight, true, &results)

	return results
}

func (j *StreamJoin) pruneSide(buffer []*entry, now time.Time, emitUnmatched, prefixed bool, results *[]*stream.Event) []*entry {
	kept := 0
	for kept < len(buffer) && now.Sub(buffer[kept].event.Time) > j.config.Window {
		expired := buffer[kept]
		kept++

		if !emitUnmatched || expired.matched {
			continue
		}

		j.outerEmitted++
		if j.collector != nil {
			j.collector.JoinOuterEmitted.Inc()
		}
		j.logger.Debug("Emitting unmatched event on expiry",
			zap.String("key", expired.key),
			zap.Time("event_time", expired.event.Time),
			zap.Bool("right_side", prefixed))

		result := stream.NewEvent(expired.event.Key, expired.event.Time)
		copyFields(result, expired.event, prefixed)
		*results = append(*results, result)
	}

	if kept == 0 {
		return buffer
	}
	return buffer[kept:]
}

// merge builds the inner-join result: left fields as-is, right fields
// prefixed to avoid collision. The result carries the later timestamp.
func (j *StreamJoin) merge(left, right *stream.Event) *stream.Event {
	ts := left.Time
	if right.Time.After(ts) {
		ts = right.Time
	}

	result := stream.NewEvent(left.Key, ts)
	copyFields(result, left, false)
	copyFields(result, right, true)
	return result
}

func copyFields(dst, src *stream.Event, prefixed bool) {
	for name, value := range src.Payload {
		if prefixed {
			name = RightFieldPrefix + name
		}
		dst.Payload[name] = value
	}
}

// Metrics returns a snapshot of join counters
func (j *StreamJoin) Metrics() Metrics {
	j.mu.Lock()
	defer j.mu.Unlock()

	return Metrics{
		LeftReceived:  j.leftReceived,
		RightReceived: j.rightReceived,
		MatchesFound:  j.matchesFound,
		OuterEmitted:  j.outerEmitted,
		LeftBuffered:  len(j.left),
		RightBuffered: len(j.right),
	}
}

func withinWindow(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= window
}
