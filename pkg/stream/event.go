package stream

import (
	"time"
)

// Event is a timestamped, keyed record flowing through the pipeline.
// Timestamps carry millisecond precision; events from a single producer
// arrive with non-decreasing timestamps, but no ordering is guaranteed
// across producers. Operators process events in call order.
type Event struct {
	Time    time.Time        // Event-time timestamp
	Key     string           // Partition / correlation key
	Payload map[string]Value // Field name -> value
}

// NewEvent creates an event with an empty payload
func NewEvent(key string, ts time.Time) *Event {
	return &Event{
		Key:     key,
		Time:    ts,
		Payload: make(map[string]Value),
	}
}

// NewEventAt creates an event timestamped at the given Unix milliseconds
func NewEventAt(key string, unixMilli int64) *Event {
	return NewEvent(key, time.UnixMilli(unixMilli))
}

// UnixMilli returns the event time as Unix milliseconds
func (e *Event) UnixMilli() int64 {
	return e.Time.UnixMilli()
}

// WithField returns a copy of the event with the field set. The receiver
// is never modified, so events already handed to a window or join buffer
// stay stable.
func (e *Event) WithField(name string, value Value) *Event {
	payload := make(map[string]Value, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[name] = value

	return &Event{
		Time:    e.Time,
		Key:     e.Key,
		Payload: payload,
	}
}

// Field returns the named payload field
func (e *Event) Field(name string) (Value, bool) {
	v, ok := e.Payload[name]
	return v, ok
}

// NumericField returns the named field coerced to float64.
// ok is false when the field is absent or non-numeric.
func (e *Event) NumericField(name string) (float64, bool) {
	v, ok := e.Payload[name]
	if !ok {
		return 0, false
	}
	return v.Float64()
}
