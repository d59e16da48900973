package stream

// TransformFunc rewrites one event into another
type TransformFunc func(*Event) *Event

// FilterFunc is a predicate deciding whether an event continues
type FilterFunc func(*Event) bool

// MapOperation applies a transformation to every event
type MapOperation struct {
	name      string
	transform TransformFunc
}

// NewMapOperation creates a map step
func NewMapOperation(name string, transform TransformFunc) *MapOperation {
	return &MapOperation{name: name, transform: transform}
}

// Apply transforms the event. A nil result from the transform drops it.
func (m *MapOperation) Apply(event *Event) (*Event, bool) {
	result := m.transform(event)
	if result == nil {
		return nil, false
	}
	return result, true
}

// Name identifies the operation
func (m *MapOperation) Name() string {
	return m.name
}

// FilterOperation drops events failing a predicate
type FilterOperation struct {
	name      string
	predicate FilterFunc
}

// NewFilterOperation creates a filter step
func NewFilterOperation(name string, predicate FilterFunc) *FilterOperation {
	return &FilterOperation{name: name, predicate: predicate}
}

// Apply passes the event through unchanged or drops it
func (f *FilterOperation) Apply(event *Event) (*Event, bool) {
	if f.predicate(event) {
		return event, true
	}
	return nil, false
}

// Name identifies the operation
func (f *FilterOperation) Name() string {
	return f.name
}
