package join

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/windlass-io/windlass/pkg/stream"
)

// Type defines which unmatched sides a join emits
type Type int

const (
	// Inner emits only matching pairs from both streams
	Inner Type = iota
	// LeftOuter additionally emits left events whose retention window
	// expired without a match
	LeftOuter
	// RightOuter additionally emits unmatched expired right events
	RightOuter
	// FullOuter emits unmatched expired events from both sides
	FullOuter
)

// String returns string representation of the join type
func (t Type) String() string {
	switch t {
	case Inner:
		return "INNER"
	case LeftOuter:
		return "LEFT_OUTER"
	case RightOuter:
		return "RIGHT_OUTER"
	case FullOuter:
		return "FULL_OUTER"
	default:
		return "UNKNOWN"
	}
}

// RightFieldPrefix disambiguates right-side fields in merged events
const RightFieldPrefix = "right_"

// Configuration errors surface at construction, never during Process.
var (
	ErrInvalidWindow = errors.New("join window must be positive")
	ErrEmptyKeyField = errors.New("join key field must not be empty")
)

// Config configures a two-stream join
type Config struct {
	// KeyField is the payload field events are correlated on
	KeyField string

	// Window bounds |left.Time - right.Time| for a match, and is also
	// the retention span of each buffer
	Window time.Duration

	// Type of join
	Type Type
}

// Validate rejects malformed configuration
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("join configuration: %w", ErrInvalidWindow)
	}
	if c.KeyField == "" {
		return fmt.Errorf("join configuration: %w", ErrEmptyKeyField)
	}
	return nil
}

// Metrics is a snapshot of join counters
type Metrics struct {
	LeftReceived  int64
	RightReceived int64
	MatchesFound  int64
	OuterEmitted  int64
	LeftBuffered  int
	RightBuffered int
}

// joinKey renders the correlation field as a comparable string.
// List and map values are not joinable; events carrying them (or missing
// the field) never match and never produce outer results.
func joinKey(event *stream.Event, field string) (string, bool) {
	v, ok := event.Field(field)
	if !ok {
		return "", false
	}

	switch v.Kind() {
	case stream.KindList, stream.KindMap:
		return "", false
	default:
		return v.Kind().String() + ":" + cast.ToString(v.Interface()), true
	}
}
