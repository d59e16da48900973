package source

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/windlass-io/windlass/pkg/stream"
)

// Reserved wire fields. Everything else in the document becomes payload.
const (
	wireKeyField       = "key"
	wireTimestampField = "timestamp"
)

// decodeJSON decodes one wire message into an event. The document is a
// flat JSON object; "key" (string) and "timestamp" (Unix milliseconds)
// are lifted out, remaining fields map to payload values. A missing
// timestamp falls back to arrival time.
func decodeJSON(data []byte) (*stream.Event, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	key := ""
	if raw, ok := doc[wireKeyField]; ok {
		key = cast.ToString(raw)
	}

	ts := time.Now()
	if raw, ok := doc[wireTimestampField]; ok {
		if millis, err := cast.ToInt64E(raw); err == nil {
			ts = time.UnixMilli(millis)
		}
	}

	event := stream.NewEvent(key, ts)
	for name, raw := range doc {
		if name == wireKeyField || name == wireTimestampField {
			continue
		}
		event.Payload[name] = stream.ValueOf(raw)
	}

	return event, nil
}
