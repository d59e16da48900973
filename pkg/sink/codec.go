package sink

import (
	"encoding/json"

	"github.com/windlass-io/windlass/pkg/stream"
)

// encodeJSON renders an event in the flat wire format shared with the
// sources: "key" and "timestamp" (Unix milliseconds) beside the payload
// fields.
func encodeJSON(event *stream.Event) ([]byte, error) {
	doc := make(map[string]interface{}, len(event.Payload)+2)
	for name, value := range event.Payload {
		doc[name] = value.Interface()
	}
	doc["key"] = event.Key
	doc["timestamp"] = event.UnixMilli()

	return json.Marshal(doc)
}
