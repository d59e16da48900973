package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollectorExposesMetrics(t *testing.T) {
	c := NewCollector(zap.NewNop())

	c.EventsProcessed.WithLabelValues("test-source").Inc()
	c.EventsDropped.WithLabelValues("backpressure").Add(2)
	c.InFlight.Set(5)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `windlass_events_processed_total{source="test-source"} 1`)
	assert.Contains(t, body, `windlass_events_dropped_total{reason="backpressure"} 2`)
	assert.Contains(t, body, "windlass_in_flight_events 5")
}

func TestCollectorsUsePrivateRegistries(t *testing.T) {
	// Two collectors must not collide on registration.
	NewCollector(zap.NewNop())
	assert.NotPanics(t, func() {
		NewCollector(zap.NewNop())
	})
}
