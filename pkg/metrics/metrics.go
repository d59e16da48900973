package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector holds all Prometheus metrics for the pipeline
type Collector struct {
	// Pipeline metrics
	EventsProcessed   *prometheus.CounterVec
	EventsFiltered    *prometheus.CounterVec
	EventsDropped     *prometheus.CounterVec
	ProcessingLatency *prometheus.HistogramVec
	SinkRetries       prometheus.Counter
	SinkFailures      prometheus.Counter

	// Backpressure metrics
	BackpressureRejected prometheus.Counter
	InFlight             prometheus.Gauge

	// Windowing metrics
	WindowsFired    *prometheus.CounterVec
	BatchesSkipped  prometheus.Counter
	WindowBuffered  *prometheus.GaugeVec

	// Join metrics
	JoinMatches      prometheus.Counter
	JoinOuterEmitted prometheus.Counter

	registry *prometheus.Registry
	logger   *zap.Logger
}

// NewCollector creates a collector on a private registry
func NewCollector(logger *zap.Logger) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	c.initMetrics()
	c.registerMetrics()
	return c
}

func (c *Collector) initMetrics() {
	c.EventsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "windlass_events_processed_total",
			Help: "Total number of events pulled through the pipeline",
		},
		[]string{"source"},
	)

	c.EventsFiltered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "windlass_events_filtered_total",
			Help: "Total number of events dropped by a filter step",
		},
		[]string{"operation"},
	)

	c.EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "windlass_events_dropped_total",
			Help: "Total number of events discarded before processing",
		},
		[]string{"reason"},
	)

	c.ProcessingLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "windlass_processing_latency_seconds",
			Help:    "Per-event processing latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	c.SinkRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "windlass_sink_retries_total",
			Help: "Total number of retried sink writes",
		},
	)

	c.SinkFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "windlass_sink_failures_total",
			Help: "Total number of sink writes that exhausted their retry budget",
		},
	)

	c.BackpressureRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "windlass_backpressure_rejected_total",
			Help: "Total number of events refused admission",
		},
	)

	c.InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "windlass_in_flight_events",
			Help: "Events admitted but not yet released",
		},
	)

	c.WindowsFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "windlass_windows_fired_total",
			Help: "Total number of completed window batches",
		},
		[]string{"kind"},
	)

	c.BatchesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "windlass_aggregation_batches_skipped_total",
			Help: "Completed batches with no numeric samples for the aggregation field",
		},
	)

	c.WindowBuffered = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "windlass_window_buffered_events",
			Help: "Events currently buffered in a window",
		},
		[]string{"kind"},
	)

	c.JoinMatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "windlass_join_matches_total",
			Help: "Total number of joined pairs emitted",
		},
	)

	c.JoinOuterEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "windlass_join_outer_emitted_total",
			Help: "Total number of unmatched outer-join events emitted on expiry",
		},
	)
}

func (c *Collector) registerMetrics() {
	c.registry.MustRegister(
		c.EventsProcessed,
		c.EventsFiltered,
		c.EventsDropped,
		c.ProcessingLatency,
		c.SinkRetries,
		c.SinkFailures,
		c.BackpressureRejected,
		c.InFlight,
		c.WindowsFired,
		c.BatchesSkipped,
		c.WindowBuffered,
		c.JoinMatches,
		c.JoinOuterEmitted,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Server exposes the collector over HTTP
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// NewServer creates a metrics HTTP server with /metrics and /health
func NewServer(addr string, collector *Collector, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{Addr: addr, Handler: mux},
		logger: logger,
	}
}

// Start serves in the background
func (s *Server) Start() {
	s.logger.Info("Starting metrics server", zap.String("addr", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Metrics server error", zap.Error(err))
		}
	}()
}

// Stop closes the server
func (s *Server) Stop() error {
	s.logger.Info("Stopping metrics server")
	return s.server.Close()
}
