package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the service exports. Constructing it
// against a private registry keeps parallel tests from colliding on the
// default one.
type Metrics struct {
	ActiveStreams      prometheus.Gauge
	EmissionsTotal     *prometheus.CounterVec
	DuplicateEmissions *prometheus.CounterVec
	InjectedErrors     *prometheus.CounterVec
	StreamCompletions  *prometheus.CounterVec
	ConnectedClients   prometheus.Gauge
	EventSize          prometheus.Histogram
	RateLimitExceeded  prometheus.Counter
	WebSocketErrors    prometheus.Counter
	KafkaErrors        prometheus.Counter
}

// New registers all collectors with reg under the given namespace.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "The current number of active streams",
		}),
		EmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emissions_total",
			Help:      "Payload emissions broadcast, fresh and duplicate, per stream",
		}, []string{"stream"}),
		DuplicateEmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_emissions_total",
			Help:      "Emissions that replayed the previous payload, per stream",
		}, []string{"stream"}),
		InjectedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "injected_errors_total",
			Help:      "Simulated error events broadcast, per stream",
		}, []string{"stream"}),
		StreamCompletions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_completions_total",
			Help:      "Streams that ran out their configured duration, per stream",
		}, []string{"stream"}),
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "The current number of websocket listeners",
		}),
		EventSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_size_bytes",
			Help:      "Size of broadcast event envelopes in bytes",
			Buckets:   []float64{64, 128, 256, 512, 1024, 2048, 4096, 8192},
		}),
		RateLimitExceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_exceeded_total",
			Help:      "Number of API requests rejected by the rate limiter",
		}),
		WebSocketErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_errors_total",
			Help:      "Number of WebSocket-related errors",
		}),
		KafkaErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_errors_total",
			Help:      "Number of Kafka mirror errors",
		}),
	}
}

// NewForTesting returns a bundle registered against a throwaway registry.
func NewForTesting() *Metrics {
	return New("test", prometheus.NewRegistry())
}
