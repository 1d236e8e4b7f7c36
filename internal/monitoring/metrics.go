package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/bridge-relayer/internal/model"
)

// ExternalAPIMetrics contains all metrics for chain adapter calls
type ExternalAPIMetrics struct {
	apiDuration         *prometheus.HistogramVec
	apiCalls            *prometheus.CounterVec
	circuitBreakerState *prometheus.GaugeVec
	timeouts            *prometheus.CounterVec
}

func NewExternalAPIMetrics() *ExternalAPIMetrics {
	return &ExternalAPIMetrics{
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_relayer_external_api_duration_seconds",
				Help:    "Duration of chain adapter calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api_name", "endpoint", "status"},
		),

		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_relayer_external_api_calls_total",
				Help: "Total number of chain adapter calls",
			},
			[]string{"api_name", "status"},
		),

		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bridge_relayer_circuit_breaker_state",
				Help: "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"api_name"},
		),

		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_relayer_external_api_timeouts_total",
				Help: "Total number of chain adapter timeouts",
			},
			[]string{"api_name", "timeout_type"},
		),
	}
}

func (m *ExternalAPIMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.apiDuration,
		m.apiCalls,
		m.circuitBreakerState,
		m.timeouts,
	)
}

func (m *ExternalAPIMetrics) RecordAPICall(apiName, endpoint, status string, duration float64) {
	m.apiDuration.WithLabelValues(apiName, endpoint, status).Observe(duration)
	m.apiCalls.WithLabelValues(apiName, status).Inc()
}

func (m *ExternalAPIMetrics) UpdateCircuitBreakerState(apiName string, state gobreaker.State) {
	m.circuitBreakerState.WithLabelValues(apiName).Set(float64(state))
}

func (m *ExternalAPIMetrics) RecordTimeout(apiName, timeoutType string) {
	m.timeouts.WithLabelValues(apiName, timeoutType).Inc()
}

// IntentMetrics counts intent lifecycle events. It satisfies controller.Observer.
type IntentMetrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

func NewIntentMetrics() *IntentMetrics {
	return &IntentMetrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_relayer_intent_transitions_total",
				Help: "Intent status transitions",
			},
			[]string{"from", "to"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_relayer_intent_failures_total",
				Help: "Intents moved to failed, by error kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *IntentMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.transitions, m.failures)
}

func (m *IntentMetrics) ObserveTransition(from, to model.IntentStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *IntentMetrics) ObserveFailure(kind string) {
	m.failures.WithLabelValues(kind).Inc()
}
