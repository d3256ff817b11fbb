package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var breakerStates = []string{"closed", "half_open", "open"}

// BreakerMetrics exposes one gauge per operation and state; exactly one
// state per operation is set to 1.
type BreakerMetrics struct {
	service string
	state   *prometheus.GaugeVec

	mu          sync.Mutex
	transitions map[string]string
}

func NewBreakerMetrics(service string, registerer prometheus.Registerer) *BreakerMetrics {
	m := &BreakerMetrics{
		service: service,
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per outbound operation.",
		}, []string{"service", "operation", "state"}),
		transitions: make(map[string]string),
	}
	if registerer != nil {
		registerer.MustRegister(m.state)
	}
	return m
}

func (m *BreakerMetrics) ObserveBreakerState(operation, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, candidate := range breakerStates {
		value := 0.0
		if candidate == state {
			value = 1
		}
		m.state.WithLabelValues(m.service, operation, candidate).Set(value)
	}
	m.transitions[operation] = state
}

// State returns the last state reported for operation.
func (m *BreakerMetrics) State(operation string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions[operation]
}
