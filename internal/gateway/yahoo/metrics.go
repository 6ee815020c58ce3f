package yahoo

import (
	"strconv"

	"ihsan/internal/pkg/circuit"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the provider-side collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	breaker  prometheus.Gauge
}

// NewMetrics creates and registers the provider collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ihsan",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Upstream market-data requests by endpoint and HTTP status.",
		}, []string{"endpoint", "status"}),
		breaker: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ihsan",
			Subsystem: "provider",
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.breaker)
	}
	return m
}

func (m *Metrics) observeRequest(endpoint string, status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(endpoint, label).Inc()
}

func (m *Metrics) observeBreaker(_ string, _, to circuit.State) {
	if m == nil {
		return
	}
	m.breaker.Set(float64(to))
}
