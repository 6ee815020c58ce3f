package screening

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Symbol outcomes recorded by Metrics.
const (
	OutcomeCompliant    = "compliant"
	OutcomeNonCompliant = "non_compliant"
	OutcomeNotFound     = "not_found"
	OutcomeTimeout      = "timeout"
	OutcomeCancelled    = "cancelled"
	OutcomeError        = "error"
	OutcomePanic        = "panic"
)

// Metrics are the screening collectors. A nil *Metrics records nothing.
type Metrics struct {
	symbols  *prometheus.CounterVec
	duration prometheus.Histogram
	batches  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		symbols: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ihsan",
			Subsystem: "screening",
			Name:      "symbols_total",
			Help:      "Screened symbols by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ihsan",
			Subsystem: "screening",
			Name:      "symbol_duration_seconds",
			Help:      "Time to fetch, normalize and classify one symbol.",
			Buckets:   prometheus.DefBuckets,
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ihsan",
			Subsystem: "screening",
			Name:      "batches_total",
			Help:      "Screening batches started.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.symbols, m.duration, m.batches)
	}
	return m
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.symbols.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) batch() {
	if m == nil {
		return
	}
	m.batches.Inc()
}
