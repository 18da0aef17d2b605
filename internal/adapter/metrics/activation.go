package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/pageswitch/internal/domain"
)

// ActivationMetrics tracks activations forwarded to the gate.
type ActivationMetrics struct {
	Total    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewActivationMetrics(reg prometheus.Registerer) *ActivationMetrics {
	m := &ActivationMetrics{
		Total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activation",
			Name:      "forwarded_total",
			Help:      "Total page activations forwarded to the gate, by page and outcome.",
		}, []string{"page", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "activation",
			Name:      "gate_call_duration_seconds",
			Help:      "Duration of the outbound gate call in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"page"}),
	}

	reg.MustRegister(m.Total, m.Duration)
	return m
}

func (m *ActivationMetrics) ObserveActivation(page string, status domain.ActivationStatus, d time.Duration) {
	m.Total.WithLabelValues(page, string(status)).Inc()
	m.Duration.WithLabelValues(page).Observe(d.Seconds())
}
