package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/pageswitch/internal/domain"
)

// GateMetrics tracks live sessions and event fan-out on the gate.
type GateMetrics struct {
	ActiveSessions prometheus.Gauge
	Subscribers    prometheus.Gauge
	EventsTotal    *prometheus.CounterVec
	DroppedEvents  prometheus.Counter
}

func NewGateMetrics(reg prometheus.Registerer) *GateMetrics {
	m := &GateMetrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "active_sessions",
			Help:      "Number of sessions with a pending expiry.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "sse_subscribers",
			Help:      "Number of connected server-sent event clients.",
		}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "session_events_total",
			Help:      "Total session events published, by kind.",
		}, []string{"kind"}),
		DroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "dropped_events_total",
			Help:      "Events not delivered because a subscriber buffer was full.",
		}),
	}

	reg.MustRegister(m.ActiveSessions, m.Subscribers, m.EventsTotal, m.DroppedEvents)
	return m
}

func (m *GateMetrics) SessionsActive(n int) { m.ActiveSessions.Set(float64(n)) }
func (m *GateMetrics) SubscribersActive(n int) { m.Subscribers.Set(float64(n)) }
func (m *GateMetrics) EventDropped() { m.DroppedEvents.Inc() }

func (m *GateMetrics) EventPublished(kind domain.SessionEventKind) {
	m.EventsTotal.WithLabelValues(string(kind)).Inc()
}
