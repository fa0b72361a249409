package realtime

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes registry state to Prometheus. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	users       prometheus.Gauge
	channels    prometheus.Gauge
	frames      *prometheus.CounterVec
	unreachable prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "contestpush",
			Name:      "connected_users",
			Help:      "Distinct users with at least one live push channel.",
		}),
		channels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "contestpush",
			Name:      "open_channels",
			Help:      "Live push channels across all users.",
		}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contestpush",
			Name:      "frames_total",
			Help:      "Frames handed to channels, by result.",
		}, []string{"result"}),
		unreachable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "contestpush",
			Name:      "unreachable_sends_total",
			Help:      "SendToUser calls for users with no live channel.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.users, m.channels, m.frames, m.unreachable)
	}
	return m
}

func (m *Metrics) setConnections(c ConnectionCount) {
	if m == nil {
		return
	}
	m.users.Set(float64(c.Users))
	m.channels.Set(float64(c.Channels))
}

func (m *Metrics) frameWritten(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.frames.WithLabelValues("delivered").Inc()
		return
	}
	m.frames.WithLabelValues("failed").Inc()
}

func (m *Metrics) sendUnreachable() {
	if m == nil {
		return
	}
	m.unreachable.Inc()
}
