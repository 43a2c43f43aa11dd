package reflist

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a set of prometheus collectors shared by the lists created with
// WithMetrics. A nil *Metrics records nothing.
type Metrics struct {
	retains  prometheus.Counter
	releases prometheus.Counter
	items    prometheus.Gauge
	failures *prometheus.CounterVec
}

// NewMetrics creates list metrics and registers them in reg, it panics if
// registration fails (like prometheus.MustRegister does).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		retains: prometheus.NewCounter(
			prometheus.CounterOpts{
				Help:      "Number of items retained by lists",
				Name:      "item_retains_total",
				Subsystem: "reflist",
				Namespace: "midikit",
			},
		),
		releases: prometheus.NewCounter(
			prometheus.CounterOpts{
				Help:      "Number of items released by lists",
				Name:      "item_releases_total",
				Subsystem: "reflist",
				Namespace: "midikit",
			},
		),
		items: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Help:      "Number of entries currently stored in lists",
				Name:      "items",
				Subsystem: "reflist",
				Namespace: "midikit",
			},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Number of failed list operations",
				Name:      "failures_total",
				Subsystem: "reflist",
				Namespace: "midikit",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.retains, m.releases, m.items, m.failures)
	return m
}

func (m *Metrics) itemRetained() {
	if m == nil {
		return
	}
	m.retains.Inc()
	m.items.Inc()
}

func (m *Metrics) itemReleased() {
	if m == nil {
		return
	}
	m.releases.Inc()
	m.items.Dec()
}

func (m *Metrics) failed(k Kind) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(k.String()).Inc()
}
