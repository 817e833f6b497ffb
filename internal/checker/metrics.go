package checker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes exploration progress as prometheus collectors.
type Metrics struct {
	StatesDiscovered prometheus.Counter
	Transitions      prometheus.Counter
	Discoveries      *prometheus.CounterVec
	FrontierSize     prometheus.Gauge
}

// NewMetrics creates unregistered collectors. Register them with
// Collectors or pass a registry to MustRegister.
func NewMetrics() *Metrics {
	return &Metrics{
		StatesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "states_discovered_total",
			Help:      "Number of unique states inserted into the visited set",
			Namespace: "mealy",
			Subsystem: "checker",
		}),
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name:      "transitions_total",
			Help:      "Number of transitions computed",
			Namespace: "mealy",
			Subsystem: "checker",
		}),
		Discoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "discoveries_total",
			Help:      "Number of property discoveries",
			Namespace: "mealy",
			Subsystem: "checker",
		}, []string{"property", "classification"}),
		FrontierSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:      "frontier_size",
			Help:      "Number of states waiting to be expanded",
			Namespace: "mealy",
			Subsystem: "checker",
		}),
	}
}

// Collectors returns every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StatesDiscovered,
		m.Transitions,
		m.Discoveries,
		m.FrontierSize,
	}
}

// MustRegister registers every collector with reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.Collectors()...)
}

// Helpers below are no-ops on a nil receiver.

func (m *Metrics) stateDiscovered() {
	if m != nil {
		m.StatesDiscovered.Inc()
	}
}

func (m *Metrics) transition() {
	if m != nil {
		m.Transitions.Inc()
	}
}

func (m *Metrics) discovery(property string, c Classification) {
	if m != nil {
		m.Discoveries.WithLabelValues(property, string(c)).Inc()
	}
}

func (m *Metrics) frontier(n int) {
	if m != nil {
		m.FrontierSize.Set(float64(n))
	}
}
