package dstar

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments constructions. A nil *Metrics records nothing.
type Metrics struct {
	StatesCreated       prometheus.Counter
	Runs                *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	BisimulationRemoved prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StatesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dstar",
			Name:      "states_created_total",
			Help:      "Automaton states created by determinization and union.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dstar",
			Name:      "runs_total",
			Help:      "Determinization runs by outcome.",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dstar",
			Name:      "run_duration_seconds",
			Help:      "Duration of determinization runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		BisimulationRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dstar",
			Name:      "bisimulation_states_removed_total",
			Help:      "States merged away by bisimulation quotienting.",
		}),
	}
	for _, c := range []prometheus.Collector{m.StatesCreated, m.Runs, m.RunDuration, m.BisimulationRemoved} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) stateCreated() {
	if m != nil {
		m.StatesCreated.Inc()
	}
}

func (m *Metrics) observeRun(result string, d time.Duration) {
	if m != nil {
		m.Runs.WithLabelValues(result).Inc()
		m.RunDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) bisimulationRemoved(n int) {
	if m != nil && n > 0 {
		m.BisimulationRemoved.Add(float64(n))
	}
}
