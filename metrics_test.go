package dstar

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Metrics = m

	_, err = Determinize(nbaFGp(t), opts)
	require.NoError(t, err)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.StatesCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Runs.WithLabelValues("ok")))

	_, err = Determinize(nbaFGp(t), opts.withLimit(2))
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Runs.WithLabelValues("limit")))

	opts.NBADisjointFail = true
	disjoint := buildNBA(t, MustAPSet("p"), 2, 0, nil, []testEdge{{0, "true", 0}})
	_, err = DeterminizeContext(context.Background(), disjoint, opts)
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Runs.WithLabelValues("error")))

	_, err = Bisimulation(fourStateDA(), opts)
	require.NoError(t, err)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BisimulationRemoved))

	assert.Equal(t, 3, testutil.CollectAndCount(m.Runs))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "collectors are registered twice")
}

func TestMetricsNil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.stateCreated()
		m.observeRun("ok", 0)
		m.bisimulationRemoved(4)
	})
}
