package dstar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSCCs(t *testing.T) {
	// 0 <-> 1 -> 2 -> 2, 3 -> 0 is not reachable from the start
	nba := buildNBA(t, MustAPSet("p"), 4, 0, nil, []testEdge{
		{0, "p", 1}, {1, "true", 0}, {1, "!p", 2}, {2, "true", 2}, {3, "true", 0},
	})
	sccs := ComputeSCCs(nba)

	assert.Equal(t, 3, sccs.Count())
	assert.Equal(t, 0, sccs.StateSCC(2))
	assert.Equal(t, 1, sccs.StateSCC(0))
	assert.Equal(t, 1, sccs.StateSCC(1))
	assert.Equal(t, 2, sccs.StateSCC(3))
	assert.Equal(t, "{0,1}", formatBits(sccs.SCC(1)))

	assert.Equal(t, "{0}", formatBits(sccs.Successors(1)))
	assert.Equal(t, "{1}", formatBits(sccs.Successors(2)))
	assert.Equal(t, "{}", formatBits(sccs.Successors(0)))

	assert.Equal(t, "{0}", formatBits(sccs.Reachable(0)))
	assert.Equal(t, "{0,1}", formatBits(sccs.Reachable(1)))
	assert.Equal(t, "{0,1}", formatBits(sccs.Reachable(2)))

	assert.False(t, sccs.IsTrivial(0))
	assert.False(t, sccs.IsTrivial(1))
	assert.True(t, sccs.IsTrivial(2))

	assert.True(t, sccs.StateIsReachable(3, 2))
	assert.True(t, sccs.StateIsReachable(0, 0))
	assert.False(t, sccs.StateIsReachable(2, 0))
	assert.False(t, sccs.StateIsReachable(3, 3))

	assert.Equal(t, []int{2, 1, 0}, sccs.TopologicalOrder())
	assert.True(t, sccs.Disjoint())
}

func TestComputeSCCsConnected(t *testing.T) {
	sccs := ComputeSCCs(nbaFGp(t))
	assert.Equal(t, 2, sccs.Count())
	assert.False(t, sccs.Disjoint())
	assert.Equal(t, 0, sccs.StateSCC(1))
	assert.Equal(t, 1, sccs.StateSCC(0))
}

func TestComputeSCCsEmpty(t *testing.T) {
	sccs := ComputeSCCs(NewNBA(MustAPSet("p")))
	assert.Equal(t, 0, sccs.Count())
	assert.False(t, sccs.Disjoint())
	assert.Empty(t, sccs.TopologicalOrder())
}

func TestComputeSCCsDeepChain(t *testing.T) {
	// long chains must not exhaust the goroutine stack
	const n = 20000
	nba := NewNBA(MustAPSet())
	for i := 0; i < n; i++ {
		nba.CreateState()
	}
	require.NoError(t, nba.SetStart(0))
	for i := 0; i < n-1; i++ {
		assert.NoError(t, nba.AddEdge(i, 0, i+1))
	}
	assert.NoError(t, nba.AddEdge(n-1, 0, 0))
	sccs := ComputeSCCs(nba)
	assert.Equal(t, 1, sccs.Count())
	assert.False(t, sccs.IsTrivial(0))
}

func TestNBAAnalysis(t *testing.T) {
	t.Run("EventuallyAlways", func(t *testing.T) {
		a := AnalyzeNBA(nbaFGp(t))
		assert.Equal(t, "{1}", formatBits(a.AllSuccessorsAccepting()))
		assert.Equal(t, "{}", formatBits(a.AcceptingTrueLoops()))
		_, ok := a.CanonicalTrueLoop()
		assert.False(t, ok)
		assert.Equal(t, "{0,1}", formatBits(a.Reachability(0)))
		assert.Equal(t, "{1}", formatBits(a.Reachability(1)))
	})

	t.Run("Eventually", func(t *testing.T) {
		a := AnalyzeNBA(nbaFq(t))
		assert.Equal(t, "{1}", formatBits(a.AcceptingTrueLoops()))
		s, ok := a.CanonicalTrueLoop()
		assert.True(t, ok)
		assert.Equal(t, 1, s)
		assert.Equal(t, "{1}", formatBits(a.AllSuccessorsAccepting()))
	})

	t.Run("TrivialPrefix", func(t *testing.T) {
		// 0 -> 1 -> 2 -> 2 with 2 accepting: 0 and 1 pass through trivial
		// components only
		nba := buildNBA(t, MustAPSet("p"), 3, 0, []int{2}, []testEdge{
			{0, "true", 1}, {1, "true", 2}, {2, "p", 2},
		})
		a := AnalyzeNBA(nba)
		assert.Equal(t, "{0,1,2}", formatBits(a.AllSuccessorsAccepting()))
		assert.Equal(t, "{}", formatBits(a.AcceptingTrueLoops()))
	})

	t.Run("Disjoint", func(t *testing.T) {
		nba := buildNBA(t, MustAPSet("p"), 2, 0, nil, []testEdge{{0, "true", 0}})
		assert.True(t, AnalyzeNBA(nba).Disjoint())
	})
}
