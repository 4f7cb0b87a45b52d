package dstar

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionSets() map[string]Options {
	exact := DefaultOptions()
	exact.Rename = false
	plain := DefaultOptions()
	plain.Reorder = false
	plain.AcceptingSuccessors = false
	plain.AcceptingTrueLoop = false
	return map[string]Options{
		"Default": DefaultOptions(),
		"None":    {},
		"Exact":   exact,
		"Plain":   plain,
	}
}

func TestDeterminizeUniversal(t *testing.T) {
	da, err := NBA2DRA(context.Background(), nbaAll(t), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, da.Size())
	assert.Equal(t, 0, da.Start())
	assert.Equal(t, 1, da.Acceptance().Size())
	assert.Equal(t, "{0}", formatBits(da.Acceptance().L(0)))
	assert.Equal(t, "{}", formatBits(da.Acceptance().U(0)))
	for v, to := range da.Edges(0) {
		assert.Equal(t, 0, to, "valuation %d", v)
	}
}

func TestDeterminizeEventuallyAlways(t *testing.T) {
	nba := nbaFGp(t)

	t.Run("Raw", func(t *testing.T) {
		da, err := Determinize(nba, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 3, da.Size())
		assert.Equal(t, 4, da.Acceptance().Size())
		// state 2 holds the final child with id 1
		assert.True(t, da.Acceptance().InL(1, 2))
		assert.True(t, da.Acceptance().InU(1, 0))
		assert.True(t, da.Acceptance().InU(1, 1))
		assert.Equal(t, 0, da.Successor(2, 0))
		assert.Equal(t, 2, da.Successor(2, 1))
		assertSameLanguage(t, da, nba)
	})

	t.Run("Optimized", func(t *testing.T) {
		da, err := NBA2DRA(context.Background(), nba, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 3, da.Size())
		assert.Equal(t, 1, da.Acceptance().Size())
		assertSameLanguage(t, da, nba)
	})
}

func TestDeterminizeEventually(t *testing.T) {
	da, err := NBA2DRA(context.Background(), nbaFq(t), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, da.Size())
	assert.Equal(t, 1, da.Acceptance().Size())
	assertSameLanguage(t, da, nbaFq(t))
}

func TestDeterminizeLanguage(t *testing.T) {
	fixtures := map[string]func(*testing.T) *NBA{
		"FGp":    nbaFGp,
		"GFp":    nbaGFp,
		"FGnotP": nbaFGnotP,
		"PUq":    nbaPUq,
		"Fq":     nbaFq,
		"All":    nbaAll,
	}
	for name, build := range fixtures {
		for optName, opts := range optionSets() {
			t.Run(name+"/"+optName, func(t *testing.T) {
				nba := build(t)
				raw, err := Determinize(nba, opts)
				require.NoError(t, err)
				assert.True(t, raw.IsComplete())
				assertSameLanguage(t, raw, nba)

				da, err := NBA2DRA(context.Background(), nba, opts)
				require.NoError(t, err)
				assertSameLanguage(t, da, nba)
			})
		}
	}
}

func TestDeterminizeRandom(t *testing.T) {
	for seed := uint64(1); seed <= 30; seed++ {
		r := rand.New(rand.NewPCG(seed, 17))
		aps := MustAPSet("p")
		if seed%5 == 0 {
			aps = MustAPSet("p", "q")
		}
		nba := randomNBA(r, aps, 1+r.IntN(4))
		for optName, opts := range optionSets() {
			da, err := NBA2DRA(context.Background(), nba, opts)
			require.NoError(t, err, "seed %d options %s", seed, optName)
			assertSameLanguage(t, da, nba)
		}
	}
}

func TestDeterminizeDeterministic(t *testing.T) {
	r := rand.New(rand.NewPCG(4, 2))
	nba := randomNBA(r, MustAPSet("p", "q"), 4)
	opts := DefaultOptions()
	opts.DetailedStates = true

	render := func() string {
		da, err := NBA2DRA(context.Background(), nba, opts)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, da.WriteV2Explicit(&buf))
		return buf.String()
	}
	first := render()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, render())
	}
}

func TestDeterminizeDetailedStates(t *testing.T) {
	opts := DefaultOptions()
	opts.DetailedStates = true
	da, err := Determinize(nbaFGp(t), opts)
	require.NoError(t, err)
	assert.Equal(t, "0{0}", da.Description(0))
	assert.Equal(t, "0{0,1}", da.Description(1))
	assert.Equal(t, "0{0,1}(1{1}!)", da.Description(2))
}

func TestDeterminizeEmpty(t *testing.T) {
	t.Run("NoStates", func(t *testing.T) {
		da, err := Determinize(NewNBA(MustAPSet("p")), DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 1, da.Size())
		assert.Equal(t, 0, da.Acceptance().Size())
		accepted, err := RunLasso(da, nil, []Valuation{1})
		require.NoError(t, err)
		assert.False(t, accepted)
	})

	t.Run("NoStart", func(t *testing.T) {
		nba := buildNBA(t, MustAPSet("p"), 1, -1, []int{0}, []testEdge{{0, "true", 0}})
		da, err := Determinize(nba, DefaultOptions())
		require.NoError(t, err)
		empty, err := da.IsEmpty()
		require.NoError(t, err)
		assert.True(t, empty)
	})
}

func TestDeterminizeLimit(t *testing.T) {
	opts := DefaultOptions().withLimit(2)
	_, err := Determinize(nbaFGp(t), opts)
	require.ErrorIs(t, err, ErrLimitReached)
	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 2, limitErr.Limit)
	assert.Equal(t, 2, limitErr.States)

	da, err := Determinize(nbaFGp(t), DefaultOptions().withLimit(3))
	require.NoError(t, err)
	assert.Equal(t, 3, da.Size())
}

func TestDeterminizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DeterminizeContext(ctx, nbaFGp(t), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)

	// a single state needs no check
	_, err = DeterminizeContext(ctx, nbaAll(t), DefaultOptions())
	assert.NoError(t, err)
}
