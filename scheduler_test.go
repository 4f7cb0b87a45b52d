package dstar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFormula hands out prepared NBAs.
type testFormula struct {
	name        string
	nba         *NBA
	negation    *testFormula
	left, right *testFormula
}

func (f *testFormula) String() string {
	return f.name
}

func (f *testFormula) Disjuncts() (Formula, Formula, bool) {
	if f.left == nil || f.right == nil {
		return nil, nil, false
	}
	return f.left, f.right, true
}

func (f *testFormula) Negate() Formula {
	if f.negation == nil {
		return &testFormula{name: "!" + f.name}
	}
	return f.negation
}

func (f *testFormula) ToNBA(*APSet) (*NBA, error) {
	if f.nba == nil {
		return nil, errors.New("no translation for " + f.name)
	}
	return f.nba, nil
}

func disjunction(t *testing.T, whole *NBA) *testFormula {
	return &testFormula{
		name:  "FG p | GF p",
		nba:   whole,
		left:  &testFormula{name: "FG p", nba: nbaFGp(t)},
		right: &testFormula{name: "GF p", nba: nbaGFp(t)},
	}
}

func TestSchedulerSafra(t *testing.T) {
	f := &testFormula{name: "FG p", nba: nbaFGp(t)}
	da, err := NewScheduler().Calculate(context.Background(), f, MustAPSet("p"))
	require.NoError(t, err)
	assert.Equal(t, "Safra[NBA=2]", da.Comment())
	assert.False(t, da.IsStreett())
	assertSameLanguage(t, da, nbaFGp(t))
}

func TestSchedulerUnion(t *testing.T) {
	t.Run("SafraBroken", func(t *testing.T) {
		da, err := NewScheduler().Calculate(context.Background(), disjunction(t, nil), MustAPSet("p"))
		require.NoError(t, err)
		assert.Equal(t, "Union{Safra[NBA=2],Safra[NBA=2]}", da.Comment())
		assertSameLanguage(t, da, nbaGFp(t))
	})

	t.Run("OnlyUnion", func(t *testing.T) {
		opts := DefaultOptions()
		opts.OnlyUnion = true
		da, err := NewScheduler(WithOptions(opts)).Calculate(context.Background(), disjunction(t, nbaGFp(t)), MustAPSet("p"))
		require.NoError(t, err)
		assert.Equal(t, "Union{Safra[NBA=2],Safra[NBA=2]}", da.Comment())
	})

	t.Run("NoUnion", func(t *testing.T) {
		opts := DefaultOptions()
		opts.AllowUnion = false
		da, err := NewScheduler(WithOptions(opts)).Calculate(context.Background(), disjunction(t, nbaGFp(t)), MustAPSet("p"))
		require.NoError(t, err)
		assert.Equal(t, "Safra[NBA=2]", da.Comment())
	})

	t.Run("Parallel", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Parallel = true
		opts.OptLimits = true
		opts.Automata = AutomataRabinAndStreett
		f := disjunction(t, nbaGFp(t))
		f.negation = &testFormula{name: "FG !p", nba: nbaFGnotP(t)}
		da, err := NewScheduler(WithOptions(opts)).Calculate(context.Background(), f, MustAPSet("p"))
		require.NoError(t, err)
		assertSameLanguage(t, da, nbaGFp(t))
	})
}

func TestSchedulerStreett(t *testing.T) {
	f := &testFormula{
		name:     "GF p",
		nba:      nbaGFp(t),
		negation: &testFormula{name: "FG !p", nba: nbaFGnotP(t)},
	}

	opts := DefaultOptions()
	opts.Automata = AutomataStreett
	da, err := NewScheduler(WithOptions(opts)).Calculate(context.Background(), f, MustAPSet("p"))
	require.NoError(t, err)
	assert.Equal(t, "Streett{Safra[NBA=2]}", da.Comment())
	assert.True(t, da.IsStreett())
	assert.Equal(t, "DSA", da.TypeName())
	assertSameLanguage(t, da, nbaGFp(t))

	opts.Automata = AutomataRabinAndStreett
	da, err = NewScheduler(WithOptions(opts)).Calculate(context.Background(), f, MustAPSet("p"))
	require.NoError(t, err)
	assertSameLanguage(t, da, nbaGFp(t))

	// the Rabin branch runs first and bounds the Streett branch
	tests := []struct {
		alpha   float64
		comment string
		size    int
	}{
		{0.1, "Safra[NBA=2]", 4},
		{1, "Streett{Safra[NBA=2]}", 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("Alpha%v", tt.alpha), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Automata = AutomataRabinAndStreett
			opts.OptLimits = true
			opts.Parallel = false
			opts.Alpha = tt.alpha
			da, err := NewScheduler(WithOptions(opts)).Calculate(context.Background(), f, MustAPSet("p"))
			require.NoError(t, err)
			assert.Equal(t, tt.comment, da.Comment())
			assert.Equal(t, tt.size, da.Size())
			assertSameLanguage(t, da, nbaGFp(t))
		})
	}
}

func TestSchedulerFailures(t *testing.T) {
	aps := MustAPSet("p")

	t.Run("Limit", func(t *testing.T) {
		f := &testFormula{name: "FG p", nba: nbaFGp(t)}
		_, err := NewScheduler(WithStateLimit(1)).Calculate(context.Background(), f, aps)
		assert.ErrorIs(t, err, ErrLimitReached)
	})

	t.Run("Broken", func(t *testing.T) {
		_, err := NewScheduler().Calculate(context.Background(), &testFormula{name: "?"}, aps)
		assert.ErrorIs(t, err, ErrConstruction)
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := &testFormula{name: "FG p", nba: nbaFGp(t)}
		_, err := NewScheduler().Calculate(ctx, f, aps)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSchedulerOptions(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	s := NewScheduler(WithStateLimit(5), WithLogger(logger))
	assert.Equal(t, 5, s.Options().StateLimit)
	assert.Same(t, logger, s.Options().Logger)
	assert.True(t, s.Options().Bisimulation)

	s = NewScheduler(WithOptions(Options{}), WithStateLimit(7))
	assert.False(t, s.Options().Bisimulation)
	assert.Equal(t, 7, s.Options().StateLimit)
}

func TestSchedulerLimits(t *testing.T) {
	s := NewScheduler()
	assert.Equal(t, 31, s.calcLimit(3))
	assert.Equal(t, 0, s.calcLimit(math.MaxInt32))
	assert.Equal(t, 31, s.tighten(0, 3))
	assert.Equal(t, 20, s.tighten(20, 3))
	assert.Equal(t, 31, s.tighten(40, 3))

	s = NewScheduler(WithOptions(Options{}))
	assert.Equal(t, 0, s.calcLimit(3))
	assert.Equal(t, 5, s.tighten(5, 3))

	shared := new(atomic.Int64)
	lowerLimit(shared, 10)
	assert.Equal(t, int64(10), shared.Load())
	lowerLimit(shared, 20)
	assert.Equal(t, int64(10), shared.Load())
	lowerLimit(shared, 0)
	assert.Equal(t, int64(10), shared.Load())
	lowerLimit(shared, 5)
	assert.Equal(t, int64(5), shared.Load())

	opts := Options{sharedLimits: []*atomic.Int64{shared}}
	limit, hit := opts.limitExceeded(5)
	assert.True(t, hit)
	assert.Equal(t, 5, limit)
	_, hit = opts.limitExceeded(4)
	assert.False(t, hit)
}
