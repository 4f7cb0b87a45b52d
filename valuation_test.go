package dstar

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPSet(t *testing.T) {
	aps, err := NewAPSet("p", "q")
	require.NoError(t, err)
	assert.Equal(t, 2, aps.Size())
	assert.Equal(t, 4, aps.NumValuations())
	assert.Equal(t, 1, aps.Index("q"))
	assert.Equal(t, -1, aps.Index("r"))
	assert.Equal(t, `2 "p" "q"`, aps.String())
	assert.Equal(t, []Valuation{0, 1, 2, 3}, slices.Collect(aps.Valuations()))
	assert.True(t, aps.Equal(MustAPSet("p", "q")))
	assert.False(t, aps.Equal(MustAPSet("q", "p")))

	t.Run("Duplicate", func(t *testing.T) {
		_, err := NewAPSet("p", "p")
		assert.ErrorIs(t, err, ErrConstruction)
	})

	t.Run("TooMany", func(t *testing.T) {
		names := make([]string, MaxAPs+1)
		for i := range names {
			names[i] = string(rune('a'+i%26)) + string(rune('a'+i/26))
		}
		_, err := NewAPSet(names...)
		assert.ErrorIs(t, err, ErrConstruction)
	})

	t.Run("Empty", func(t *testing.T) {
		aps := MustAPSet()
		assert.Equal(t, 1, aps.NumValuations())
		assert.Equal(t, "true", Valuation(0).Label(aps))
		assert.Equal(t, "t", Valuation(0).HOALabel(0))
	})
}

func TestValuationLabels(t *testing.T) {
	aps := MustAPSet("p", "q")
	tests := []struct {
		v     Valuation
		label string
		hoa   string
	}{
		{0, "!p&!q", "!0&!1"},
		{1, "p&!q", "0&!1"},
		{2, "!p&q", "!0&1"},
		{3, "p&q", "0&1"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.label, tt.v.Label(aps))
			assert.Equal(t, tt.hoa, tt.v.HOALabel(2))
		})
	}
	assert.Equal(t, Valuation(2), Valuation(0).With(1, true))
	assert.Equal(t, Valuation(1), Valuation(3).With(1, false))
}

func TestMonom(t *testing.T) {
	aps := MustAPSet("p", "q")

	tests := []struct {
		label string
		want  []Valuation
		str   string
	}{
		{"true", []Valuation{0, 1, 2, 3}, "true"},
		{"false", nil, "false"},
		{"p", []Valuation{1, 3}, "p"},
		{"!q", []Valuation{0, 1}, "!q"},
		{"p & !q", []Valuation{1}, "p&!q"},
		{"!!q", []Valuation{2, 3}, "q"},
		{"p&!p", nil, "false"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			m, err := ParseMonom(tt.label, aps)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slices.Collect(m.Valuations(aps.Size())))
			assert.Equal(t, tt.str, m.String(aps))
		})
	}

	t.Run("UnknownAP", func(t *testing.T) {
		_, err := ParseMonom("p&r", aps)
		assert.ErrorIs(t, err, ErrConstruction)
	})

	t.Run("Constants", func(t *testing.T) {
		assert.True(t, TrueMonom().IsTrue())
		assert.True(t, FalseMonom().IsFalse())
		assert.False(t, FalseMonom().Matches(0))
		assert.True(t, TrueMonom().And(0, true).Matches(1))
	})
}
