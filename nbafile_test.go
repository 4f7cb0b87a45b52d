package dstar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fgpDocument = `
aps: [p]
start: 0
states:
  - edges:
      - {label: "true", to: [0]}
      - {label: p, to: [1]}
  - final: true
    edges:
      - {label: p, to: [1]}
`

func assertSameNBA(t *testing.T, want, got *NBA) {
	t.Helper()
	require.True(t, want.APSet().Equal(got.APSet()))
	require.Equal(t, want.Size(), got.Size())
	ws, wok := want.Start()
	gs, gok := got.Start()
	assert.Equal(t, wok, gok)
	assert.Equal(t, ws, gs)
	for s := 0; s < want.Size(); s++ {
		assert.Equal(t, want.IsFinal(s), got.IsFinal(s), "state %d", s)
		for v := range want.APSet().Valuations() {
			assert.Equal(t, formatBits(want.Successors(s, v)), formatBits(got.Successors(s, v)), "state %d valuation %d", s, v)
		}
	}
}

func TestReadNBAYAML(t *testing.T) {
	nba, err := ReadNBAYAML(strings.NewReader(fgpDocument))
	require.NoError(t, err)
	assertSameNBA(t, nbaFGp(t), nba)
}

func TestReadNBAYAMLInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Empty", ""},
		{"Malformed", "aps: [p"},
		{"DuplicateAP", "aps: [p, p]\nstates: []"},
		{"EmptyAP", "aps: [\"\"]\nstates: []"},
		{"NegativeStart", "aps: [p]\nstart: -1\nstates: [{}]"},
		{"StartOutOfRange", "aps: [p]\nstart: 1\nstates: [{}]"},
		{"MissingLabel", "aps: [p]\nstates: [{edges: [{to: [0]}]}]"},
		{"NoTarget", "aps: [p]\nstates: [{edges: [{label: p, to: []}]}]"},
		{"NegativeTarget", "aps: [p]\nstates: [{edges: [{label: p, to: [-1]}]}]"},
		{"TargetOutOfRange", "aps: [p]\nstates: [{edges: [{label: p, to: [3]}]}]"},
		{"UnknownAP", "aps: [p]\nstates: [{edges: [{label: q, to: [0]}]}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadNBAYAML(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ErrConstruction)
		})
	}
}

func TestNBAYAMLRoundTrip(t *testing.T) {
	for _, nba := range []*NBA{nbaPUq(t), nbaGFp(t), buildNBA(t, MustAPSet(), 1, -1, []int{0}, []testEdge{{0, "true", 0}})} {
		var buf bytes.Buffer
		require.NoError(t, nba.WriteYAML(&buf))
		back, err := ReadNBAYAML(&buf)
		require.NoError(t, err, buf.String())
		assertSameNBA(t, nba, back)
	}
}
