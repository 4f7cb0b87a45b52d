package dstar

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(l ...string) string {
	return strings.Join(append(l, ""), "\n")
}

func TestWriteV2Explicit(t *testing.T) {
	t.Run("Universal", func(t *testing.T) {
		da, err := NBA2DRA(context.Background(), nbaAll(t), DefaultOptions())
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, da.WriteV2Explicit(&buf))
		assert.Equal(t, lines(
			"DRA v2 explicit",
			"States: 1",
			"Acceptance-Pairs: 1",
			"Start: 0",
			`AP: 1 "p"`,
			"---",
			"State: 0",
			"Acc-Sig: +0",
			"0",
			"0",
		), buf.String())
	})

	t.Run("Toggle", func(t *testing.T) {
		da := twoStateDA()
		da.SetComment("toggle")
		da.SetDescription(1, "odd")
		da.Acceptance().U(0).Set(0)
		da.ConsiderAsStreett(true)
		var buf bytes.Buffer
		require.NoError(t, da.WriteV2Explicit(&buf))
		assert.Equal(t, lines(
			"DSA v2 explicit",
			`Comment: "toggle"`,
			"States: 2",
			"Acceptance-Pairs: 1",
			"Start: 0",
			`AP: 1 "p"`,
			"---",
			"State: 0",
			"Acc-Sig: -0",
			"0",
			"1",
			`State: 1 "odd"`,
			"Acc-Sig: +0",
			"1",
			"0",
		), buf.String())
	})

	t.Run("NotPrintable", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorIs(t, NewDA(MustAPSet("p")).WriteV2Explicit(&buf), ErrConstruction)

		da := twoStateDA()
		da.Acceptance().NewPair()
		da.Acceptance().RemovePair(1)
		assert.ErrorIs(t, da.WriteV2Explicit(&buf), ErrConstruction)
	})
}

func TestHOAAcceptance(t *testing.T) {
	assert.Equal(t, "f", HOAAcceptance(0))
	assert.Equal(t, "(Fin(0)&Inf(1))", HOAAcceptance(1))
	assert.Equal(t, "(Fin(0)&Inf(1))|(Fin(2)&Inf(3))", HOAAcceptance(2))
}

func TestWriteHOA(t *testing.T) {
	da := twoStateDA()
	da.SetComment("toggle")
	var buf bytes.Buffer
	require.NoError(t, da.WriteHOA(&buf))
	assert.Equal(t, lines(
		"HOA: v1",
		`name: "toggle"`,
		"States: 2",
		"Start: 0",
		`AP: 1 "p"`,
		"acc-name: Rabin 1",
		"Acceptance: 2 (Fin(0)&Inf(1))",
		"properties: trans-labels explicit-labels state-acc complete deterministic",
		"--BODY--",
		"State: 0",
		"[!0] 0",
		"[0] 1",
		"State: 1 {1}",
		"[!0] 1",
		"[0] 0",
		"--END--",
	), buf.String())

	t.Run("NoPairs", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, new(Automata).MakeEmpty(MustAPSet()).WriteHOA(&buf))
		assert.Contains(t, buf.String(), "Acceptance: 0 f\n")
		assert.Contains(t, buf.String(), "[t] 0\n")
	})

	t.Run("Streett", func(t *testing.T) {
		da := twoStateDA()
		da.ConsiderAsStreett(true)
		assert.ErrorIs(t, da.WriteHOA(&bytes.Buffer{}), ErrConstruction)
	})
}

func TestWriteDot(t *testing.T) {
	da := twoStateDA()
	da.SetDescription(0, "even")
	var buf bytes.Buffer
	require.NoError(t, da.WriteDot(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph da {\n"))
	assert.Contains(t, out, ` 0 [label="0\neven"];`)
	assert.Contains(t, out, ` 1 [label="1\n+0"];`)
	assert.Contains(t, out, " init -> 0;")
	assert.Contains(t, out, ` 0 -> 1 [label="p"];`)
	assert.Contains(t, out, ` 1 -> 1 [label="!p"];`)
}
