package dstar

import (
	"iter"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// RabinAcceptance is a list of pairs (L_i, U_i) of automaton states. A run
// is accepting when for some pair it visits L_i infinitely often and U_i
// only finitely often. A Streett automaton uses the same pairs with the
// dual reading.
//
// Removed pairs leave a hole until MakeCompact is called.
type RabinAcceptance struct {
	l       []*bitset.BitSet
	u       []*bitset.BitSet
	compact bool
}

func NewRabinAcceptance() *RabinAcceptance {
	return &RabinAcceptance{compact: true}
}

func (a *RabinAcceptance) NewPair() int {
	a.l = append(a.l, bitset.New(0))
	a.u = append(a.u, bitset.New(0))
	return len(a.l) - 1
}

// NewPairs appends n pairs and returns the index of the first one.
func (a *RabinAcceptance) NewPairs(n int) int {
	first := len(a.l)
	for i := 0; i < n; i++ {
		a.NewPair()
	}
	return first
}

func (a *RabinAcceptance) RemovePair(i int) {
	if a.l[i] == nil {
		return
	}
	a.l[i], a.u[i] = nil, nil
	a.compact = false
}

func (a *RabinAcceptance) IsCompact() bool {
	return a.compact
}

// MakeCompact closes the holes left by removed pairs.
func (a *RabinAcceptance) MakeCompact() {
	if a.compact {
		return
	}
	j := 0
	for i := range a.l {
		if a.l[i] == nil {
			continue
		}
		a.l[j], a.u[j] = a.l[i], a.u[i]
		j++
	}
	clear(a.l[j:])
	clear(a.u[j:])
	a.l, a.u = a.l[:j], a.u[:j]
	a.compact = true
}

// Size returns the number of pairs. The condition must be compact.
func (a *RabinAcceptance) Size() int {
	invariant(a.compact, "size of a non-compact acceptance condition")
	return len(a.l)
}

// Count returns the number of live pairs.
func (a *RabinAcceptance) Count() int {
	n := 0
	for _, l := range a.l {
		if l != nil {
			n++
		}
	}
	return n
}

// Pairs yields the indexes of live pairs.
func (a *RabinAcceptance) Pairs() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, l := range a.l {
			if l != nil && !yield(i) {
				return
			}
		}
	}
}

// L returns the states of L_i, nil for a removed pair.
func (a *RabinAcceptance) L(i int) *bitset.BitSet {
	return a.l[i]
}

// U returns the states of U_i, nil for a removed pair.
func (a *RabinAcceptance) U(i int) *bitset.BitSet {
	return a.u[i]
}

func (a *RabinAcceptance) InL(pair, state int) bool {
	return a.l[pair] != nil && a.l[pair].Test(uint(state))
}

func (a *RabinAcceptance) InU(pair, state int) bool {
	return a.u[pair] != nil && a.u[pair].Test(uint(state))
}

// SetSignature colors state according to sig, pair i of the signature
// being pair offset+i of the condition.
func (a *RabinAcceptance) SetSignature(state int, sig RabinSignature, offset int) {
	for i := 0; i < sig.Size(); i++ {
		switch sig.Color(i) {
		case RabinGreen:
			a.l[offset+i].Set(uint(state))
		case RabinRed:
			a.u[offset+i].Set(uint(state))
		}
	}
}

// StateSignature returns the colors of state over all pairs. The condition
// must be compact.
func (a *RabinAcceptance) StateSignature(state int) RabinSignature {
	sig := NewRabinSignature(a.Size())
	for i := range a.l {
		switch {
		case a.l[i].Test(uint(state)):
			sig.SetColor(i, RabinGreen)
		case a.u[i].Test(uint(state)):
			sig.SetColor(i, RabinRed)
		}
	}
	return sig
}

// MoveStates renumbers states: state s becomes mapping[s], a negative
// entry drops it. States may only move to lower ids.
func (a *RabinAcceptance) MoveStates(mapping []int) error {
	for s, to := range mapping {
		if to > s {
			return constructionError("cannot move state %d to %d", s, to)
		}
	}
	a.MakeCompact()
	move := func(set *bitset.BitSet) *bitset.BitSet {
		out := bitset.New(set.Len())
		for s := range set.EachSet() {
			if int(s) < len(mapping) && mapping[s] >= 0 {
				out.Set(uint(mapping[s]))
			}
		}
		return out
	}
	for i := range a.l {
		a.l[i] = move(a.l[i])
		a.u[i] = move(a.u[i])
	}
	return nil
}

func (a *RabinAcceptance) Clone() *RabinAcceptance {
	c := &RabinAcceptance{
		l:       make([]*bitset.BitSet, len(a.l)),
		u:       make([]*bitset.BitSet, len(a.u)),
		compact: a.compact,
	}
	for i := range a.l {
		if a.l[i] != nil {
			c.l[i] = a.l[i].Clone()
			c.u[i] = a.u[i].Clone()
		}
	}
	return c
}

func (a *RabinAcceptance) String() string {
	var sb strings.Builder
	for i := range a.Pairs() {
		sb.WriteString("(")
		sb.WriteString(formatBits(a.l[i]))
		sb.WriteString(", ")
		sb.WriteString(formatBits(a.u[i]))
		sb.WriteString(")")
	}
	return sb.String()
}
