package dstar

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// OptimizeAcceptance removes the states of U_i from L_i, drops pairs whose
// L_i becomes empty and compacts the condition.
func (a *DA) OptimizeAcceptance() {
	acc := a.acceptance
	pairs := slices.Collect(acc.Pairs())
	for _, i := range pairs {
		acc.L(i).InPlaceDifference(acc.U(i))
		if acc.L(i).None() {
			acc.RemovePair(i)
		}
	}
	acc.MakeCompact()
}

// IsEmpty reports whether the automaton, read as a Rabin automaton, accepts
// no word.
func (a *DA) IsEmpty() (bool, error) {
	if a.streett {
		return false, constructionError("emptiness check of a Streett automaton")
	}
	if a.start < 0 {
		return true, nil
	}
	adj := a.graph()
	reach := a.Reachable()
	acc := a.acceptance
	for i := range acc.Pairs() {
		l, u := acc.L(i), acc.U(i)
		var roots []int
		for s := range reach.EachSet() {
			if !u.Test(s) {
				roots = append(roots, int(s))
			}
		}
		accept := func(s int) bool { return l.Test(uint(s)) }
		blocked := func(s int) bool { return u.Test(uint(s)) }
		if hasAcceptingCycle(adj, roots, accept, blocked) {
			return false, nil
		}
	}
	return true, nil
}

// acceptingTrueLoops returns the states looping to themselves on every
// valuation that are accepting by themselves for some pair.
func (a *DA) acceptingTrueLoops() *bitset.BitSet {
	loops := bitset.New(uint(a.Size()))
	for s := 0; s < a.Size(); s++ {
		selfLoop := true
		for _, to := range a.Edges(s) {
			if to != s {
				selfLoop = false
				break
			}
		}
		if !selfLoop {
			continue
		}
		for i := range a.acceptance.Pairs() {
			if a.acceptance.InL(i, s) && !a.acceptance.InU(i, s) {
				loops.Set(uint(s))
				break
			}
		}
	}
	return loops
}

type productState struct {
	a, b int
}

// Union builds a Rabin automaton accepting the words accepted by a or b.
// The product keeps the pairs of a followed by the pairs of b.
func Union(a, b *DA, opts Options) (*DA, error) {
	if a.IsStreett() || b.IsStreett() {
		return nil, constructionError("union of Streett automata")
	}
	if !a.APSet().Equal(b.APSet()) {
		return nil, constructionError("union of automata over different atomic propositions")
	}
	if a.Start() < 0 || b.Start() < 0 {
		return nil, constructionError("union of automata without start state")
	}
	a.MakeCompact()
	b.MakeCompact()

	logger := opts.logger()
	accA, accB := a.Acceptance(), b.Acceptance()
	pairsA, pairsB := accA.Size(), accB.Size()

	out := NewDA(a.APSet())
	out.Acceptance().NewPairs(pairsA + pairsB)
	acc := out.Acceptance()

	var loopsA, loopsB *bitset.BitSet
	if opts.UnionTrueLoop {
		loopsA, loopsB = a.acceptingTrueLoops(), b.acceptingTrueLoops()
	}
	isLoop := func(p productState) bool {
		return loopsA != nil && (loopsA.Test(uint(p.a)) || loopsB.Test(uint(p.b)))
	}

	index := make(map[productState]int)
	sink := -1
	var queue []productState

	add := func(p productState) (int, error) {
		if id, ok := index[p]; ok {
			return id, nil
		}
		loop := isLoop(p)
		if loop && sink >= 0 {
			index[p] = sink
			return sink, nil
		}
		if limit, hit := opts.limitExceeded(out.Size()); hit {
			return -1, &LimitError{Limit: limit, States: out.Size()}
		}
		id := out.CreateState()
		opts.Metrics.stateCreated()
		for i := 0; i < pairsA; i++ {
			if accA.InL(i, p.a) {
				acc.L(i).Set(uint(id))
			}
			if accA.InU(i, p.a) {
				acc.U(i).Set(uint(id))
			}
		}
		for j := 0; j < pairsB; j++ {
			if accB.InL(j, p.b) {
				acc.L(pairsA + j).Set(uint(id))
			}
			if accB.InU(j, p.b) {
				acc.U(pairsA + j).Set(uint(id))
			}
		}
		if opts.DetailedStates {
			out.SetDescription(id, "("+a.Description(p.a)+", "+b.Description(p.b)+")")
		}
		index[p] = id
		if loop {
			sink = id
			for v := range out.APSet().Valuations() {
				out.SetEdge(id, v, id)
			}
		} else {
			queue = append(queue, p)
		}
		return id, nil
	}

	start, err := add(productState{a.Start(), b.Start()})
	if err != nil {
		return nil, err
	}
	out.SetStart(start)

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		from := index[p]
		for v := range out.APSet().Valuations() {
			to, err := add(productState{a.Successor(p.a, v), b.Successor(p.b, v)})
			if err != nil {
				return nil, err
			}
			out.SetEdge(from, v, to)
		}
	}

	logger.Debug("union finished",
		"left", a.Size(),
		"right", b.Size(),
		"states", out.Size(),
		"pairs", acc.Size())
	return out, nil
}
