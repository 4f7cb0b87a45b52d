package dstar

import (
	"github.com/bits-and-blooms/bitset"
)

// RunLasso reports whether da accepts the ultimately periodic word
// prefix·cycle^ω.
func RunLasso(da *DA, prefix, cycle []Valuation) (bool, error) {
	if err := checkLasso(da.APSet(), prefix, cycle); err != nil {
		return false, err
	}
	state := da.Start()
	if state < 0 {
		return false, constructionError("run on an automaton without start state")
	}
	step := func(s int, v Valuation) (int, error) {
		next := da.Successor(s, v)
		if next < 0 {
			return -1, constructionError("state %d has no successor under %s", s, v.Label(da.APSet()))
		}
		return next, nil
	}
	var err error
	for _, v := range prefix {
		if state, err = step(state, v); err != nil {
			return false, err
		}
	}

	// iterate the cycle until the state at its beginning repeats
	seen := bitset.New(uint(da.Size()))
	for !seen.Test(uint(state)) {
		seen.Set(uint(state))
		for _, v := range cycle {
			if state, err = step(state, v); err != nil {
				return false, err
			}
		}
	}

	inf := bitset.New(uint(da.Size()))
	loopStart := state
	for {
		for _, v := range cycle {
			inf.Set(uint(state))
			state, _ = step(state, v)
		}
		if state == loopStart {
			break
		}
	}

	accepted := rabinAccepts(da.Acceptance(), inf)
	if da.IsStreett() {
		return !accepted, nil
	}
	return accepted, nil
}

// rabinAccepts reports whether some pair sees inf ∩ L non-empty and
// inf ∩ U empty.
func rabinAccepts(acc *RabinAcceptance, inf *bitset.BitSet) bool {
	for i := range acc.Pairs() {
		if intersects(inf, acc.L(i)) && !intersects(inf, acc.U(i)) {
			return true
		}
	}
	return false
}

// RunLassoNBA reports whether nba accepts the ultimately periodic word
// prefix·cycle^ω.
func RunLassoNBA(nba *NBA, prefix, cycle []Valuation) (bool, error) {
	if err := checkLasso(nba.APSet(), prefix, cycle); err != nil {
		return false, err
	}
	start, ok := nba.Start()
	if !ok || nba.Size() == 0 {
		return false, nil
	}
	current := bitset.New(uint(nba.Size()))
	current.Set(uint(start))
	for _, v := range prefix {
		next := bitset.New(uint(nba.Size()))
		for s := range current.EachSet() {
			next.InPlaceUnion(nba.Successors(int(s), v))
		}
		current = next
	}

	// product of NBA states and positions in the cycle
	n, k := nba.Size(), len(cycle)
	node := func(s, pos int) int { return pos*n + s }
	adj := make([][]int, n*k)
	for pos, v := range cycle {
		for s := 0; s < n; s++ {
			for t := range nba.Successors(s, v).EachSet() {
				adj[node(s, pos)] = append(adj[node(s, pos)], node(int(t), (pos+1)%k))
			}
		}
	}
	var roots []int
	for s := range current.EachSet() {
		roots = append(roots, node(int(s), 0))
	}
	accept := func(x int) bool { return nba.IsFinal(x % n) }
	blocked := func(int) bool { return false }
	return hasAcceptingCycle(adj, roots, accept, blocked), nil
}

func checkLasso(aps *APSet, prefix, cycle []Valuation) error {
	if len(cycle) == 0 {
		return constructionError("lasso with an empty cycle")
	}
	limit := Valuation(aps.NumValuations())
	for _, v := range prefix {
		if v >= limit {
			return constructionError("valuation %d outside of %d propositions", v, aps.Size())
		}
	}
	for _, v := range cycle {
		if v >= limit {
			return constructionError("valuation %d outside of %d propositions", v, aps.Size())
		}
	}
	return nil
}
