package dstar

import (
	"github.com/bits-and-blooms/bitset"
)

// NBAAnalysis caches the predicates over NBA states used by the Safra
// construction.
type NBAAnalysis struct {
	nba              *NBA
	sccs             *SCCs
	allSuccAccepting *bitset.BitSet
	trueLoops        *bitset.BitSet
	reach            []*bitset.BitSet
}

func AnalyzeNBA(nba *NBA) *NBAAnalysis {
	sccs := ComputeSCCs(nba)
	a := &NBAAnalysis{
		nba:  nba,
		sccs: sccs,
	}
	a.computeAllSuccAccepting()
	a.computeTrueLoops()
	a.computeReachability()
	return a
}

func (a *NBAAnalysis) SCCs() *SCCs {
	return a.sccs
}

func (a *NBAAnalysis) FinalStates() *bitset.BitSet {
	return a.nba.FinalStates()
}

// AllSuccessorsAccepting returns the states from which every reachable
// state is accepting, up to trivial components.
func (a *NBAAnalysis) AllSuccessorsAccepting() *bitset.BitSet {
	return a.allSuccAccepting
}

// AcceptingTrueLoops returns the accepting states that loop to themselves
// under every valuation and have no other successor.
func (a *NBAAnalysis) AcceptingTrueLoops() *bitset.BitSet {
	return a.trueLoops
}

// CanonicalTrueLoop returns the smallest accepting true loop.
func (a *NBAAnalysis) CanonicalTrueLoop() (int, bool) {
	s, ok := a.trueLoops.NextSet(0)
	return int(s), ok
}

// Reachability returns the states reachable from state in one or more
// steps.
func (a *NBAAnalysis) Reachability(state int) *bitset.BitSet {
	return a.reach[state]
}

func (a *NBAAnalysis) Disjoint() bool {
	return a.sccs.Disjoint()
}

func (a *NBAAnalysis) computeAllSuccAccepting() {
	n := a.nba.Size()
	final := a.nba.FinalStates()
	a.allSuccAccepting = bitset.New(uint(n))

	allFinal := make([]bool, a.sccs.Count())
	// ascending ids visit successors first
	for c := 0; c < a.sccs.Count(); c++ {
		members := a.sccs.SCC(c)
		if !a.sccs.IsTrivial(c) && !subsetOf(members, final) {
			continue
		}
		ok := true
		for d := range a.sccs.Successors(c).EachSet() {
			if !allFinal[d] {
				ok = false
				break
			}
		}
		if ok {
			allFinal[c] = true
			a.allSuccAccepting.InPlaceUnion(members)
		}
	}
}

func (a *NBAAnalysis) computeTrueLoops() {
	n := a.nba.Size()
	a.trueLoops = bitset.New(uint(n))
	for c := 0; c < a.sccs.Count(); c++ {
		members := a.sccs.SCC(c)
		if members.Count() != 1 {
			continue
		}
		s, _ := members.NextSet(0)
		if !a.nba.IsFinal(int(s)) {
			continue
		}
		loop := true
		for v := range a.nba.APSet().Valuations() {
			succ := a.nba.Successors(int(s), v)
			if succ.Count() != 1 || !succ.Test(s) {
				loop = false
				break
			}
		}
		if loop {
			a.trueLoops.Set(s)
		}
	}
}

func (a *NBAAnalysis) computeReachability() {
	n := a.nba.Size()
	perSCC := make([]*bitset.BitSet, a.sccs.Count())
	for c := range perSCC {
		states := bitset.New(uint(n))
		for d := range a.sccs.Reachable(c).EachSet() {
			states.InPlaceUnion(a.sccs.SCC(int(d)))
		}
		perSCC[c] = states
	}
	a.reach = make([]*bitset.BitSet, n)
	for s := 0; s < n; s++ {
		a.reach[s] = perSCC[a.sccs.StateSCC(s)]
	}
}
