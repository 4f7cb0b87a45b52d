package dstar

import (
	"iter"

	"github.com/bits-and-blooms/bitset"
)

// DA is a deterministic ω-automaton with a Rabin acceptance condition, or
// with the same pairs read as a Streett condition when IsStreett is set.
// States are integers created with CreateState. Every state has one
// successor per valuation; the successors are packed into a single slice
// in canonical valuation order.
type DA struct {
	aps *APSet

	// valuations per state
	width int

	// transitions[s*width+v] is the successor of s under v, -1 if unset.
	transitions []int

	descriptions []string
	start        int
	acceptance   *RabinAcceptance
	comment      string
	streett      bool
}

func NewDA(aps *APSet) *DA {
	return &DA{
		aps:        aps,
		width:      aps.NumValuations(),
		start:      -1,
		acceptance: NewRabinAcceptance(),
	}
}

func (a *DA) APSet() *APSet {
	return a.aps
}

// CreateState Create a new state.
func (a *DA) CreateState() int {
	state := a.Size()
	for i := 0; i < a.width; i++ {
		a.transitions = append(a.transitions, -1)
	}
	a.descriptions = grow(a.descriptions, state+1)
	return state
}

func (a *DA) Size() int {
	return len(a.transitions) / a.width
}

func (a *DA) SetStart(state int) {
	a.start = state
}

// Start returns the start state, -1 when none was set.
func (a *DA) Start() int {
	return a.start
}

func (a *DA) SetEdge(from int, v Valuation, to int) {
	a.transitions[from*a.width+int(v)] = to
}

// Successor returns the state reached from state under v, -1 if unset.
func (a *DA) Successor(state int, v Valuation) int {
	return a.transitions[state*a.width+int(v)]
}

// Edges yields the successor of state for every valuation.
func (a *DA) Edges(state int) iter.Seq2[Valuation, int] {
	return func(yield func(Valuation, int) bool) {
		row := a.transitions[state*a.width : (state+1)*a.width]
		for v, to := range row {
			if !yield(Valuation(v), to) {
				return
			}
		}
	}
}

// IsComplete reports whether every state has a successor for every
// valuation.
func (a *DA) IsComplete() bool {
	for _, to := range a.transitions {
		if to < 0 {
			return false
		}
	}
	return true
}

func (a *DA) Acceptance() *RabinAcceptance {
	return a.acceptance
}

func (a *DA) IsCompact() bool {
	return a.acceptance.IsCompact()
}

func (a *DA) MakeCompact() {
	a.acceptance.MakeCompact()
}

func (a *DA) SetDescription(state int, desc string) {
	a.descriptions[state] = desc
}

func (a *DA) Description(state int) string {
	return a.descriptions[state]
}

func (a *DA) HasDescription(state int) bool {
	return a.descriptions[state] != ""
}

func (a *DA) Comment() string {
	return a.comment
}

func (a *DA) SetComment(comment string) {
	a.comment = comment
}

// IsStreett reports whether the pairs are read as a Streett condition.
func (a *DA) IsStreett() bool {
	return a.streett
}

func (a *DA) ConsiderAsStreett(streett bool) {
	a.streett = streett
}

// TypeName returns "DRA" or "DSA".
func (a *DA) TypeName() string {
	if a.streett {
		return "DSA"
	}
	return "DRA"
}

// graph returns the distinct successors of every state.
func (a *DA) graph() [][]int {
	n := a.Size()
	adj := make([][]int, n)
	seen := bitset.New(uint(n))
	for s := 0; s < n; s++ {
		seen.ClearAll()
		for _, to := range a.Edges(s) {
			if to >= 0 && !seen.Test(uint(to)) {
				seen.Set(uint(to))
				adj[s] = append(adj[s], to)
			}
		}
	}
	return adj
}

// Reachable returns the states reachable from the start state.
func (a *DA) Reachable() *bitset.BitSet {
	seen := bitset.New(uint(a.Size()))
	if a.start < 0 {
		return seen
	}
	workList := []int{a.start}
	seen.Set(uint(a.start))
	for len(workList) > 0 {
		state := workList[0]
		workList = workList[1:]
		for _, to := range a.Edges(state) {
			if to >= 0 && !seen.Test(uint(to)) {
				seen.Set(uint(to))
				workList = append(workList, to)
			}
		}
	}
	return seen
}
