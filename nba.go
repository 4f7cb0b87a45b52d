package dstar

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/bits-and-blooms/bitset"
)

// noSuccessors is returned for missing edges. It must not be modified.
var noSuccessors = bitset.New(0)

// NBA is a nondeterministic Büchi automaton with state-based acceptance.
// States are numbered 0..Size()-1. Edges are kept per valuation as a set of
// successor states.
type NBA struct {
	aps   *APSet
	final *bitset.BitSet
	edges [][]*bitset.BitSet
	start int
}

func NewNBA(aps *APSet) *NBA {
	return &NBA{
		aps:   aps,
		final: bitset.New(0),
		start: -1,
	}
}

func (n *NBA) APSet() *APSet {
	return n.aps
}

// CreateState 新建一个状态并返回其编号
func (n *NBA) CreateState() int {
	n.edges = append(n.edges, make([]*bitset.BitSet, n.aps.NumValuations()))
	return len(n.edges) - 1
}

func (n *NBA) Size() int {
	return len(n.edges)
}

func (n *NBA) SetFinal(state int, final bool) error {
	if err := n.checkState(state); err != nil {
		return err
	}
	n.final.SetTo(uint(state), final)
	return nil
}

func (n *NBA) IsFinal(state int) bool {
	return n.final.Test(uint(state))
}

// FinalStates returns the accepting states. The set is shared with the
// automaton.
func (n *NBA) FinalStates() *bitset.BitSet {
	return n.final
}

func (n *NBA) SetStart(state int) error {
	if err := n.checkState(state); err != nil {
		return err
	}
	n.start = state
	return nil
}

// Start returns the start state, false when none was set.
func (n *NBA) Start() (int, bool) {
	return n.start, n.start >= 0
}

func (n *NBA) checkState(state int) error {
	if state < 0 || state >= len(n.edges) {
		return constructionError("state %d out of range [0,%d)", state, len(n.edges))
	}
	return nil
}

// AddEdge adds the transition from --v--> to.
func (n *NBA) AddEdge(from int, v Valuation, to int) error {
	if err := n.checkState(from); err != nil {
		return err
	}
	if err := n.checkState(to); err != nil {
		return err
	}
	if int(v) >= n.aps.NumValuations() {
		return constructionError("valuation %d outside of %d propositions", v, n.aps.Size())
	}
	succ := n.edges[from][v]
	if succ == nil {
		succ = bitset.New(uint(len(n.edges)))
		n.edges[from][v] = succ
	}
	succ.Set(uint(to))
	return nil
}

// AddEdgeMonom adds one transition for every valuation satisfying m.
func (n *NBA) AddEdgeMonom(from int, m Monom, to int) error {
	if err := n.checkState(from); err != nil {
		return err
	}
	if err := n.checkState(to); err != nil {
		return err
	}
	for v := range m.Valuations(n.aps.Size()) {
		if err := n.AddEdge(from, v, to); err != nil {
			return err
		}
	}
	return nil
}

// Successors returns the states reached from state under v. The result is
// read-only.
func (n *NBA) Successors(state int, v Valuation) *bitset.BitSet {
	if succ := n.edges[state][v]; succ != nil {
		return succ
	}
	return noSuccessors
}

// graph returns the successors of every state regardless of the label,
// sorted and without duplicates.
func (n *NBA) graph() [][]int {
	adj := make([][]int, len(n.edges))
	all := bitset.New(uint(len(n.edges)))
	for s, row := range n.edges {
		all.ClearAll()
		for _, succ := range row {
			if succ != nil {
				all.InPlaceUnion(succ)
			}
		}
		for t := range all.EachSet() {
			adj[s] = append(adj[s], int(t))
		}
	}
	return adj
}

func (n *NBA) IsDeterministic() bool {
	for _, row := range n.edges {
		for _, succ := range row {
			if succ != nil && succ.Count() > 1 {
				return false
			}
		}
	}
	return true
}

func (n *NBA) validate() error {
	if n.aps == nil {
		return constructionError("NBA without atomic propositions")
	}
	if n.aps.Size() > MaxAPs {
		return constructionError("%d atomic propositions, at most %d are supported", n.aps.Size(), MaxAPs)
	}
	if n.start >= len(n.edges) {
		return constructionError("start state %d out of range [0,%d)", n.start, len(n.edges))
	}
	return nil
}

// WriteHOA writes the automaton in the Hanoi Omega-Automata format.
func (n *NBA) WriteHOA(w io.Writer) error {
	bw := bufio.NewWriter(w)
	k := n.aps.Size()
	fmt.Fprintln(bw, "HOA: v1")
	fmt.Fprintf(bw, "States: %d\n", len(n.edges))
	if n.start >= 0 {
		fmt.Fprintf(bw, "Start: %d\n", n.start)
	}
	fmt.Fprintf(bw, "AP: %s\n", n.aps)
	fmt.Fprintln(bw, "acc-name: Buchi")
	fmt.Fprintln(bw, "Acceptance: 1 Inf(0)")
	fmt.Fprintln(bw, "properties: trans-labels explicit-labels state-acc")
	fmt.Fprintln(bw, "--BODY--")
	for s, row := range n.edges {
		if n.IsFinal(s) {
			fmt.Fprintf(bw, "State: %d {0}\n", s)
		} else {
			fmt.Fprintf(bw, "State: %d\n", s)
		}
		for v, succ := range row {
			if succ == nil {
				continue
			}
			for t := range succ.EachSet() {
				fmt.Fprintf(bw, "[%s] %d\n", Valuation(v).HOALabel(k), t)
			}
		}
	}
	fmt.Fprintln(bw, "--END--")
	return bw.Flush()
}

func (n *NBA) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph nba {")
	fmt.Fprintln(bw, " node [shape=circle];")
	for s, row := range n.edges {
		shape := "circle"
		if n.IsFinal(s) {
			shape = "doublecircle"
		}
		fmt.Fprintf(bw, " %d [shape=%s];\n", s, shape)
		if s == n.start {
			fmt.Fprintf(bw, " init%d [shape=point];\n init%d -> %d;\n", s, s, s)
		}
		for v, succ := range row {
			if succ == nil {
				continue
			}
			label := strconv.Quote(Valuation(v).Label(n.aps))
			for t := range succ.EachSet() {
				fmt.Fprintf(bw, " %d -> %d [label=%s];\n", s, t, label)
			}
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
