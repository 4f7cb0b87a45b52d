package dstar

import (
	"github.com/bits-and-blooms/bitset"
)

// SCCs is the strongly connected component decomposition of an NBA.
//
// Components are numbered in the order Tarjan's algorithm completes them,
// so an edge between two different components always leads from the
// larger id to the smaller one. Ascending ids are a reverse topological
// order of the condensation.
type SCCs struct {
	state2scc  []int
	members    []*bitset.BitSet
	successors []*bitset.BitSet
	reachable  []*bitset.BitSet
	nontrivial []bool
	disjoint   bool
}

// ComputeSCCs runs Tarjan's algorithm from the start state. States not
// reachable from it are visited by restarting the search, which also marks
// the NBA as disjoint.
func ComputeSCCs(nba *NBA) *SCCs {
	n := nba.Size()
	adj := nba.graph()

	roots := make([]int, 0, n)
	if start, ok := nba.Start(); ok {
		roots = append(roots, start)
	}
	for s := 0; s < n; s++ {
		roots = append(roots, s)
	}

	t := newTarjan(adj)
	searches := 0
	for _, r := range roots {
		if t.index[r] < 0 {
			t.run(r)
			searches++
		}
	}

	res := &SCCs{
		state2scc: t.component,
		disjoint:  searches > 1,
	}
	count := len(t.components)
	res.members = make([]*bitset.BitSet, count)
	res.successors = make([]*bitset.BitSet, count)
	res.nontrivial = make([]bool, count)
	for i, comp := range t.components {
		res.members[i] = bitset.New(uint(n))
		res.successors[i] = bitset.New(uint(count))
		for _, s := range comp {
			res.members[i].Set(uint(s))
		}
		res.nontrivial[i] = len(comp) > 1
	}
	for s, succ := range adj {
		from := t.component[s]
		for _, u := range succ {
			to := t.component[u]
			if from != to {
				res.successors[from].Set(uint(to))
			} else if s == u {
				res.nontrivial[from] = true
			}
		}
	}

	// successors always have smaller ids
	res.reachable = make([]*bitset.BitSet, count)
	for i := 0; i < count; i++ {
		reach := bitset.New(uint(count))
		for j := range res.successors[i].EachSet() {
			reach.Set(j)
			reach.InPlaceUnion(res.reachable[j])
		}
		if res.nontrivial[i] {
			reach.Set(uint(i))
		}
		res.reachable[i] = reach
	}
	return res
}

func (c *SCCs) Count() int {
	return len(c.members)
}

// StateSCC returns the component of state.
func (c *SCCs) StateSCC(state int) int {
	return c.state2scc[state]
}

// SCC returns the member states of component i. Read-only.
func (c *SCCs) SCC(i int) *bitset.BitSet {
	return c.members[i]
}

// Successors returns the components directly reachable from i, excluding
// i itself. Read-only.
func (c *SCCs) Successors(i int) *bitset.BitSet {
	return c.successors[i]
}

// Reachable returns the components reachable from i in one or more steps.
// i reaches itself only when it is non-trivial. Read-only.
func (c *SCCs) Reachable(i int) *bitset.BitSet {
	return c.reachable[i]
}

// IsTrivial reports a single state without a self-loop.
func (c *SCCs) IsTrivial(i int) bool {
	return !c.nontrivial[i]
}

func (c *SCCs) StateIsReachable(from, to int) bool {
	return c.reachable[c.state2scc[from]].Test(uint(c.state2scc[to]))
}

// TopologicalOrder lists components so that every edge goes forward.
func (c *SCCs) TopologicalOrder() []int {
	order := make([]int, len(c.members))
	for i := range order {
		order[i] = len(order) - 1 - i
	}
	return order
}

// Disjoint reports that some states are unreachable from the start state.
func (c *SCCs) Disjoint() bool {
	return c.disjoint
}

// tarjan is an iterative version of Tarjan's SCC algorithm over an
// adjacency list. It is shared by the NBA analysis, the DA emptiness check
// and the lasso acceptance check.
type tarjan struct {
	adj        [][]int
	index      []int
	lowlink    []int
	onStack    []bool
	stack      []int
	counter    int
	component  []int
	components [][]int
}

func newTarjan(adj [][]int) *tarjan {
	n := len(adj)
	t := &tarjan{
		adj:       adj,
		index:     make([]int, n),
		lowlink:   make([]int, n),
		onStack:   make([]bool, n),
		component: make([]int, n),
	}
	for i := range t.index {
		t.index[i] = -1
		t.component[i] = -1
	}
	return t
}

type tarjanFrame struct {
	v    int
	next int
}

func (t *tarjan) visit(v int) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true
}

func (t *tarjan) run(root int) {
	t.visit(root)
	call := []tarjanFrame{{v: root}}
	for len(call) > 0 {
		top := &call[len(call)-1]
		v := top.v
		if top.next < len(t.adj[v]) {
			w := t.adj[v][top.next]
			top.next++
			if t.index[w] < 0 {
				t.visit(w)
				call = append(call, tarjanFrame{v: w})
			} else if t.onStack[w] {
				t.lowlink[v] = min(t.lowlink[v], t.index[w])
			}
			continue
		}

		call = call[:len(call)-1]
		if len(call) > 0 {
			p := call[len(call)-1].v
			t.lowlink[p] = min(t.lowlink[p], t.lowlink[v])
		}
		if t.lowlink[v] != t.index[v] {
			continue
		}
		id := len(t.components)
		var comp []int
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			t.component[w] = id
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		t.components = append(t.components, comp)
	}
}

// hasAcceptingCycle reports whether a cycle reachable from roots passes a
// vertex for which accept returns true. Vertices for which blocked returns
// true are removed from the graph.
func hasAcceptingCycle(adj [][]int, roots []int, accept, blocked func(int) bool) bool {
	n := len(adj)
	reach := bitset.New(uint(n))
	queue := make([]int, 0, n)
	for _, r := range roots {
		if !blocked(r) && !reach.Test(uint(r)) {
			reach.Set(uint(r))
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if !blocked(w) && !reach.Test(uint(w)) {
				reach.Set(uint(w))
				queue = append(queue, w)
			}
		}
	}

	sub := make([][]int, n)
	for v := range reach.EachSet() {
		for _, w := range adj[v] {
			if reach.Test(uint(w)) {
				sub[v] = append(sub[v], w)
			}
		}
	}
	t := newTarjan(sub)
	for v := range reach.EachSet() {
		if t.index[v] < 0 {
			t.run(int(v))
		}
	}
	for v := range reach.EachSet() {
		if !accept(int(v)) {
			continue
		}
		c := t.component[v]
		if len(t.components[c]) > 1 {
			return true
		}
		for _, w := range sub[v] {
			if w == int(v) {
				return true
			}
		}
	}
	return false
}
