package dstar

import (
	"github.com/bits-and-blooms/bitset"
)

// SafraTreeTemplate is the result of one Safra step: the new tree plus the
// ids created in this step (renameable) and the ids that existed before the
// step and were removed by it (restricted). Both sets matter when the tree
// is matched against known trees up to renaming.
type SafraTreeTemplate struct {
	tree       *SafraTree
	renameable *bitset.BitSet
	restricted *bitset.BitSet
}

func newSafraTreeTemplate(tree *SafraTree) *SafraTreeTemplate {
	n := uint(tree.NodeMax())
	return &SafraTreeTemplate{
		tree:       tree,
		renameable: bitset.New(n),
		restricted: bitset.New(n),
	}
}

func (t *SafraTreeTemplate) Tree() *SafraTree {
	return t.tree
}

func (t *SafraTreeTemplate) IsRenameable(id int) bool {
	return t.renameable.Test(uint(id))
}

func (t *SafraTreeTemplate) IsRestricted(id int) bool {
	return t.restricted.Test(uint(id))
}

// release records the removal of id.
func (t *SafraTreeTemplate) release(id int) {
	if t.renameable.Test(uint(id)) {
		t.renameable.Clear(uint(id))
	} else {
		t.restricted.Set(uint(id))
	}
}

// safraPass is one rewrite of the tree. Returning false skips the
// remaining passes.
type safraPass func(s *SafraAlgorithm, t *SafraTreeTemplate, v Valuation) bool

// SafraAlgorithm computes the Safra transition function of an NBA.
type SafraAlgorithm struct {
	nba      *NBA
	analysis *NBAAnalysis
	nodes    int
	passes   []safraPass
	opts     Options
}

func NewSafraAlgorithm(nba *NBA, opts Options) (*SafraAlgorithm, error) {
	analysis := AnalyzeNBA(nba)
	if analysis.Disjoint() {
		if opts.NBADisjointFail {
			return nil, constructionError("NBA has states unreachable from the start state")
		}
		opts.logger().Warn("NBA has states unreachable from the start state", "states", nba.Size())
	}

	s := &SafraAlgorithm{
		nba:      nba,
		analysis: analysis,
		nodes:    2 * nba.Size(),
		opts:     opts,
	}
	if s.nodes == 0 {
		s.nodes = 1
	}
	s.passes = []safraPass{resetFinal, markFinal, powerset}
	if opts.AcceptingTrueLoop {
		s.passes = append(s.passes, acceptingTrueLoop)
	}
	s.passes = append(s.passes, horizontalDisjoint, removeEmpty, verticalCollapse)
	if opts.Reorder {
		s.passes = append(s.passes, canonicalReorder)
	}
	if opts.AcceptingSuccessors {
		s.passes = append(s.passes, acceptingSuccessors)
	}
	return s, nil
}

// NodeMax returns the size of the node pool, which is also the number of
// acceptance pairs of the constructed automaton.
func (s *SafraAlgorithm) NodeMax() int {
	return s.nodes
}

func (s *SafraAlgorithm) Analysis() *NBAAnalysis {
	return s.analysis
}

// Empty reports an NBA without states or without start state.
func (s *SafraAlgorithm) Empty() bool {
	_, ok := s.nba.Start()
	return s.nba.Size() == 0 || !ok
}

// StartTree returns the root labeled with the start state. The shortcut
// passes are applied as well, so the start tree coincides with their
// fixed points.
func (s *SafraAlgorithm) StartTree() *SafraTree {
	tree := NewSafraTree(s.nodes, s.nba.Size())
	if start, ok := s.nba.Start(); ok {
		tree.Labeling(0).Set(uint(start))
	}
	tmpl := newSafraTreeTemplate(tree)
	if s.opts.AcceptingTrueLoop && !acceptingTrueLoop(s, tmpl, 0) {
		return tree
	}
	if s.opts.AcceptingSuccessors {
		acceptingSuccessors(s, tmpl, 0)
	}
	return tree
}

// Delta returns the successor of tree under v. tree is not modified.
func (s *SafraAlgorithm) Delta(tree *SafraTree, v Valuation) *SafraTreeTemplate {
	tmpl := newSafraTreeTemplate(tree.Clone())
	for _, pass := range s.passes {
		if !pass(s, tmpl, v) {
			break
		}
	}
	return tmpl
}

func resetFinal(_ *SafraAlgorithm, t *SafraTreeTemplate, _ Valuation) bool {
	tree := t.tree
	for i := range tree.nodes {
		tree.nodes[i].final = false
	}
	return true
}

// markFinal gives every node that contains accepting states a new youngest
// child labeled with them.
func markFinal(s *SafraAlgorithm, t *SafraTreeTemplate, _ Valuation) bool {
	tree := t.tree
	final := s.nba.FinalStates()
	tree.walkPostOrder(func(id int) {
		labeling := tree.Labeling(id)
		if !intersects(labeling, final) {
			return
		}
		child := tree.newNode()
		tree.nodes[child].labeling = labeling.Intersection(final)
		tree.addAsYoungestChild(id, child)
		t.renameable.Set(uint(child))
	})
	return true
}

func powerset(s *SafraAlgorithm, t *SafraTreeTemplate, v Valuation) bool {
	tree := t.tree
	for i := range tree.nodes {
		n := &tree.nodes[i]
		if !n.used {
			continue
		}
		next := bitset.New(tree.width)
		for q := range n.labeling.EachSet() {
			next.InPlaceUnion(s.nba.Successors(int(q), v))
		}
		n.labeling = next
	}
	return true
}

// acceptingTrueLoop replaces the tree by a single final root once the run
// can reach a state accepting every suffix.
func acceptingTrueLoop(s *SafraAlgorithm, t *SafraTreeTemplate, _ Valuation) bool {
	tree := t.tree
	root := tree.Root()
	loops := s.analysis.AcceptingTrueLoops()
	if root == noNode || !intersects(tree.Labeling(root), loops) {
		return true
	}
	canonical, _ := s.analysis.CanonicalTrueLoop()
	tree.removeDescendants(root, t.release)
	labeling := bitset.New(tree.width)
	labeling.Set(uint(canonical))
	tree.nodes[root].labeling = labeling
	tree.setFinal(root, true)
	return false
}

// horizontalDisjoint removes from every child the states already covered
// by an older sibling.
func horizontalDisjoint(_ *SafraAlgorithm, t *SafraTreeTemplate, _ Valuation) bool {
	tree := t.tree
	tree.walkPostOrder(func(id int) {
		if tree.ChildCount(id) < 2 {
			return
		}
		oldest := tree.OldestChild(id)
		seen := tree.Labeling(oldest).Clone()
		for c := tree.YoungerBrother(oldest); c != noNode; c = tree.YoungerBrother(c) {
			current := tree.Labeling(c)
			if intersects(seen, current) {
				snapshot := seen.Clone()
				for _, d := range tree.postOrder(c, true) {
					tree.Labeling(d).InPlaceDifference(snapshot)
				}
			}
			seen.InPlaceUnion(tree.Labeling(c))
		}
	})
	return true
}

func removeEmpty(_ *SafraAlgorithm, t *SafraTreeTemplate, _ Valuation) bool {
	tree := t.tree
	tree.walkPostOrder(func(id int) {
		if tree.Labeling(id).None() {
			t.release(id)
			tree.remove(id)
		}
	})
	return true
}

// verticalCollapse removes the children of a node whose states are all
// covered by them and marks the node final.
func verticalCollapse(_ *SafraAlgorithm, t *SafraTreeTemplate, _ Valuation) bool {
	tree := t.tree
	tree.walkPostOrder(func(id int) {
		if tree.ChildCount(id) == 0 {
			return
		}
		union := bitset.New(tree.width)
		for c := range tree.Children(id) {
			union.InPlaceUnion(tree.Labeling(c))
		}
		if sameBits(union, tree.Labeling(id)) {
			tree.removeDescendants(id, t.release)
			tree.setFinal(id, true)
		}
	})
	return true
}

// canonicalReorder sorts siblings by labeling where their order does not
// matter: adjacent siblings are swapped when no NBA state reachable from one
// is reachable from the other.
func canonicalReorder(s *SafraAlgorithm, t *SafraTreeTemplate, _ Valuation) bool {
	tree := t.tree
	reach := make([]*bitset.BitSet, tree.NodeMax())
	tree.walkPostOrder(func(id int) {
		if tree.ChildCount(id) < 2 {
			return
		}
		for c := range tree.Children(id) {
			r := bitset.New(tree.width)
			for q := range tree.Labeling(c).EachSet() {
				r.InPlaceUnion(s.analysis.Reachability(int(q)))
			}
			reach[c] = r
		}
		for finished := false; !finished; {
			finished = true
			for a := tree.OldestChild(id); a != noNode && tree.YoungerBrother(a) != noNode; a = tree.YoungerBrother(a) {
				b := tree.YoungerBrother(a)
				if intersects(reach[a], reach[b]) {
					continue
				}
				if compareBits(tree.Labeling(a), tree.Labeling(b)) > 0 {
					tree.swapAdjacent(id, a, b)
					finished = false
					a = b
				}
			}
		}
	})
	return true
}

// acceptingSuccessors collapses nodes whose states only lead to accepting
// states.
func acceptingSuccessors(s *SafraAlgorithm, t *SafraTreeTemplate, _ Valuation) bool {
	tree := t.tree
	accepting := s.analysis.AllSuccessorsAccepting()
	tree.walkPostOrder(func(id int) {
		if !subsetOf(tree.Labeling(id), accepting) {
			return
		}
		tree.removeDescendants(id, t.release)
		tree.setFinal(id, true)
	})
	return true
}
