package dstar

// StateMapper remembers which automaton state was created for which Safra
// tree.
type StateMapper interface {
	// Find returns the state of a known tree matching t.
	Find(t *SafraTreeTemplate) (int, bool)
	Add(tree *SafraTree, state int)
	Size() int
}

func newStateMapper(rename bool) StateMapper {
	if rename {
		return newFuzzyStateMapper()
	}
	return newExactStateMapper()
}

// exactKey compares trees including node ids.
type exactKey struct {
	tree *SafraTree
	hash uint64
}

func (k exactKey) Hash() uint64 {
	return k.hash
}

func (k exactKey) Equals(other Hashable) bool {
	o, ok := other.(exactKey)
	return ok && k.tree.Equal(o.tree)
}

// structuralKey compares trees ignoring node ids.
type structuralKey struct {
	tree *SafraTree
	hash uint64
}

func (k structuralKey) Hash() uint64 {
	return k.hash
}

func (k structuralKey) Equals(other Hashable) bool {
	o, ok := other.(structuralKey)
	return ok && k.tree.StructuralCompare(o.tree) == 0
}

type exactStateMapper struct {
	states *HashMap[int]
}

func newExactStateMapper() *exactStateMapper {
	return &exactStateMapper{states: NewHashMap[int](WithCapacity(64))}
}

func (m *exactStateMapper) Find(t *SafraTreeTemplate) (int, bool) {
	return m.states.Get(exactKey{tree: t.tree, hash: t.tree.Hash()})
}

func (m *exactStateMapper) Add(tree *SafraTree, state int) {
	m.states.Set(exactKey{tree: tree, hash: tree.Hash()}, state)
}

func (m *exactStateMapper) Size() int {
	return m.states.Size()
}

type fuzzyCandidate struct {
	tree  *SafraTree
	state int
}

// fuzzyStateMapper buckets trees by structure and accepts a known tree when
// the new one equals it up to a renaming of the nodes created in the last
// step.
type fuzzyStateMapper struct {
	buckets *HashMap[[]fuzzyCandidate]
	size    int
}

func newFuzzyStateMapper() *fuzzyStateMapper {
	return &fuzzyStateMapper{buckets: NewHashMap[[]fuzzyCandidate](WithCapacity(64))}
}

func (m *fuzzyStateMapper) Find(t *SafraTreeTemplate) (int, bool) {
	candidates, ok := m.buckets.Get(structuralKey{tree: t.tree, hash: t.tree.StructuralHash()})
	if !ok {
		return -1, false
	}
	for _, c := range candidates {
		if renamingMatch(t, c.tree) {
			return c.state, true
		}
	}
	return -1, false
}

func (m *fuzzyStateMapper) Add(tree *SafraTree, state int) {
	key := structuralKey{tree: tree, hash: tree.StructuralHash()}
	candidates, _ := m.buckets.Get(key)
	m.buckets.Set(key, append(candidates, fuzzyCandidate{tree: tree, state: state}))
	m.size++
}

func (m *fuzzyStateMapper) Size() int {
	return m.size
}

// renamingMatch reports whether candidate, which has the same structure as
// the template's tree, can stand for it. Wherever corresponding nodes have
// different ids, the new node must have been created in the last step and
// the candidate's id must not have been freed in it.
func renamingMatch(t *SafraTreeTemplate, candidate *SafraTree) bool {
	tree := t.tree
	if tree.NodeMax() != candidate.NodeMax() {
		return false
	}
	ra, rb := tree.Root(), candidate.Root()
	if ra == noNode || rb == noNode {
		return ra == rb
	}
	type pair struct{ a, b int }
	stack := []pair{{ra, rb}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.a != p.b && (!t.IsRenameable(p.a) || t.IsRestricted(p.b)) {
			return false
		}
		a, b := tree.OldestChild(p.a), candidate.OldestChild(p.b)
		for a != noNode && b != noNode {
			stack = append(stack, pair{a, b})
			a, b = tree.YoungerBrother(a), candidate.YoungerBrother(b)
		}
		if a != b {
			return false
		}
	}
	return true
}
