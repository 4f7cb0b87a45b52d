package dstar

import (
	"iter"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

const noNode = -1

type safraNode struct {
	labeling *bitset.BitSet
	used     bool
	final    bool
	parent   int
	older    int
	younger  int
	oldest   int
	youngest int
	children int
}

// SafraTree is an ordered tree of NBA state sets stored in a fixed arena of
// node slots. Node ids double as Rabin pair indexes. The root, when
// present, has id 0.
type SafraTree struct {
	nodes []safraNode
	width uint
}

// NewSafraTree returns a tree with an empty root and room for maxNodes
// nodes. states sizes the labelings.
func NewSafraTree(maxNodes, states int) *SafraTree {
	if maxNodes < 1 {
		maxNodes = 1
	}
	t := &SafraTree{
		nodes: make([]safraNode, maxNodes),
		width: uint(states),
	}
	t.newNodeWithID(0)
	return t
}

func (t *SafraTree) NodeMax() int {
	return len(t.nodes)
}

// Root returns the root id, or -1 when the tree is empty.
func (t *SafraTree) Root() int {
	if t.nodes[0].used {
		return 0
	}
	return noNode
}

func (t *SafraTree) Has(id int) bool {
	return id >= 0 && id < len(t.nodes) && t.nodes[id].used
}

// Size returns the number of nodes in the tree.
func (t *SafraTree) Size() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].used {
			n++
		}
	}
	return n
}

func (t *SafraTree) Labeling(id int) *bitset.BitSet {
	return t.nodes[id].labeling
}

func (t *SafraTree) IsFinal(id int) bool {
	return t.nodes[id].final
}

func (t *SafraTree) setFinal(id int, final bool) {
	t.nodes[id].final = final
}

func (t *SafraTree) Parent(id int) int         { return t.nodes[id].parent }
func (t *SafraTree) OlderBrother(id int) int   { return t.nodes[id].older }
func (t *SafraTree) YoungerBrother(id int) int { return t.nodes[id].younger }
func (t *SafraTree) OldestChild(id int) int    { return t.nodes[id].oldest }
func (t *SafraTree) YoungestChild(id int) int  { return t.nodes[id].youngest }
func (t *SafraTree) ChildCount(id int) int     { return t.nodes[id].children }

// Children yields the children of id from oldest to youngest.
func (t *SafraTree) Children(id int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for c := t.nodes[id].oldest; c != noNode; c = t.nodes[c].younger {
			if !yield(c) {
				return
			}
		}
	}
}

func (t *SafraTree) Clone() *SafraTree {
	c := &SafraTree{
		nodes: make([]safraNode, len(t.nodes)),
		width: t.width,
	}
	copy(c.nodes, t.nodes)
	for i := range c.nodes {
		if c.nodes[i].used {
			c.nodes[i].labeling = t.nodes[i].labeling.Clone()
		}
	}
	return c
}

// newNode allocates the lowest free id. Running out of ids breaks the
// bound on the tree size and panics.
func (t *SafraTree) newNode() int {
	for i := range t.nodes {
		if !t.nodes[i].used {
			t.newNodeWithID(i)
			return i
		}
	}
	invariant(false, "safra tree node pool of %d exhausted", len(t.nodes))
	return noNode
}

func (t *SafraTree) newNodeWithID(id int) {
	invariant(!t.nodes[id].used, "safra node %d already in use", id)
	t.nodes[id] = safraNode{
		labeling: bitset.New(t.width),
		used:     true,
		parent:   noNode,
		older:    noNode,
		younger:  noNode,
		oldest:   noNode,
		youngest: noNode,
	}
}

func (t *SafraTree) addAsYoungestChild(parent, child int) {
	p, c := &t.nodes[parent], &t.nodes[child]
	c.parent = parent
	c.younger = noNode
	c.older = p.youngest
	if p.youngest != noNode {
		t.nodes[p.youngest].younger = child
	} else {
		p.oldest = child
	}
	p.youngest = child
	p.children++
}

func (t *SafraTree) addAsOldestChild(parent, child int) {
	p, c := &t.nodes[parent], &t.nodes[child]
	c.parent = parent
	c.older = noNode
	c.younger = p.oldest
	if p.oldest != noNode {
		t.nodes[p.oldest].older = child
	} else {
		p.youngest = child
	}
	p.oldest = child
	p.children++
}

func (t *SafraTree) unlink(id int) {
	n := &t.nodes[id]
	if n.parent == noNode {
		return
	}
	p := &t.nodes[n.parent]
	if n.older != noNode {
		t.nodes[n.older].younger = n.younger
	} else {
		p.oldest = n.younger
	}
	if n.younger != noNode {
		t.nodes[n.younger].older = n.older
	} else {
		p.youngest = n.older
	}
	p.children--
	n.parent, n.older, n.younger = noNode, noNode, noNode
}

// remove deletes a leaf.
func (t *SafraTree) remove(id int) {
	invariant(t.nodes[id].children == 0, "removing safra node %d with children", id)
	t.unlink(id)
	t.nodes[id] = safraNode{}
}

// removeDescendants deletes the subtree below id bottom-up, calling
// onRemove for every removed id.
func (t *SafraTree) removeDescendants(id int, onRemove func(int)) {
	for _, d := range t.postOrder(id, false) {
		if onRemove != nil {
			onRemove(d)
		}
		t.remove(d)
	}
}

// swapAdjacent exchanges a with its younger brother b.
func (t *SafraTree) swapAdjacent(parent, a, b int) {
	invariant(t.nodes[a].younger == b, "safra nodes %d and %d are not adjacent", a, b)
	t.unlink(b)
	before := t.nodes[a].older
	if before == noNode {
		t.addAsOldestChild(parent, b)
		return
	}
	// insert b between before and a
	p := &t.nodes[parent]
	nb := &t.nodes[b]
	nb.parent = parent
	nb.older = before
	nb.younger = a
	t.nodes[before].younger = b
	t.nodes[a].older = b
	p.children++
}

// postOrder returns the ids of the subtree rooted at top in post-order.
// The walk uses an explicit stack and works on a snapshot, callers may
// modify the tree while iterating the result.
func (t *SafraTree) postOrder(top int, includeTop bool) []int {
	if top == noNode || !t.nodes[top].used {
		return nil
	}
	var out []int
	type frame struct {
		id   int
		next int
	}
	stack := []frame{{id: top, next: t.nodes[top].oldest}}
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.next != noNode {
			c := f.next
			f.next = t.nodes[c].younger
			stack = append(stack, frame{id: c, next: t.nodes[c].oldest})
			continue
		}
		id := f.id
		stack = stack[:len(stack)-1]
		if id != top || includeTop {
			out = append(out, id)
		}
	}
	return out
}

// walkPostOrder applies fn to the nodes of the tree in post-order, skipping
// nodes removed by earlier calls.
func (t *SafraTree) walkPostOrder(fn func(id int)) {
	for _, id := range t.postOrder(t.Root(), true) {
		if t.nodes[id].used {
			fn(id)
		}
	}
}

// Equal compares trees including node ids.
func (t *SafraTree) Equal(other *SafraTree) bool {
	if len(t.nodes) != len(other.nodes) {
		return false
	}
	for i := range t.nodes {
		a, b := &t.nodes[i], &other.nodes[i]
		if a.used != b.used {
			return false
		}
		if !a.used {
			continue
		}
		if a.final != b.final ||
			a.children != b.children ||
			a.parent != b.parent ||
			a.older != b.older ||
			a.younger != b.younger ||
			a.oldest != b.oldest ||
			a.youngest != b.youngest ||
			!sameBits(a.labeling, b.labeling) {
			return false
		}
	}
	return true
}

// Hash is consistent with Equal.
func (t *SafraTree) Hash() uint64 {
	h := uint64(len(t.nodes))
	for i := range t.nodes {
		n := &t.nodes[i]
		if !n.used {
			continue
		}
		h = h*31 + uint64(mix32(i))
		h = h*31 + uint64(mix32(n.parent+1))
		h = h*31 + uint64(mix32(n.older+1))
		if n.final {
			h = h*31 + 1
		}
		h = h*31 + hashBits(n.labeling)
	}
	return mix64(h)
}

// StructuralCompare orders trees by shape, final flags and labelings,
// ignoring node ids. Nodes are compared in pre-order.
func (t *SafraTree) StructuralCompare(other *SafraTree) int {
	if d := len(t.nodes) - len(other.nodes); d != 0 {
		return sign(d)
	}
	ra, rb := t.Root(), other.Root()
	switch {
	case ra == noNode && rb == noNode:
		return 0
	case ra == noNode:
		return -1
	case rb == noNode:
		return 1
	}
	type pair struct{ a, b int }
	stack := []pair{{ra, rb}}
	var ca, cb []int
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		na, nb := &t.nodes[p.a], &other.nodes[p.b]
		if na.final != nb.final {
			if na.final {
				return 1
			}
			return -1
		}
		if d := na.children - nb.children; d != 0 {
			return sign(d)
		}
		if c := compareBits(na.labeling, nb.labeling); c != 0 {
			return c
		}
		ca, cb = ca[:0], cb[:0]
		for c := na.oldest; c != noNode; c = t.nodes[c].younger {
			ca = append(ca, c)
		}
		for c := nb.oldest; c != noNode; c = other.nodes[c].younger {
			cb = append(cb, c)
		}
		for i := len(ca) - 1; i >= 0; i-- {
			stack = append(stack, pair{ca[i], cb[i]})
		}
	}
	return 0
}

// StructuralHash is consistent with StructuralCompare.
func (t *SafraTree) StructuralHash() uint64 {
	h := uint64(len(t.nodes))
	root := t.Root()
	if root == noNode {
		return mix64(h)
	}
	stack := []int{root}
	var children []int
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		h = h*31 + uint64(n.children)
		if n.final {
			h = h*31 + 1
		}
		h = h*31 + hashBits(n.labeling)
		children = children[:0]
		for c := n.oldest; c != noNode; c = t.nodes[c].younger {
			children = append(children, c)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return mix64(h)
}

// Height returns the number of levels, 0 for an empty tree.
func (t *SafraTree) Height() int {
	height := 0
	for i := range t.nodes {
		if !t.nodes[i].used || t.nodes[i].children > 0 {
			continue
		}
		d := 1
		for p := t.nodes[i].parent; p != noNode; p = t.nodes[p].parent {
			d++
		}
		height = max(height, d)
	}
	return height
}

// Width returns the largest number of nodes on one level.
func (t *SafraTree) Width() int {
	root := t.Root()
	if root == noNode {
		return 0
	}
	width := 0
	level := []int{root}
	for len(level) > 0 {
		width = max(width, len(level))
		var next []int
		for _, id := range level {
			next = append(next, t.childList(id)...)
		}
		level = next
	}
	return width
}

func (t *SafraTree) childList(id int) []int {
	var out []int
	for c := range t.Children(id) {
		out = append(out, c)
	}
	return out
}

// Signature returns the Rabin colors of the tree: a final node is green,
// another present node white, an absent id red.
func (t *SafraTree) Signature() RabinSignature {
	sig := NewRabinSignature(len(t.nodes))
	for i := range t.nodes {
		switch {
		case !t.nodes[i].used:
			sig.SetColor(i, RabinRed)
		case t.nodes[i].final:
			sig.SetColor(i, RabinGreen)
		}
	}
	return sig
}

// String renders the tree one node per line, indented by depth.
func (t *SafraTree) String() string {
	root := t.Root()
	if root == noNode {
		return "<empty>\n"
	}
	var sb strings.Builder
	type item struct{ id, depth int }
	stack := []item{{root, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sb.WriteString(strings.Repeat(" ", it.depth))
		t.writeNode(&sb, it.id)
		sb.WriteByte('\n')
		children := t.childList(it.id)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{children[i], it.depth + 1})
		}
	}
	return sb.String()
}

// Describe renders the tree on one line, e.g. "0{0,1}(1{1}!)".
func (t *SafraTree) Describe() string {
	root := t.Root()
	if root == noNode {
		return "{}"
	}
	var sb strings.Builder
	t.describe(&sb, root)
	return sb.String()
}

func (t *SafraTree) describe(sb *strings.Builder, id int) {
	t.writeNode(sb, id)
	if t.nodes[id].children == 0 {
		return
	}
	sb.WriteByte('(')
	first := true
	for c := range t.Children(id) {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		t.describe(sb, c)
	}
	sb.WriteByte(')')
}

func (t *SafraTree) writeNode(sb *strings.Builder, id int) {
	sb.WriteString(strconv.Itoa(id))
	sb.WriteString(formatBits(t.nodes[id].labeling))
	if t.nodes[id].final {
		sb.WriteByte('!')
	}
}

func sign(d int) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	}
	return 0
}
