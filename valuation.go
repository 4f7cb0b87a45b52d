package dstar

import (
	"iter"
	"strconv"
	"strings"
)

// MaxAPs bounds the number of atomic propositions, the edge tables hold
// one entry per valuation.
const MaxAPs = 30

// Valuation is an assignment of truth values to atomic propositions, bit i
// holds proposition i.
type Valuation uint64

func (v Valuation) Get(ap int) bool {
	return v&(1<<uint(ap)) != 0
}

func (v Valuation) With(ap int, value bool) Valuation {
	if value {
		return v | 1<<uint(ap)
	}
	return v &^ (1 << uint(ap))
}

// Label renders v as a conjunction of literals over aps, e.g. "p&!q".
func (v Valuation) Label(aps *APSet) string {
	if aps.Size() == 0 {
		return "true"
	}
	var sb strings.Builder
	for i := 0; i < aps.Size(); i++ {
		if i > 0 {
			sb.WriteByte('&')
		}
		if !v.Get(i) {
			sb.WriteByte('!')
		}
		sb.WriteString(aps.Name(i))
	}
	return sb.String()
}

// HOALabel renders v with proposition indexes as used in HOA bodies.
func (v Valuation) HOALabel(k int) string {
	if k == 0 {
		return "t"
	}
	var sb strings.Builder
	for i := 0; i < k; i++ {
		if i > 0 {
			sb.WriteByte('&')
		}
		if !v.Get(i) {
			sb.WriteByte('!')
		}
		sb.WriteString(strconv.Itoa(i))
	}
	return sb.String()
}

// APSet is the ordered list of atomic propositions of an automaton.
type APSet struct {
	names []string
	index map[string]int
}

func NewAPSet(names ...string) (*APSet, error) {
	if len(names) > MaxAPs {
		return nil, constructionError("%d atomic propositions, at most %d are supported", len(names), MaxAPs)
	}
	aps := &APSet{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, name := range names {
		if name == "" {
			return nil, constructionError("empty atomic proposition name")
		}
		if _, ok := aps.index[name]; ok {
			return nil, constructionError("duplicate atomic proposition %q", name)
		}
		aps.index[name] = len(aps.names)
		aps.names = append(aps.names, name)
	}
	return aps, nil
}

// MustAPSet is like NewAPSet but panics on error.
func MustAPSet(names ...string) *APSet {
	aps, err := NewAPSet(names...)
	if err != nil {
		panic(err)
	}
	return aps
}

func (a *APSet) Size() int {
	return len(a.names)
}

func (a *APSet) Name(i int) string {
	return a.names[i]
}

// Index returns the position of name, or -1.
func (a *APSet) Index(name string) int {
	if i, ok := a.index[name]; ok {
		return i
	}
	return -1
}

func (a *APSet) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

func (a *APSet) NumValuations() int {
	return 1 << uint(len(a.names))
}

// Valuations enumerates all valuations in canonical order 0..2^k-1.
func (a *APSet) Valuations() iter.Seq[Valuation] {
	return func(yield func(Valuation) bool) {
		n := a.NumValuations()
		for v := 0; v < n; v++ {
			if !yield(Valuation(v)) {
				return
			}
		}
	}
}

func (a *APSet) Equal(other *APSet) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil || len(a.names) != len(other.names) {
		return false
	}
	for i, name := range a.names {
		if other.names[i] != name {
			return false
		}
	}
	return true
}

func (a *APSet) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(a.names)))
	for _, name := range a.names {
		sb.WriteString(" ")
		sb.WriteString(strconv.Quote(name))
	}
	return sb.String()
}
