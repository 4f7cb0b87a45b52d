package dstar

import (
	"iter"
	"strings"
)

// Monom is a conjunction of literals. Bits set in mask are constrained to
// the corresponding bits of value.
type Monom struct {
	mask   Valuation
	value  Valuation
	falsum bool
}

func TrueMonom() Monom {
	return Monom{}
}

func FalseMonom() Monom {
	return Monom{falsum: true}
}

// And conjoins the literal ap=value. A contradicting literal yields false.
func (m Monom) And(ap int, value bool) Monom {
	if m.falsum {
		return m
	}
	bit := Valuation(1) << uint(ap)
	if m.mask&bit != 0 {
		if (m.value&bit != 0) != value {
			return FalseMonom()
		}
		return m
	}
	m.mask |= bit
	m.value = m.value.With(ap, value)
	return m
}

func (m Monom) IsTrue() bool {
	return !m.falsum && m.mask == 0
}

func (m Monom) IsFalse() bool {
	return m.falsum
}

func (m Monom) Matches(v Valuation) bool {
	return !m.falsum && v&m.mask == m.value
}

// Valuations enumerates the valuations over k propositions satisfying m.
func (m Monom) Valuations(k int) iter.Seq[Valuation] {
	return func(yield func(Valuation) bool) {
		if m.falsum {
			return
		}
		n := 1 << uint(k)
		for v := 0; v < n; v++ {
			if m.Matches(Valuation(v)) && !yield(Valuation(v)) {
				return
			}
		}
	}
}

func (m Monom) String(aps *APSet) string {
	switch {
	case m.falsum:
		return "false"
	case m.mask == 0:
		return "true"
	}
	var parts []string
	for i := 0; i < aps.Size(); i++ {
		if !m.mask.Get(i) {
			continue
		}
		if m.value.Get(i) {
			parts = append(parts, aps.Name(i))
		} else {
			parts = append(parts, "!"+aps.Name(i))
		}
	}
	return strings.Join(parts, "&")
}

// ParseMonom reads "true", "false" or a conjunction such as "p & !q".
func ParseMonom(s string, aps *APSet) (Monom, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "true", "t", "1":
		return TrueMonom(), nil
	case "false", "f", "0":
		return FalseMonom(), nil
	case "":
		return Monom{}, constructionError("empty label")
	}
	m := TrueMonom()
	for _, lit := range strings.Split(s, "&") {
		lit = strings.TrimSpace(lit)
		value := true
		for strings.HasPrefix(lit, "!") {
			value = !value
			lit = strings.TrimSpace(lit[1:])
		}
		ap := aps.Index(lit)
		if ap < 0 {
			return Monom{}, constructionError("unknown atomic proposition %q in label %q", lit, s)
		}
		m = m.And(ap, value)
	}
	return m, nil
}
