package dstar

type Automata struct {
}

// MakeEmpty
// Returns a one-state automaton without acceptance pairs. It accepts no
// word when read as Rabin and every word when read as Streett.
func (*Automata) MakeEmpty(aps *APSet) *DA {
	a := NewDA(aps)
	s := a.CreateState()
	a.SetStart(s)
	for v := range aps.Valuations() {
		a.SetEdge(s, v, s)
	}
	return a
}

// MakeUniversal
// Returns a one-state Rabin automaton accepting every word.
func (*Automata) MakeUniversal(aps *APSet) *DA {
	a := new(Automata).MakeEmpty(aps)
	pair := a.Acceptance().NewPair()
	a.Acceptance().L(pair).Set(0)
	return a
}
