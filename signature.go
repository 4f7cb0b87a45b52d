package dstar

import (
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// RabinColor is the contribution of one state to one acceptance pair.
type RabinColor uint8

const (
	RabinWhite RabinColor = iota // in neither set
	RabinGreen                   // in L
	RabinRed                     // in U
)

func (c RabinColor) String() string {
	switch c {
	case RabinGreen:
		return "GREEN"
	case RabinRed:
		return "RED"
	default:
		return "WHITE"
	}
}

// RabinSignature gives the color of a single state for every pair.
type RabinSignature struct {
	l    *bitset.BitSet
	u    *bitset.BitSet
	size int
}

func NewRabinSignature(size int) RabinSignature {
	return RabinSignature{
		l:    bitset.New(uint(size)),
		u:    bitset.New(uint(size)),
		size: size,
	}
}

func (s RabinSignature) Size() int {
	return s.size
}

func (s RabinSignature) Color(i int) RabinColor {
	switch {
	case s.l.Test(uint(i)):
		return RabinGreen
	case s.u.Test(uint(i)):
		return RabinRed
	}
	return RabinWhite
}

func (s RabinSignature) SetColor(i int, c RabinColor) {
	s.l.SetTo(uint(i), c == RabinGreen)
	s.u.SetTo(uint(i), c == RabinRed)
}

// L returns the pairs in which the state is green. Read-only.
func (s RabinSignature) L() *bitset.BitSet {
	return s.l
}

// U returns the pairs in which the state is red. Read-only.
func (s RabinSignature) U() *bitset.BitSet {
	return s.u
}

func (s RabinSignature) Equal(other RabinSignature) bool {
	return s.size == other.size && sameBits(s.l, other.l) && sameBits(s.u, other.u)
}

func (s RabinSignature) Compare(other RabinSignature) int {
	if c := compareBits(s.l, other.l); c != 0 {
		return c
	}
	return compareBits(s.u, other.u)
}

// String renders the signature as in the Acc-Sig lines, e.g. "+0 -1".
func (s RabinSignature) String() string {
	var parts []string
	for i := 0; i < s.size; i++ {
		switch s.Color(i) {
		case RabinGreen:
			parts = append(parts, "+"+strconv.Itoa(i))
		case RabinRed:
			parts = append(parts, "-"+strconv.Itoa(i))
		}
	}
	return strings.Join(parts, " ")
}
