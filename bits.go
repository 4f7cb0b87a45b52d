package dstar

import (
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Bitsets in this package grow on demand, so two sets holding the same
// members may differ in length. The helpers below compare members only.

func sameBits(a, b *bitset.BitSet) bool {
	return a.SymmetricDifferenceCardinality(b) == 0
}

func intersects(a, b *bitset.BitSet) bool {
	return a.IntersectionCardinality(b) > 0
}

func subsetOf(a, b *bitset.BitSet) bool {
	return a.DifferenceCardinality(b) == 0
}

// compareBits orders sets as the unsigned numbers they encode.
func compareBits(a, b *bitset.BitSet) int {
	aw, bw := a.Words(), b.Words()
	n := max(len(aw), len(bw))
	for i := n - 1; i >= 0; i-- {
		var x, y uint64
		if i < len(aw) {
			x = aw[i]
		}
		if i < len(bw) {
			y = bw[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func hashBits(b *bitset.BitSet) uint64 {
	words := b.Words()
	n := len(words)
	for n > 0 && words[n-1] == 0 {
		n--
	}
	h := uint64(n)
	for _, w := range words[:n] {
		h = mix64(h*31 + w)
	}
	return h
}

func formatBits(b *bitset.BitSet) string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(strconv.FormatUint(uint64(i), 10))
	}
	sb.WriteByte('}')
	return sb.String()
}
