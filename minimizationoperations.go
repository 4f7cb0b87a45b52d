package dstar

import (
	"cmp"
	"slices"
	"strings"
)

// Bisimulation
// Returns the quotient of da by the coarsest bisimulation that respects the
// acceptance signature of every state. The language is preserved.
func Bisimulation(da *DA, opts Options) (*DA, error) {
	if da.Start() < 0 {
		return nil, constructionError("bisimulation of an automaton without start state")
	}
	if !da.IsComplete() {
		return nil, constructionError("bisimulation of an incomplete automaton")
	}
	da.MakeCompact()

	n := da.Size()
	acc := da.Acceptance()
	signatures := make([]RabinSignature, n)
	for s := 0; s < n; s++ {
		signatures[s] = acc.StateSignature(s)
	}

	order := make([]int, n)
	for s := range order {
		order[s] = s
	}
	colors := make([]int, n)
	count := colorStates(order, colors, func(x, y int) int {
		return signatures[x].Compare(signatures[y])
	})

	width := da.APSet().NumValuations()
	for {
		prev := slices.Clone(colors)
		next := make([]int, n)
		refined := colorStates(order, next, func(x, y int) int {
			if c := cmp.Compare(prev[x], prev[y]); c != 0 {
				return c
			}
			for v := 0; v < width; v++ {
				sx, sy := da.Successor(x, Valuation(v)), da.Successor(y, Valuation(v))
				if c := cmp.Compare(prev[sx], prev[sy]); c != 0 {
					return c
				}
			}
			return 0
		})
		colors = next
		if refined == count {
			break
		}
		count = refined
	}

	// classes are numbered by their smallest state, which represents them
	mapping := make([]int, n)
	classOf := make([]int, count)
	for c := range classOf {
		classOf[c] = -1
	}
	rep := make([]int, 0, count)
	for s := 0; s < n; s++ {
		if classOf[colors[s]] < 0 {
			classOf[colors[s]] = len(rep)
			rep = append(rep, s)
		}
		mapping[s] = classOf[colors[s]]
	}

	quotient := acc.Clone()
	if err := quotient.MoveStates(mapping); err != nil {
		return nil, err
	}
	out := NewDA(da.APSet())
	out.SetComment(da.Comment())
	out.ConsiderAsStreett(da.IsStreett())
	out.acceptance = quotient
	for c := 0; c < count; c++ {
		out.CreateState()
	}
	out.SetStart(mapping[da.Start()])
	for c, s := range rep {
		for v, to := range da.Edges(s) {
			out.SetEdge(c, v, mapping[to])
		}
	}
	if opts.DetailedStates {
		members := make([][]string, count)
		for s := 0; s < n; s++ {
			if da.HasDescription(s) {
				members[mapping[s]] = append(members[mapping[s]], da.Description(s))
			}
		}
		for c, descs := range members {
			switch len(descs) {
			case 0:
			case 1:
				out.SetDescription(c, descs[0])
			default:
				out.SetDescription(c, "{"+strings.Join(descs, ", ")+"}")
			}
		}
	}

	opts.Metrics.bisimulationRemoved(n - count)
	opts.logger().Debug("bisimulation finished", "states", n, "classes", count)
	return out, nil
}

// colorStates sorts order by compare and gives equal states the same color,
// numbering colors in sort order. It returns the number of colors.
func colorStates(order, colors []int, compare func(x, y int) int) int {
	if len(order) == 0 {
		return 0
	}
	slices.SortStableFunc(order, compare)
	color := 0
	colors[order[0]] = 0
	for i := 1; i < len(order); i++ {
		if compare(order[i-1], order[i]) != 0 {
			color++
		}
		colors[order[i]] = color
	}
	return color + 1
}
