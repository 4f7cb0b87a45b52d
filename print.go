package dstar

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

func (a *DA) checkPrintable() error {
	if !a.IsCompact() {
		return constructionError("printing a non-compact automaton")
	}
	if a.start < 0 {
		return constructionError("printing an automaton without start state")
	}
	return nil
}

// WriteV2Explicit writes the automaton in the ltl2dstar v2 explicit format.
func (a *DA) WriteV2Explicit(w io.Writer) error {
	if err := a.checkPrintable(); err != nil {
		return err
	}
	acc := a.acceptance
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s v2 explicit\n", a.TypeName())
	if a.comment != "" {
		fmt.Fprintf(bw, "Comment: %s\n", strconv.Quote(a.comment))
	}
	fmt.Fprintf(bw, "States: %d\n", a.Size())
	fmt.Fprintf(bw, "Acceptance-Pairs: %d\n", acc.Size())
	fmt.Fprintf(bw, "Start: %d\n", a.start)
	fmt.Fprintf(bw, "AP: %s\n", a.aps)
	fmt.Fprintln(bw, "---")
	for s := 0; s < a.Size(); s++ {
		fmt.Fprintf(bw, "State: %d", s)
		if a.HasDescription(s) {
			fmt.Fprintf(bw, " %s", strconv.Quote(a.Description(s)))
		}
		fmt.Fprintln(bw)
		bw.WriteString("Acc-Sig:")
		for i := range acc.Pairs() {
			if acc.InL(i, s) {
				fmt.Fprintf(bw, " +%d", i)
			}
			if acc.InU(i, s) {
				fmt.Fprintf(bw, " -%d", i)
			}
		}
		fmt.Fprintln(bw)
		for _, to := range a.Edges(s) {
			fmt.Fprintf(bw, "%d\n", to)
		}
	}
	return bw.Flush()
}

// HOAAcceptance returns the HOA acceptance formula for m Rabin pairs, pair
// i using Fin(2i) for U_i and Inf(2i+1) for L_i.
func HOAAcceptance(m int) string {
	if m == 0 {
		return "f"
	}
	parts := make([]string, m)
	for i := range parts {
		parts[i] = fmt.Sprintf("(Fin(%d)&Inf(%d))", 2*i, 2*i+1)
	}
	return strings.Join(parts, "|")
}

// WriteHOA writes a Rabin automaton in the Hanoi Omega-Automata format.
func (a *DA) WriteHOA(w io.Writer) error {
	if err := a.checkPrintable(); err != nil {
		return err
	}
	if a.streett {
		return constructionError("HOA output of a Streett automaton")
	}
	acc := a.acceptance
	m := acc.Size()
	k := a.aps.Size()
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "HOA: v1")
	if a.comment != "" {
		fmt.Fprintf(bw, "name: %s\n", strconv.Quote(a.comment))
	}
	fmt.Fprintf(bw, "States: %d\n", a.Size())
	fmt.Fprintf(bw, "Start: %d\n", a.start)
	fmt.Fprintf(bw, "AP: %s\n", a.aps)
	fmt.Fprintf(bw, "acc-name: Rabin %d\n", m)
	fmt.Fprintf(bw, "Acceptance: %d %s\n", 2*m, HOAAcceptance(m))
	fmt.Fprintln(bw, "properties: trans-labels explicit-labels state-acc complete deterministic")
	fmt.Fprintln(bw, "--BODY--")
	for s := 0; s < a.Size(); s++ {
		var sets []string
		for i := 0; i < m; i++ {
			if acc.InU(i, s) {
				sets = append(sets, strconv.Itoa(2*i))
			}
			if acc.InL(i, s) {
				sets = append(sets, strconv.Itoa(2*i+1))
			}
		}
		fmt.Fprintf(bw, "State: %d", s)
		if a.HasDescription(s) {
			fmt.Fprintf(bw, " %s", strconv.Quote(a.Description(s)))
		}
		if len(sets) > 0 {
			fmt.Fprintf(bw, " {%s}", strings.Join(sets, " "))
		}
		fmt.Fprintln(bw)
		for v, to := range a.Edges(s) {
			fmt.Fprintf(bw, "[%s] %d\n", v.HOALabel(k), to)
		}
	}
	fmt.Fprintln(bw, "--END--")
	return bw.Flush()
}

// WriteDot writes a Graphviz rendering of the automaton. Edges with the
// same endpoints are merged into one labeled with all valuations.
func (a *DA) WriteDot(w io.Writer) error {
	acc := a.acceptance
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph da {")
	fmt.Fprintln(bw, " node [shape=box];")
	if a.comment != "" {
		fmt.Fprintf(bw, " comment = %s;\n", strconv.Quote(a.comment))
	}
	for s := 0; s < a.Size(); s++ {
		var sig []string
		for i := range acc.Pairs() {
			if acc.InL(i, s) {
				sig = append(sig, "+"+strconv.Itoa(i))
			}
			if acc.InU(i, s) {
				sig = append(sig, "-"+strconv.Itoa(i))
			}
		}
		label := strconv.Itoa(s)
		if len(sig) > 0 {
			label += "\n" + strings.Join(sig, " ")
		}
		if a.HasDescription(s) {
			label += "\n" + a.Description(s)
		}
		fmt.Fprintf(bw, " %d [label=%s];\n", s, strconv.Quote(label))
		if s == a.start {
			fmt.Fprintf(bw, " init [shape=point];\n init -> %d;\n", s)
		}
		labels := make(map[int][]string)
		var targets []int
		for v, to := range a.Edges(s) {
			if to < 0 {
				continue
			}
			if _, ok := labels[to]; !ok {
				targets = append(targets, to)
			}
			labels[to] = append(labels[to], v.Label(a.aps))
		}
		for _, to := range targets {
			fmt.Fprintf(bw, " %d -> %d [label=%s];\n", s, to, strconv.Quote(strings.Join(labels[to], "\n")))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
