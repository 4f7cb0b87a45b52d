package dstar

import (
	"log/slog"
	"sync/atomic"
)

// AutomataKind selects which automata the scheduler may construct.
type AutomataKind int

const (
	AutomataRabin AutomataKind = iota
	AutomataStreett
	AutomataRabinAndStreett
)

func (k AutomataKind) String() string {
	switch k {
	case AutomataStreett:
		return "streett"
	case AutomataRabinAndStreett:
		return "rabin-and-streett"
	default:
		return "rabin"
	}
}

// UnmarshalText accepts "rabin", "streett" and "rabin-and-streett".
func (k *AutomataKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "rabin", "":
		*k = AutomataRabin
	case "streett":
		*k = AutomataStreett
	case "rabin-and-streett", "both":
		*k = AutomataRabinAndStreett
	default:
		return constructionError("unknown automata kind %q", text)
	}
	return nil
}

func (k AutomataKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Options configures a construction. It is passed by value and copied for
// every recursive step.
type Options struct {
	// Collapse the tree once an accepting state looping on every valuation
	// is reached.
	AcceptingTrueLoop bool `yaml:"accepting_true_loop"`
	// Collapse nodes whose states only lead to accepting states.
	AcceptingSuccessors bool `yaml:"accepting_successors"`
	// Match trees up to a renaming of new nodes.
	Rename bool `yaml:"rename"`
	// Order independent siblings canonically.
	Reorder bool `yaml:"reorder"`
	// Merge accepting true loops of union products into one sink.
	UnionTrueLoop bool `yaml:"union_true_loop"`
	// Remove L∖U redundancy and empty pairs.
	OptimizeAcceptance bool `yaml:"optimize_acceptance"`
	// Quotient the result by bisimulation.
	Bisimulation bool `yaml:"bisimulation"`

	// StateLimit aborts a construction with more states, 0 means no limit.
	StateLimit int `yaml:"state_limit" validate:"gte=0"`
	// OptLimits bounds later scheduler branches by Alpha times the best
	// result so far.
	OptLimits bool    `yaml:"opt_limits"`
	Alpha     float64 `yaml:"alpha" validate:"gt=0"`

	AllowUnion bool         `yaml:"allow_union"`
	OnlyUnion  bool         `yaml:"only_union"`
	Automata   AutomataKind `yaml:"automata"`

	// DetailedStates stores a rendering of the Safra tree as the state
	// description.
	DetailedStates bool `yaml:"detailed_states"`
	// NBADisjointFail rejects NBAs with unreachable states.
	NBADisjointFail bool `yaml:"nba_disjoint_fail"`
	// Parallel evaluates scheduler branches concurrently.
	Parallel bool `yaml:"parallel"`

	Logger  *slog.Logger `yaml:"-"`
	Metrics *Metrics     `yaml:"-"`

	// ceilings shared with concurrently running sibling branches
	sharedLimits []*atomic.Int64
}

// DefaultOptions enables every optimization.
func DefaultOptions() Options {
	return Options{
		AcceptingTrueLoop:   true,
		AcceptingSuccessors: true,
		Rename:              true,
		Reorder:             true,
		UnionTrueLoop:       true,
		OptimizeAcceptance:  true,
		Bisimulation:        true,
		Alpha:               10,
		AllowUnion:          true,
		Automata:            AutomataRabin,
	}
}

// recursion returns the options for sub-constructions, which always build
// Rabin automata.
func (o Options) recursion() Options {
	o.Automata = AutomataRabin
	return o
}

func (o Options) withLimit(limit int) Options {
	o.StateLimit = limit
	return o
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// limitExceeded reports whether a construction holding states states may
// not create another one.
func (o Options) limitExceeded(states int) (int, bool) {
	if o.StateLimit > 0 && states >= o.StateLimit {
		return o.StateLimit, true
	}
	for _, shared := range o.sharedLimits {
		if limit := int(shared.Load()); limit > 0 && states >= limit {
			return limit, true
		}
	}
	return 0, false
}
