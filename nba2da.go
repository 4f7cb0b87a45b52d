package dstar

import (
	"context"
	"errors"
	"time"
)

type pendingState struct {
	tree  *SafraTree
	state int
}

// Determinize converts nba into an equivalent deterministic Rabin automaton
// with Safra's construction.
func Determinize(nba *NBA, opts Options) (*DA, error) {
	return DeterminizeContext(context.Background(), nba, opts)
}

// DeterminizeContext is Determinize with a context that is checked whenever
// a new state is created.
func DeterminizeContext(ctx context.Context, nba *NBA, opts Options) (*DA, error) {
	begin := time.Now()
	da, err := determinize(ctx, nba, opts)
	result := "ok"
	switch {
	case errors.Is(err, ErrLimitReached):
		result = "limit"
	case err != nil:
		result = "error"
	}
	opts.Metrics.observeRun(result, time.Since(begin))
	return da, err
}

func determinize(ctx context.Context, nba *NBA, opts Options) (*DA, error) {
	logger := opts.logger()
	if err := nba.validate(); err != nil {
		return nil, err
	}
	algo, err := NewSafraAlgorithm(nba, opts)
	if err != nil {
		return nil, err
	}

	aps := nba.APSet()
	if algo.Empty() {
		logger.Debug("determinize empty NBA", "states", nba.Size())
		return new(Automata).MakeEmpty(aps), nil
	}

	da := NewDA(aps)
	da.Acceptance().NewPairs(algo.NodeMax())
	mapper := newStateMapper(opts.Rename)

	add := func(tree *SafraTree) int {
		state := da.CreateState()
		da.Acceptance().SetSignature(state, tree.Signature(), 0)
		if opts.DetailedStates {
			da.SetDescription(state, tree.Describe())
		}
		mapper.Add(tree, state)
		opts.Metrics.stateCreated()
		return state
	}

	start := algo.StartTree()
	queue := []pendingState{{tree: start, state: add(start)}}
	da.SetStart(0)

	for len(queue) > 0 {
		cur := queue[0]
		queue[0] = pendingState{}
		queue = queue[1:]

		for v := range aps.Valuations() {
			next := algo.Delta(cur.tree, v)
			to, ok := mapper.Find(next)
			if !ok {
				if limit, hit := opts.limitExceeded(da.Size()); hit {
					logger.Debug("determinize aborted", "limit", limit, "states", da.Size())
					return nil, &LimitError{Limit: limit, States: da.Size()}
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				to = add(next.Tree())
				queue = append(queue, pendingState{tree: next.Tree(), state: to})
			}
			da.SetEdge(cur.state, v, to)
		}
	}

	logger.Debug("determinize finished",
		"nba_states", nba.Size(),
		"states", da.Size(),
		"pairs", da.Acceptance().Size(),
		"rename", opts.Rename)
	return da, nil
}

// NBA2DRA determinizes nba and applies the configured post-processing:
// acceptance optimization and bisimulation quotienting.
func NBA2DRA(ctx context.Context, nba *NBA, opts Options) (*DA, error) {
	da, err := DeterminizeContext(ctx, nba, opts)
	if err != nil {
		return nil, err
	}
	if opts.OptimizeAcceptance {
		da.OptimizeAcceptance()
	}
	if opts.Bisimulation {
		if da, err = Bisimulation(da, opts); err != nil {
			return nil, err
		}
	}
	return da, nil
}
