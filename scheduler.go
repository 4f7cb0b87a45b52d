package dstar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Formula is an LTL formula as far as the scheduler is concerned. The
// translation to an NBA is supplied by the caller.
type Formula interface {
	String() string
	// Disjuncts splits a top-level disjunction.
	Disjuncts() (left, right Formula, ok bool)
	Negate() Formula
	ToNBA(aps *APSet) (*NBA, error)
}

// Scheduler tries several construction strategies for a formula and keeps
// the smallest automaton:
//
//	Start   -> Rabin(f), Streett(!f)
//	Rabin   -> Union, Safra
//	Union   -> Rabin(left), Rabin(right)
//	Streett -> Rabin(!f) read as Streett
//	Safra   -> NBA, determinization, optimizations
type Scheduler struct {
	opts Options
}

type SchedulerOption func(*Scheduler)

// WithOptions replaces the construction options.
func WithOptions(opts Options) SchedulerOption {
	return func(s *Scheduler) {
		s.opts = opts
	}
}

func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.opts.Logger = logger
	}
}

func WithMetrics(metrics *Metrics) SchedulerOption {
	return func(s *Scheduler) {
		s.opts.Metrics = metrics
	}
}

func WithStateLimit(limit int) SchedulerOption {
	return func(s *Scheduler) {
		s.opts.StateLimit = limit
	}
}

func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{opts: DefaultOptions()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Options() Options {
	return s.opts
}

// Calculate constructs a deterministic automaton for f. The comment of the
// result records the strategy that produced it.
func (s *Scheduler) Calculate(ctx context.Context, f Formula, aps *APSet) (*DA, error) {
	root := s.newStart(f, aps)
	res, err := root.calculate(ctx, 0, budget{limit: s.opts.StateLimit})
	if err != nil {
		return nil, err
	}
	res.da.SetComment(res.comment)
	s.opts.logger().Info("scheduler finished",
		"formula", f.String(),
		"strategy", res.comment,
		"states", res.da.Size(),
		"pairs", res.da.Acceptance().Size())
	return res.da, nil
}

type branchResult struct {
	da      *DA
	comment string
}

// budget is the state ceiling handed down to a branch.
type budget struct {
	limit  int
	shared []*atomic.Int64
}

func (b budget) apply(opts Options) Options {
	opts.StateLimit = b.limit
	opts.sharedLimits = b.shared
	return opts
}

type strategy interface {
	name() string
	// estimate guesses the cost of the branch, smaller is cheaper.
	estimate() int
	calculate(ctx context.Context, level int, b budget) (*branchResult, error)
}

type startStrategy struct {
	s        *Scheduler
	children []strategy
}

func (s *Scheduler) newStart(f Formula, aps *APSet) *startStrategy {
	opts := s.opts.recursion()
	st := &startStrategy{s: s}
	var rabin, streett strategy
	if s.opts.Automata != AutomataStreett {
		rabin = s.newRabin(f, aps, opts)
	}
	if s.opts.Automata != AutomataRabin {
		streett = &streettStrategy{rabin: s.newRabin(f.Negate(), aps, opts)}
	}
	switch {
	case rabin == nil:
		st.children = []strategy{streett}
	case streett == nil:
		st.children = []strategy{rabin}
	case streett.estimate() < rabin.estimate():
		st.children = []strategy{streett, rabin}
	default:
		st.children = []strategy{rabin, streett}
	}
	return st
}

func (t *startStrategy) name() string { return "Start" }

func (t *startStrategy) estimate() int {
	return t.children[0].estimate()
}

func (t *startStrategy) calculate(ctx context.Context, level int, b budget) (*branchResult, error) {
	return t.s.smallest(ctx, t.children, level, b)
}

type rabinStrategy struct {
	s        *Scheduler
	children []strategy
	safra    *safraStrategy
}

func (s *Scheduler) newRabin(f Formula, aps *APSet, opts Options) *rabinStrategy {
	r := &rabinStrategy{s: s}
	union := false
	if opts.AllowUnion {
		if left, right, ok := f.Disjuncts(); ok {
			r.children = append(r.children, &unionStrategy{
				s:     s,
				opts:  opts,
				left:  s.newRabin(left, aps, opts.recursion()),
				right: s.newRabin(right, aps, opts.recursion()),
			})
			union = true
		}
	}
	if !(opts.OnlyUnion && union) {
		r.safra = &safraStrategy{f: f, aps: aps, opts: opts}
		r.children = append(r.children, r.safra)
	}
	return r
}

func (t *rabinStrategy) name() string { return "Rabin" }

func (t *rabinStrategy) estimate() int {
	if t.safra == nil {
		return t.children[0].estimate()
	}
	return t.safra.estimate()
}

func (t *rabinStrategy) calculate(ctx context.Context, level int, b budget) (*branchResult, error) {
	return t.s.smallest(ctx, t.children, level, b)
}

type unionStrategy struct {
	s           *Scheduler
	opts        Options
	left, right *rabinStrategy
}

func (t *unionStrategy) name() string { return "Union" }

func (t *unionStrategy) estimate() int {
	l, r := t.left.estimate(), t.right.estimate()
	if l == math.MaxInt || r == math.MaxInt {
		return math.MaxInt
	}
	return l * r
}

func (t *unionStrategy) calculate(ctx context.Context, level int, b budget) (*branchResult, error) {
	var left, right *branchResult
	if t.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			left, err = t.left.calculate(gctx, level+1, b)
			return err
		})
		g.Go(func() (err error) {
			right, err = t.right.calculate(gctx, level+1, b)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		var err error
		if left, err = t.left.calculate(ctx, level+1, b); err != nil {
			return nil, err
		}
		if right, err = t.right.calculate(ctx, level+1, b); err != nil {
			return nil, err
		}
	}

	opts := b.apply(t.opts)
	da, err := Union(left.da, right.da, opts)
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
	return &branchResult{da: da, comment: "Union{" + left.comment + "," + right.comment + "}"}, nil
}

type streettStrategy struct {
	rabin *rabinStrategy
}

func (t *streettStrategy) name() string { return "Streett" }

func (t *streettStrategy) estimate() int {
	return t.rabin.estimate()
}

func (t *streettStrategy) calculate(ctx context.Context, level int, b budget) (*branchResult, error) {
	r, err := t.rabin.calculate(ctx, level+1, b)
	if err != nil {
		return nil, err
	}
	r.da.ConsiderAsStreett(true)
	return &branchResult{da: r.da, comment: "Streett{" + r.comment + "}"}, nil
}

type safraStrategy struct {
	f    Formula
	aps  *APSet
	opts Options

	once sync.Once
	nba  *NBA
	err  error
}

func (t *safraStrategy) name() string { return "Safra" }

func (t *safraStrategy) loadNBA() (*NBA, error) {
	t.once.Do(func() {
		t.nba, t.err = t.f.ToNBA(t.aps)
		if t.err == nil && t.nba == nil {
			t.err = errors.New("no automaton")
		}
	})
	return t.nba, t.err
}

func (t *safraStrategy) estimate() int {
	nba, err := t.loadNBA()
	if err != nil {
		return math.MaxInt
	}
	return nba.Size()
}

func (t *safraStrategy) calculate(ctx context.Context, _ int, b budget) (*branchResult, error) {
	nba, err := t.loadNBA()
	if err != nil {
		return nil, fmt.Errorf("%w: translating %s: %w", ErrConstruction, t.f, err)
	}
	da, err := NBA2DRA(ctx, nba, b.apply(t.opts))
	if err != nil {
		return nil, err
	}
	return &branchResult{da: da, comment: fmt.Sprintf("Safra[NBA=%d]", nba.Size())}, nil
}

// calcLimit returns the ceiling for branches competing with a result of
// size states, 0 when it does not fit.
func (s *Scheduler) calcLimit(size int) int {
	if s.opts.Alpha <= 0 {
		return 0
	}
	limit := float64(size) * s.opts.Alpha
	if limit >= math.MaxInt32 {
		return 0
	}
	return int(limit) + 1
}

func (s *Scheduler) tighten(limit, size int) int {
	l := s.calcLimit(size)
	if l == 0 || (limit > 0 && limit < l) {
		return limit
	}
	return l
}

// smallest evaluates the children and returns the smallest result. A child
// failing with ErrLimitReached is lost, any other failure breaks it; either
// way the remaining children still run.
func (s *Scheduler) smallest(ctx context.Context, children []strategy, level int, b budget) (*branchResult, error) {
	if len(children) == 0 {
		return nil, constructionError("no construction strategy applies")
	}
	if s.opts.Parallel && len(children) > 1 {
		return s.smallestParallel(ctx, children, level, b)
	}
	logger := s.opts.logger()
	var best *branchResult
	var errs []error
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cb := b
		if s.opts.OptLimits && best != nil {
			cb.limit = s.tighten(b.limit, best.da.Size())
		}
		logger.Debug("calculate", "level", level, "strategy", child.name(), "limit", cb.limit)
		r, err := child.calculate(ctx, level+1, cb)
		if err != nil {
			s.logFailure(level, child, err)
			errs = append(errs, err)
			continue
		}
		logger.Debug("branch done", "level", level, "strategy", child.name(), "states", r.da.Size())
		if best == nil || r.da.Size() < best.da.Size() {
			best = r
		}
	}
	if best == nil {
		return nil, errors.Join(errs...)
	}
	return best, nil
}

func (s *Scheduler) smallestParallel(ctx context.Context, children []strategy, level int, b budget) (*branchResult, error) {
	results := make([]*branchResult, len(children))
	errs := make([]error, len(children))

	shared := new(atomic.Int64)
	cb := b
	if s.opts.OptLimits {
		cb.shared = append(append([]*atomic.Int64(nil), b.shared...), shared)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, child := range children {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			r, err := child.calculate(gctx, level+1, cb)
			if err != nil {
				s.logFailure(level, child, err)
				errs[i] = err
				return nil
			}
			results[i] = r
			if s.opts.OptLimits {
				lowerLimit(shared, s.calcLimit(r.da.Size()))
			}
			return nil
		})
	}
	_ = g.Wait()

	var best *branchResult
	for _, r := range results {
		if r != nil && (best == nil || r.da.Size() < best.da.Size()) {
			best = r
		}
	}
	if best == nil {
		return nil, errors.Join(errs...)
	}
	return best, nil
}

// lowerLimit stores limit in shared unless a lower positive ceiling is
// already set.
func lowerLimit(shared *atomic.Int64, limit int) {
	if limit <= 0 {
		return
	}
	for {
		cur := shared.Load()
		if cur > 0 && cur <= int64(limit) {
			return
		}
		if shared.CompareAndSwap(cur, int64(limit)) {
			return
		}
	}
}

func (s *Scheduler) logFailure(level int, child strategy, err error) {
	logger := s.opts.logger()
	if errors.Is(err, ErrLimitReached) {
		logger.Debug("branch lost", "level", level, "strategy", child.name(), "error", err)
		return
	}
	logger.Debug("branch broken", "level", level, "strategy", child.name(), "error", err)
}
