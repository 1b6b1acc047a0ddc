// Package pdkind implements the outer pd-kind driver loop of
// spec.md §4.6: the property-directed-reachability-plus-k-induction
// search that decides a safety property against a transition system.
//
// Grounded in the teacher's search.go DFSSearch.Search outer loop
// shape — propagate, check solution, branch, backtrack, all inside
// one explicit for loop over a stack rather than recursion —
// generalized to spec.md §4.6's pop -> push_obligation ->
// extend_induction_failure -> advance_frame loop. Event hooks mirror
// the teacher's fd_monitor.go optional-callback-struct pattern
// (StartPropagation/EndPropagation invoked synchronously).
package pdkind

import (
	"context"

	"github.com/gitrdm/pdkind/internal/term"
	"github.com/gitrdm/pdkind/pkg/cex"
	"github.com/gitrdm/pdkind/pkg/errs"
	"github.com/gitrdm/pdkind/pkg/frame"
	"github.com/gitrdm/pdkind/pkg/reach"
	"github.com/gitrdm/pdkind/pkg/solver"
	"github.com/gitrdm/pdkind/pkg/ts"
)

// Verdict is the three-valued outcome of a query, per spec.md §2/§4.6.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictValid
	VerdictInvalid
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single query.
type Result struct {
	Verdict   Verdict
	Invariant term.T   // valid only when Verdict == VerdictValid
	Trace     []term.T // valid only when Verdict == VerdictInvalid; index 0 satisfies Init
	Cause     error    // set when Verdict == VerdictUnknown
}

// NewReachabilityLemmaHook fires (level, lemma) whenever a lemma is
// newly installed in a frame, per spec.md §6.1: the lemmas the
// reachability engine learns, and also Init and the property at frame
// 0, lemmas pushed to the next frame, and lemmas added through
// AddReachabilityLemma/AddInductionLemma. Hooks are
// narrow (context, level, term) triples per §9, rather than a
// subclassed observer: ctx is the Query call's context, so a hook
// that itself blocks (logging to a slow sink, say) can honor
// cancellation the same way the search loop does.
type NewReachabilityLemmaHook func(ctx context.Context, level int, l term.T)

// ObligationPushedHook fires (level, F, cex, depth) after every push
// attempt, per spec.md §6.1.
type ObligationPushedHook func(ctx context.Context, level int, f term.T, c cex.NodeID, depth int)

// NextFrameHook fires when the outer loop advances a frame.
type NextFrameHook func(ctx context.Context, level int)

// maxAttempts bounds how many times a single obligation may be
// retried before the driver treats it as ResourceExhausted, per
// spec.md §7 ("obligation attempt cap").
const maxAttempts = 64

// retriesPerDepth bounds how many times an obligation may fail
// induction at its current depth before the driver escalates it to
// depth+1, up to opts.MaxInductionDepth. Grounded in
// original_source/src/engine/pdkind/pdkind_engine.h's
// d_induction_frame_depth/d_induction_frame_depth_count fields: the
// real engine tracks a per-frame induction depth that climbs after
// repeated failures rather than staying fixed at 1 for the life of the
// query, which this retry counter reproduces.
const retriesPerDepth = 3

// Driver runs one query's worth of pd-kind search state: a fixed
// transition system and property, a frame/obligation store, a
// counterexample manager, and three solver façade instances (initial,
// reachability, induction), grounded in original_source's
// solvers.h's three-solver split for the same engine.
type Driver struct {
	mgr      *term.Manager
	sys      *ts.TransitionSystem
	property term.T
	opts     Options

	frames *frame.Store
	cexMgr *cex.Manager
	reach  *reach.Engine

	inductionSolver solver.Solver

	// queryCtx is the context of the Query call currently in progress,
	// threaded into the frame store's internal (level, term) hooks so
	// OnNewReachabilityLemma/OnNextFrame can honor cancellation too.
	// Set at the top of Query; nil before the first query runs.
	queryCtx context.Context

	OnNewReachabilityLemma NewReachabilityLemmaHook
	OnObligationPushed     ObligationPushedHook
	OnNextFrame            NextFrameHook
}

// NewDriver constructs a driver for one query. initSolver and
// reachSolver must be fresh; inductionSolver must also be fresh (the
// driver asserts nothing into it until push_obligation runs, since its
// assertions vary per obligation).
func NewDriver(mgr *term.Manager, sys *ts.TransitionSystem, property term.T, opts Options, initSolver, reachSolver, inductionSolver solver.Solver) *Driver {
	frames := frame.New()
	cexMgr := cex.New()
	d := &Driver{
		mgr:             mgr,
		sys:             sys,
		property:        property,
		opts:            opts,
		frames:          frames,
		cexMgr:          cexMgr,
		inductionSolver: inductionSolver,
	}
	d.reach = reach.NewEngine(mgr, sys, frames, cexMgr, initSolver, reachSolver)
	frames.OnNewLemma = func(level int, l term.T) {
		if d.OnNewReachabilityLemma != nil {
			d.OnNewReachabilityLemma(d.hookCtx(), level, l)
		}
	}
	frames.OnNextFrame = func(level int) {
		if d.OnNextFrame != nil {
			d.OnNextFrame(d.hookCtx(), level)
		}
	}
	return d
}

// hookCtx returns the context of the most recent Query call, or
// context.Background before the first one (a nil context would panic a
// hook that tries to use it). Hooks also fire outside Query, when
// AddReachabilityLemma or AddInductionLemma installs a lemma.
func (d *Driver) hookCtx() context.Context {
	if d.queryCtx != nil {
		return d.queryCtx
	}
	return context.Background()
}

// AddReachabilityLemma installs a reachability lemma at level, per the
// command language's `lemma` form (spec.md §6.2).
func (d *Driver) AddReachabilityLemma(level int, l term.T) {
	d.frames.AddLemma(level, l, frame.Provenance{Parent: term.Invalid, Refutes: term.Invalid, Depth: 0})
}

// AddInductionLemma installs an induction lemma with its
// counterexample cube and depth, per the command language's `ilemma`
// form (spec.md §6.2).
func (d *Driver) AddInductionLemma(level int, l term.T, cexCube term.T, depth int) {
	d.frames.AddLemma(level, l, frame.Provenance{Parent: term.Invalid, Refutes: cexCube, Depth: depth})
}

// Query runs the outer loop of spec.md §4.6 to a verdict.
func (d *Driver) Query(ctx context.Context) (*Result, error) {
	d.queryCtx = ctx
	// Step 1: initialize. Install Init in F_0; check_valid_and_add then
	// verifies P holds at F_0 before any search begins.
	d.frames.AddLemma(0, d.sys.Init, frame.Provenance{})
	valid, cexModel, err := d.checkValidAndAdd(ctx, 0, d.property)
	if err != nil {
		return d.convertError(err)
	}
	if !valid {
		return &Result{Verdict: VerdictInvalid, Trace: []term.T{cexModel}}, nil
	}
	d.frames.AddLemma(0, d.property, frame.Provenance{})

	// Step 2: seed the induction obligation.
	d.frames.Enqueue(&frame.Obligation{F: d.property, Depth: 1})

	k := 0
	for {
		for d.frames.Len() > 0 {
			if err := ctx.Err(); err != nil {
				return d.convertError(errs.Wrap(errs.ResourceExhausted, err, "pdkind: query canceled"))
			}
			if d.frames.FrameSize(k) > d.opts.MaxFrameSize {
				return d.convertError(errs.New(errs.ResourceExhausted, "pdkind: frame %d exceeded size limit", k))
			}
			obl, _ := d.frames.PopObligation()
			if alreadyPresent(d.frames.Frame(k+1), obl.F) {
				continue
			}
			res, err := d.pushObligation(ctx, obl, k)
			if d.OnObligationPushed != nil {
				d.OnObligationPushed(ctx, k, obl.F, res.cexNode, obl.Depth)
			}
			if err != nil {
				return d.convertError(err)
			}
			switch res.kind {
			case pushSuccess:
				d.frames.AddLemma(k+1, obl.F, frame.Provenance{Parent: obl.F, Refutes: term.Invalid, Depth: obl.Depth})
				d.frames.BumpActivity(obl.F)
				d.frames.StageNext(&frame.Obligation{F: obl.F, Depth: obl.Depth})
				if d.frames.Equal(k, k+1) {
					return &Result{Verdict: VerdictValid, Invariant: d.mgr.And(d.frames.Frame(k)...)}, nil
				}
			case pushFailure:
				extended, trace, err := d.extendInductionFailure(ctx, res.cexNode, k)
				if err != nil {
					return d.convertError(err)
				}
				if extended {
					return &Result{Verdict: VerdictInvalid, Trace: trace}, nil
				}
				// The candidate was spurious: the reachability engine
				// already installed a blocking lemma while answering
				// Reachable, so retry the obligation against the
				// strengthened frames.
				obl.Attempts++
				if obl.Attempts > maxAttempts {
					return d.convertError(errs.New(errs.ResourceExhausted, "pdkind: obligation for formula %d exceeded retry cap", obl.F))
				}
				escalateDepth(obl, d.opts.MaxInductionDepth)
				d.frames.Enqueue(obl)
			}
		}
		if k+1 > d.opts.MaxFrames {
			return &Result{Verdict: VerdictUnknown, Cause: errs.New(errs.ResourceExhausted, "pdkind: frame limit %d reached", d.opts.MaxFrames)}, nil
		}
		d.frames.AdvanceFrame()
		k = d.frames.CurrentFrame()
	}
}

// escalateDepth bumps obl past a run of failed retries at its current
// depth: every spurious push counts against DepthAttempts, and once
// that reaches retriesPerDepth the obligation moves to depth+1 (reset
// to zero attempts at the new depth) rather than retrying depth 1
// forever, up to maxDepth.
func escalateDepth(obl *frame.Obligation, maxDepth int) {
	obl.DepthAttempts++
	if obl.DepthAttempts >= retriesPerDepth && obl.Depth < maxDepth {
		obl.Depth++
		obl.DepthAttempts = 0
	}
}

func alreadyPresent(frameLemmas []term.T, f term.T) bool {
	for _, l := range frameLemmas {
		if l == f {
			return true
		}
	}
	return false
}

// checkValidAndAdd checks whether Init ∧ ¬P is satisfiable, using the
// reachability engine's initial-frame machinery (it already owns a
// solver with Init asserted). Returns (false, counterexample) if P
// fails immediately.
func (d *Driver) checkValidAndAdd(ctx context.Context, level int, p term.T) (bool, term.T, error) {
	reachable, leaf, err := d.reach.Reachable(ctx, d.mgr.Not(p), 0, 0)
	if err != nil {
		return false, term.Invalid, err
	}
	if reachable {
		trace := d.cexMgr.TraceTo(leaf)
		var model term.T
		if len(trace) > 0 {
			model = trace[len(trace)-1]
		} else {
			model = d.mgr.Not(p)
		}
		return false, model, nil
	}
	return true, term.Invalid, nil
}

func (d *Driver) convertError(err error) (*Result, error) {
	if errs.Is(err, errs.BackendUnknown) || errs.Is(err, errs.ResourceExhausted) {
		return &Result{Verdict: VerdictUnknown, Cause: err}, nil
	}
	return nil, err
}
