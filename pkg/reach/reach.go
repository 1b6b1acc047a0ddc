// Package reach is the reachability engine of spec.md §4.4: answers
// reachable(G, k) via a work-stack of (G_i, i) obligations, learning
// blocking lemmas into the frame store along the way.
//
// Grounded in the teacher's search.go: an explicit stack of frames
// driving an iterative (non-recursive) search, rather than recursion,
// mirrors DFSSearch.Search's `stack []frame` shape; the
// learn-when-unsat step plays the role propagation.go's
// constraint-propagation-to-fixed-point loop plays for the teacher's
// finite-domain solver, generalized to lemma learning instead of
// domain narrowing.
package reach

import (
	"context"

	"github.com/gitrdm/pdkind/internal/term"
	"github.com/gitrdm/pdkind/pkg/cex"
	"github.com/gitrdm/pdkind/pkg/errs"
	"github.com/gitrdm/pdkind/pkg/frame"
	"github.com/gitrdm/pdkind/pkg/solver"
	"github.com/gitrdm/pdkind/pkg/ts"
)

// Engine answers reachability queries against a fixed transition
// system and a frame store that may grow lemmas as a side effect of
// those queries.
type Engine struct {
	mgr    *term.Manager
	sys    *ts.TransitionSystem
	frames *frame.Store
	cexMgr *cex.Manager

	initSolver  solver.Solver // persistent: Init asserted once
	reachSolver solver.Solver // persistent: Trans asserted once
}

// NewEngine creates a reachability engine. initSolver and reachSolver
// must be fresh (no prior assertions); NewEngine asserts Init and
// Trans into them respectively, once, as shared (class T) facts.
func NewEngine(mgr *term.Manager, sys *ts.TransitionSystem, frames *frame.Store, cexMgr *cex.Manager, initSolver, reachSolver solver.Solver) *Engine {
	initSolver.Add(sys.Init, solver.ClassT)
	reachSolver.Add(sys.Trans, solver.ClassT)
	for _, v := range sys.ST.Vars {
		reachSolver.AddVariable(sys.ST.Current(v.Name), solver.ClassA)
		reachSolver.AddVariable(sys.ST.NextVar(v.Name), solver.ClassB)
	}
	return &Engine{mgr: mgr, sys: sys, frames: frames, cexMgr: cexMgr, initSolver: initSolver, reachSolver: reachSolver}
}

type obligation struct {
	g    term.T
	i    int
	node cex.NodeID
}

// Reachable answers whether a state satisfying G is reachable within
// k transitions from Init under the current frame constraints, per
// spec.md §4.4. rootParent is attached as the parent of G's
// counterexample node (cex.NodeID(0) for none). On true, the returned
// node id is the leaf (Init-side) end of the witnessing trace,
// retrievable via the counterexample manager's TraceTo.
func (e *Engine) Reachable(ctx context.Context, g term.T, k int, rootParent cex.NodeID) (bool, cex.NodeID, error) {
	root := e.cexMgr.Add(g, k, rootParent, k)
	stack := []obligation{{g: g, i: k, node: root}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if e.cexMgr.IsUnreachable(top.g, top.i) {
			continue
		}

		if top.i == 0 {
			reachable, err := e.checkInitial(ctx, top.g)
			if err != nil {
				return false, 0, err
			}
			if reachable {
				return true, top.node, nil
			}
			continue
		}

		pred, childNode, sat, err := e.predecessor(ctx, top.g, top.i, top.node)
		if err != nil {
			return false, 0, err
		}
		if sat {
			stack = append(stack, obligation{g: pred, i: top.i - 1, node: childNode})
		}
	}
	return false, 0, nil
}

// checkInitial implements spec.md §4.4 step 2.
func (e *Engine) checkInitial(ctx context.Context, g term.T) (bool, error) {
	e.initSolver.Push()
	defer e.initSolver.Pop()
	e.initSolver.Add(g, solver.ClassB)
	res, err := e.initSolver.Check(ctx)
	if err != nil {
		return false, err
	}
	switch res {
	case solver.Sat:
		return true, nil
	case solver.Unsat:
		lemma := e.learnLemma(ctx, e.initSolver, g)
		e.installLemma(0, lemma, g, 0)
		e.cexMgr.MarkUnreachable(g, 0)
		return false, nil
	default:
		return false, errs.New(errs.BackendUnknown, "reach: initial-frame check returned unknown for G at k=0")
	}
}

// predecessor implements spec.md §4.4 step 3.
func (e *Engine) predecessor(ctx context.Context, g term.T, i int, node cex.NodeID) (pred term.T, childNode cex.NodeID, sat bool, err error) {
	e.reachSolver.Push()
	defer e.reachSolver.Pop()

	for _, l := range e.frames.Frame(i - 1) {
		e.reachSolver.Add(l, solver.ClassA)
	}
	succ := e.mgr.Rename(g, term.Current, term.Next)
	e.reachSolver.Add(succ, solver.ClassB)

	res, cerr := e.reachSolver.Check(ctx)
	if cerr != nil {
		return term.Invalid, 0, false, cerr
	}
	switch res {
	case solver.Sat:
		model, merr := e.reachSolver.Model()
		if merr != nil {
			return term.Invalid, 0, false, merr
		}
		p, gerr := e.reachSolver.Generalize(solver.Backward, model)
		if gerr != nil {
			return term.Invalid, 0, false, gerr
		}
		child := e.cexMgr.Add(p, i-1, node, i-1)
		return p, child, true, nil
	case solver.Unsat:
		lemma := e.learnLemma(ctx, e.reachSolver, g)
		e.installLemmaRange(i, lemma, g)
		e.cexMgr.MarkUnreachable(g, i)
		return term.Invalid, 0, false, nil
	default:
		return term.Invalid, 0, false, errs.New(errs.BackendUnknown, "reach: predecessor check returned unknown at frame %d", i)
	}
}

// OneStepReachable checks whether a transition consistent with
// frame[level] connects gPrev to gNext, re-validating one link of a
// counterexample chain. The driver does not call it (its
// extend_induction_failure goes through Reachable). On unsat, a
// blocking lemma for gNext is installed at every frame <= level.
func (e *Engine) OneStepReachable(ctx context.Context, level int, gPrev, gNext term.T) (bool, error) {
	e.reachSolver.Push()
	defer e.reachSolver.Pop()

	for _, l := range e.frames.Frame(level) {
		e.reachSolver.Add(l, solver.ClassA)
	}
	e.reachSolver.Add(gPrev, solver.ClassA)
	e.reachSolver.Add(e.mgr.Rename(gNext, term.Current, term.Next), solver.ClassB)

	res, err := e.reachSolver.Check(ctx)
	if err != nil {
		return false, err
	}
	switch res {
	case solver.Sat:
		return true, nil
	case solver.Unsat:
		lemma := e.learnLemma(ctx, e.reachSolver, gNext)
		e.installLemmaRange(level, lemma, gNext)
		return false, nil
	default:
		return false, errs.New(errs.BackendUnknown, "reach: one-step check returned unknown at frame %d", level)
	}
}

// learnLemma implements spec.md §4.4's "learn ¬G_i at frame 0 via
// interpolation if available (else use ¬G_i itself)", minimized by
// quickxplain when an interpolant is available.
func (e *Engine) learnLemma(ctx context.Context, slv solver.Solver, g term.T) term.T {
	if slv.Features().Has(solver.Interpolation) {
		if itp, err := slv.Interpolate(); err == nil {
			return e.minimize(ctx, slv, itp)
		}
	}
	return e.mgr.Not(g)
}

func (e *Engine) minimize(ctx context.Context, slv solver.Solver, itp term.T) term.T {
	conjuncts := e.mgr.Conjuncts(itp)
	if len(conjuncts) <= 1 {
		return itp
	}
	ok := func(subset []term.T) bool {
		if len(subset) == 0 {
			return false
		}
		slv.Push()
		defer slv.Pop()
		slv.Add(e.mgr.And(subset...), solver.ClassT)
		res, err := slv.Check(ctx)
		return err == nil && res == solver.Unsat
	}
	minimal := quickxplain(nil, conjuncts, ok)
	if len(minimal) == 0 {
		return itp
	}
	return e.mgr.And(minimal...)
}

func (e *Engine) installLemma(level int, lemma, refutes term.T, depth int) {
	if e.frames.AddLemma(level, lemma, frame.Provenance{Parent: term.Invalid, Refutes: refutes, Depth: depth}) {
		e.frames.BumpActivity(lemma)
	}
}

func (e *Engine) installLemmaRange(upTo int, lemma, refutes term.T) {
	for lvl := 0; lvl <= upTo; lvl++ {
		e.installLemma(lvl, lemma, refutes, upTo)
	}
}
