package pdkind

import (
	"context"

	"github.com/gitrdm/pdkind/internal/term"
	"github.com/gitrdm/pdkind/pkg/cex"
	"github.com/gitrdm/pdkind/pkg/errs"
	"github.com/gitrdm/pdkind/pkg/frame"
	"github.com/gitrdm/pdkind/pkg/solver"
)

// pushResultKind is the outcome of the (k,d)-induction check itself.
// The third, "retry" outcome spec.md §4.6 describes lives one level up,
// in the driver's pushFailure handling: a failed induction check only
// produces a retry once extendInductionFailure has confirmed the
// candidate counterexample was spurious and the frames it touched have
// already been strengthened.
type pushResultKind int

const (
	pushSuccess pushResultKind = iota
	pushFailure
)

type pushOutcome struct {
	kind    pushResultKind
	cexNode cex.NodeID
}

// pushObligation implements spec.md §4.6's "attempt to push obligation
// O = (F, d)" step as a (k, d)-induction check: F holds relatively to
// frame[level] under d steps of the transition relation.
//
// The assertion shape follows the classical relative k-induction
// formulation rather than the spec's literal wording (which
// under-specifies whether F is asserted as a hypothesis at
// intermediate steps): frame[level] ∧ F at step 0, Trans chaining
// steps 0..d-1, F again as the induction hypothesis at steps 1..d-1,
// and ¬F at step d. A more literal reading that omits the hypothesis
// at intermediate steps is unsound for d>1, so this is not a judgment
// call left open; it is what "k-induction" means.
func (d *Driver) pushObligation(ctx context.Context, obl *frame.Obligation, level int) (pushOutcome, error) {
	depth := obl.Depth
	if depth < 1 {
		depth = 1
	}

	d.inductionSolver.Push()
	defer d.inductionSolver.Pop()

	for _, v := range d.sys.ST.Vars {
		d.inductionSolver.AddVariable(d.stepVar(v.Name, v.Sort, 0), solver.ClassA)
	}

	for _, l := range d.frames.Frame(level) {
		d.inductionSolver.Add(d.instantiateState(l, 0), solver.ClassA)
	}
	d.inductionSolver.Add(d.instantiateState(obl.F, 0), solver.ClassA)

	for i := 0; i < depth; i++ {
		d.inductionSolver.Add(d.instantiateTrans(i), solver.ClassT)
	}
	for i := 1; i < depth; i++ {
		d.inductionSolver.Add(d.instantiateState(obl.F, i), solver.ClassA)
	}
	d.inductionSolver.Add(d.mgr.Not(d.instantiateState(obl.F, depth)), solver.ClassB)

	res, err := d.inductionSolver.Check(ctx)
	if err != nil {
		return pushOutcome{}, err
	}
	switch res {
	case solver.Unsat:
		return pushOutcome{kind: pushSuccess}, nil
	case solver.Sat:
		model, err := d.inductionSolver.Model()
		if err != nil {
			return pushOutcome{}, err
		}
		cube, err := d.inductionSolver.Generalize(solver.Backward, model)
		if err != nil {
			return pushOutcome{}, err
		}
		g := d.stepBackToCurrent(cube, 0)
		node := d.cexMgr.Add(g, level, cex.NodeID(0), depth)
		return pushOutcome{kind: pushFailure, cexNode: node}, nil
	default:
		return pushOutcome{}, errs.New(errs.BackendUnknown, "pdkind: induction check returned unknown for depth %d at frame %d", depth, level)
	}
}

// extendInductionFailure implements spec.md §4.6's "extend the
// induction-failure counterexample": the candidate G produced by a
// failed push_obligation is only a counterexample to *induction*, not
// necessarily to the property itself. This asks the reachability
// engine whether G is actually reachable within level transitions of
// Init. If so the run is genuinely invalid and the trace is returned.
// If not, the reachability engine has already installed a blocking
// lemma into the frames it touched (as a side effect of Reachable),
// so the caller should simply retry its obligation.
func (d *Driver) extendInductionFailure(ctx context.Context, node cex.NodeID, level int) (bool, []term.T, error) {
	n, ok := d.cexMgr.Get(node)
	if !ok {
		return false, nil, errs.New(errs.Internal, "pdkind: dangling counterexample node %d", node)
	}
	reachable, leaf, err := d.reach.Reachable(ctx, n.G, level, node)
	if err != nil {
		return false, nil, err
	}
	if !reachable {
		return false, nil, nil
	}
	return true, d.cexMgr.TraceTo(leaf), nil
}
