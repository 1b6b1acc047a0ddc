// Package refsolver is the reference solver backend: a from-scratch,
// in-process implementation of the pkg/solver.Solver contract built
// from Gaussian elimination and Fourier-Motzkin elimination over
// linear integer arithmetic plus a small DNF case-split for boolean
// structure. It exists so that pkg/pdkind and pkg/reach are testable
// end to end without depending on an external SMT process, per
// spec.md §1's scoping of SMT internals out of the core: the core
// only ever talks to the pkg/solver.Solver interface, and refsolver is
// one concrete implementation of it, not a privileged one.
//
// It intentionally reports no Interpolation support (see Features):
// the driver and reachability engine fall back to spec.md §4.4's
// "learn ¬G_i directly" path whenever a backend lacks interpolation,
// and refsolver is the backend that exercises that fallback.
package refsolver

import (
	"context"
	"math/big"

	"github.com/gitrdm/pdkind/internal/term"
	"github.com/gitrdm/pdkind/pkg/errs"
	"github.com/gitrdm/pdkind/pkg/solver"
)

type scopedAssertion struct {
	f     term.T
	class solver.Class
}

// RefSolver is a single incremental assertion context, in the spirit
// of the teacher's constraint_store.go: a flat assertion list plus a
// stack of scope-boundary marks for Push/Pop, rather than a tree of
// child stores.
type RefSolver struct {
	mgr      *term.Manager
	asserted []scopedAssertion
	marks    []int
	varClass map[term.T]solver.Class

	haveResult bool
	lastResult solver.CheckResult
	witness    map[term.T]*big.Rat // valid only when lastResult == Sat
}

// New creates a RefSolver bound to mgr. Terms asserted into it must
// all originate from mgr.
func New(mgr *term.Manager) *RefSolver {
	return &RefSolver{mgr: mgr, varClass: make(map[term.T]solver.Class)}
}

func (r *RefSolver) Add(f term.T, class solver.Class) {
	r.asserted = append(r.asserted, scopedAssertion{f: f, class: class})
	r.haveResult = false
}

func (r *RefSolver) AddVariable(v term.T, class solver.Class) {
	r.varClass[v] = class
}

// Reset clears every assertion, scope mark, and variable-class tag,
// letting this instance be handed back to a solver.SolverPool for
// reuse instead of discarded. Implements solver.Resettable.
func (r *RefSolver) Reset() {
	r.asserted = r.asserted[:0]
	r.marks = r.marks[:0]
	for v := range r.varClass {
		delete(r.varClass, v)
	}
	r.haveResult = false
	r.witness = nil
}

func (r *RefSolver) Push() {
	r.marks = append(r.marks, len(r.asserted))
}

func (r *RefSolver) Pop() error {
	if len(r.marks) == 0 {
		return errs.New(errs.Protocol, "refsolver: pop with no matching push")
	}
	n := r.marks[len(r.marks)-1]
	r.marks = r.marks[:len(r.marks)-1]
	r.asserted = r.asserted[:n]
	r.haveResult = false
	return nil
}

func (r *RefSolver) Check(ctx context.Context) (solver.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return solver.Unknown, errs.Wrap(errs.ResourceExhausted, err, "refsolver: check canceled")
	}
	r.haveResult = false
	r.witness = nil

	if len(r.asserted) == 0 {
		r.haveResult, r.lastResult, r.witness = true, solver.Sat, map[term.T]*big.Rat{}
		return solver.Sat, nil
	}

	fs := make([]term.T, len(r.asserted))
	for i, a := range r.asserted {
		fs[i] = a.f
	}
	whole := r.mgr.And(fs...)
	normalized := nnf(r.mgr, whole)
	clauses, ok := dnf(r.mgr, normalized)
	if !ok {
		r.haveResult, r.lastResult = true, solver.Unknown
		return solver.Unknown, nil
	}

	sawUnknown := false
	for _, clause := range clauses {
		atoms, cok := atomsForClause(r.mgr, clause)
		if !cok {
			sawUnknown = true
			continue
		}
		sat, witness, aok := consistent(atoms)
		if !aok {
			sawUnknown = true
			continue
		}
		if sat {
			r.haveResult, r.lastResult, r.witness = true, solver.Sat, witness
			return solver.Sat, nil
		}
	}
	if sawUnknown {
		r.haveResult, r.lastResult = true, solver.Unknown
		return solver.Unknown, nil
	}
	r.haveResult, r.lastResult = true, solver.Unsat
	return solver.Unsat, nil
}

// atomsForClause converts one DNF clause into ratAtoms, adding the
// implicit 0<=v<=1 range for every boolean variable mentioned so that
// boolean and integer reasoning share a single linear system.
func atomsForClause(mgr *term.Manager, clause []term.T) ([]ratAtom, bool) {
	var atoms []ratAtom
	boolVars := make(map[term.T]bool)
	for _, lit := range clause {
		atom, ok := literalToAtom(mgr, lit)
		if !ok {
			return nil, false
		}
		atoms = append(atoms, atom)
		for v := range atom.form.coeffs {
			if mgr.IsVar(v) && mgr.Sort(v) == term.Bool {
				boolVars[v] = true
			}
		}
	}
	for v := range boolVars {
		atoms = append(atoms,
			ratAtom{form: (&linForm{coeffs: map[term.T]*big.Rat{v: big.NewRat(1, 1)}, c: big.NewRat(-1, 1)}).clone(), op: opLE},
			ratAtom{form: (&linForm{coeffs: map[term.T]*big.Rat{v: big.NewRat(-1, 1)}, c: new(big.Rat)}).clone(), op: opLE},
		)
	}
	return atoms, true
}

func (r *RefSolver) Model() (*solver.Model, error) {
	if !r.haveResult || r.lastResult != solver.Sat {
		return nil, errs.New(errs.Protocol, "refsolver: model requested outside sat")
	}
	m := solver.NewModel()
	seen := make(map[term.T]bool)
	for _, a := range r.asserted {
		for v := range r.mgr.Vars(a.f) {
			if seen[v] {
				continue
			}
			seen[v] = true
			val, ok := r.witness[v]
			if !ok {
				val = big.NewRat(0, 1)
			}
			if r.mgr.Sort(v) == term.Bool {
				m.Bools[v] = val.Sign() != 0
			} else {
				m.Ints[v] = val.Num().Int64() / val.Denom().Int64()
			}
		}
	}
	return m, nil
}

func (r *RefSolver) Generalize(direction solver.Direction, model *solver.Model) (term.T, error) {
	if !r.haveResult || r.lastResult != solver.Sat {
		return term.Invalid, errs.New(errs.Protocol, "refsolver: generalize requested outside sat")
	}
	target := solver.ClassA
	if direction == solver.Forward {
		target = solver.ClassB
	}
	var lits []term.T
	for v, class := range r.varClass {
		if class != target {
			continue
		}
		if r.mgr.Sort(v) == term.Bool {
			b, ok := model.Bools[v]
			if !ok {
				continue
			}
			lits = append(lits, r.mgr.Eq(v, r.mgr.Bool(b)))
		} else {
			n, ok := model.Ints[v]
			if !ok {
				continue
			}
			lits = append(lits, r.mgr.Eq(v, r.mgr.Int(n)))
		}
	}
	if len(lits) == 0 {
		return r.mgr.Bool(true), nil
	}
	return r.mgr.And(lits...), nil
}

func (r *RefSolver) Interpolate() (term.T, error) {
	return term.Invalid, errs.New(errs.Protocol, "refsolver: backend does not support interpolation")
}

func (r *RefSolver) Features() solver.FeatureSet {
	return solver.FeatureSet(solver.Generalization)
}
