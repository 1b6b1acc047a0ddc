package pdkind

import (
	"fmt"

	"github.com/gitrdm/pdkind/internal/term"
)

// The term layer (internal/term) models exactly three variable
// namespaces: current, next, input (spec.md §3). K-induction at depth
// d>1 needs d+1 time-indexed copies of the state variables chained by
// the transition relation, which that three-namespace model cannot
// express directly. Rather than grow Namespace into an open-ended
// step-indexed family (which would leak into every other package that
// pattern-matches on term.Current/Next/Input), this file unrolls by
// giving each step its own current-namespace variable distinguished by
// a "$<step>" name suffix, then reuses the existing generic
// term.Substitute to move a formula from the base namespace into a
// given step's variables. This is the standard bounded-unrolling
// technique for k-induction over an SMT term representation, applied
// here within the constraints of the term layer shown to this package.

// stepVar returns the current-namespace variable representing name at
// unrolling step i.
func (d *Driver) stepVar(name string, sort term.Sort, i int) term.T {
	return d.mgr.Var(fmt.Sprintf("%s$%d", name, i), term.Current, sort)
}

// stepInputVar returns the input-namespace variable representing name
// at unrolling step i, distinct per step since each transition consumes
// its own input.
func (d *Driver) stepInputVar(name string, sort term.Sort, i int) term.T {
	return d.mgr.Var(fmt.Sprintf("%s$in%d", name, i), term.Input, sort)
}

// stateSigma builds the substitution moving every state variable from
// namespace ns into its step-i copy.
func (d *Driver) stateSigma(ns term.Namespace, i int) map[term.T]term.T {
	sigma := make(map[term.T]term.T, len(d.sys.ST.Vars))
	for _, v := range d.sys.ST.Vars {
		orig := d.mgr.Var(v.Name, ns, v.Sort)
		sigma[orig] = d.stepVar(v.Name, v.Sort, i)
	}
	return sigma
}

// instantiateState moves a current-namespace formula (a lemma or the
// property) to step i.
func (d *Driver) instantiateState(f term.T, i int) term.T {
	return d.mgr.Substitute(f, d.stateSigma(term.Current, i))
}

// instantiateTrans moves the transition relation so that its
// current-namespace half refers to step i and its next-namespace half
// refers to step i+1, with any input variables given a fresh per-step
// copy.
func (d *Driver) instantiateTrans(i int) term.T {
	sigma := d.stateSigma(term.Current, i)
	for k, v := range d.stateSigma(term.Next, i+1) {
		sigma[k] = v
	}
	for _, v := range d.sys.ST.Vars {
		orig := d.mgr.Var(v.Name, term.Input, v.Sort)
		sigma[orig] = d.stepInputVar(v.Name, v.Sort, i)
	}
	return d.mgr.Substitute(d.sys.Trans, sigma)
}

// stepBackToCurrent maps a formula built over step-i variables back
// onto the base current namespace, used to turn an induction
// counterexample's generalized cube (over step-0 variables) back into
// an ordinary state-type cube usable by the reachability engine and
// counterexample manager.
func (d *Driver) stepBackToCurrent(f term.T, i int) term.T {
	sigma := make(map[term.T]term.T, len(d.sys.ST.Vars))
	for _, v := range d.sys.ST.Vars {
		sigma[d.stepVar(v.Name, v.Sort, i)] = d.mgr.Var(v.Name, term.Current, v.Sort)
	}
	return d.mgr.Substitute(f, sigma)
}
