// Package ts holds the transition-system data model of spec.md §3: an
// ordered state type with three namespaces, and the (Init, Trans) pair
// that together with it forms a transition system. Constructing a
// TransitionSystem value from an input language is explicitly out of
// scope for the pd-kind core (spec.md §1); this package also provides
// a minimal stand-in frontend (an S-expression reader for an MCMT-like
// dialect, plus a CHC-to-TS lowering) so the core is testable without a
// real production parser, per SPEC_FULL.md's discussion of §4.1 and
// §6.2.
package ts

import "github.com/gitrdm/pdkind/internal/term"

// Var describes one state variable of the system.
type Var struct {
	Name string
	Sort term.Sort
}

// StateType is an ordered list of typed variables together with the
// term-manager handles for each variable's current/next/input
// namespace renamings (spec.md §3).
type StateType struct {
	Mgr  *term.Manager
	Vars []Var
}

// NewStateType builds a state type over mgr for the given variables.
func NewStateType(mgr *term.Manager, vars ...Var) *StateType {
	return &StateType{Mgr: mgr, Vars: vars}
}

// Current returns the current-namespace term for variable name.
func (st *StateType) Current(name string) term.T { return st.varIn(name, term.Current) }

// NextVar returns the next-namespace term for variable name.
func (st *StateType) NextVar(name string) term.T { return st.varIn(name, term.Next) }

// InputVar returns the input-namespace term for variable name.
func (st *StateType) InputVar(name string) term.T { return st.varIn(name, term.Input) }

func (st *StateType) varIn(name string, ns term.Namespace) term.T {
	for _, v := range st.Vars {
		if v.Name == name {
			return st.Mgr.Var(name, ns, v.Sort)
		}
	}
	panic("ts: unknown state variable " + name)
}

// Rewrite rewrites formula f from namespace "from" to namespace "to".
func (st *StateType) Rewrite(f term.T, from, to term.Namespace) term.T {
	return st.Mgr.Rename(f, from, to)
}

// TransitionSystem is (ST, Init, Trans): immutable for the duration of
// a query (spec.md §3).
type TransitionSystem struct {
	ST    *StateType
	Init  term.T // over Current
	Trans term.T // over Current and Next (and optionally Input)
}

// Property is a safety property over the current-state namespace.
type Property struct {
	Formula term.T
}
