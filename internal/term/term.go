// Package term implements the immutable expression DAG that the pd-kind
// core treats as an external collaborator (see SPEC_FULL.md §4.1): a
// manager interns subterms, substitutes variables, and relocates
// references after garbage collection.
//
// The design follows the teacher repo's Term/Var/Atom interning
// discipline (gitrdm/gokanlogic pkg/minikanren/core.go) but generalizes
// a relational term to a typed first-order expression over three
// variable namespaces (current, next, input), as required by the state
// type of spec.md §3.
package term

import (
	"fmt"
	"strings"
)

// T is an opaque handle into a Manager's arena. It is totally ordered
// (by plain integer comparison) for deterministic tie-breaking, and
// stable for the lifetime of a Manager but subject to relocation by
// Compact.
type T int

// Invalid is the zero value of T; no real term is ever assigned it.
const Invalid T = 0

// Namespace tags a variable's role in the state type: current-state,
// next-state (primed), or input (nondeterministic choice).
type Namespace int

const (
	Current Namespace = iota
	Next
	Input
)

func (n Namespace) String() string {
	switch n {
	case Current:
		return "current"
	case Next:
		return "next"
	case Input:
		return "input"
	default:
		return "unknown"
	}
}

// Sort is the type of a term.
type Sort int

const (
	Bool Sort = iota
	Int
	Real
)

func (s Sort) String() string {
	switch s {
	case Bool:
		return "Bool"
	case Int:
		return "Int"
	case Real:
		return "Real"
	default:
		return "?"
	}
}

// Op names the builtin operators the core's algorithms rely on for
// algebraic normalization (conjuncts/disjuncts extraction, negation
// pushing). Hosts may introduce additional uninterpreted operators by
// name; the core only special-cases these.
type Op string

const (
	OpAnd Op = "and"
	OpOr  Op = "or"
	OpNot Op = "not"
	OpEq  Op = "="
	OpLt  Op = "<"
	OpLe  Op = "<="
	OpGt  Op = ">"
	OpGe  Op = ">="
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpIte Op = "ite"
)

type kind int

const (
	kVar kind = iota
	kConst
	kApp
)

type node struct {
	kind kind
	sort Sort

	// kVar
	varName string
	ns      Namespace

	// kConst
	boolVal bool
	intVal  int64

	// kApp
	op       Op
	children []T
}

// Manager interns every distinct subterm into a single arena, giving
// each distinct term a stable, densely-packed, totally ordered T. This
// mirrors the teacher's practice of giving every *Var a dense int64 id
// (pkg/minikanren/core.go).
type Manager struct {
	arena []node       // arena[0] is unused (Invalid)
	index map[string]T // structural-hash -> T, for interning
}

// NewManager creates an empty term manager.
func NewManager() *Manager {
	m := &Manager{
		arena: make([]node, 1), // reserve index 0 for Invalid
		index: make(map[string]T),
	}
	return m
}

func (m *Manager) intern(n node) T {
	key := n.structKey()
	if t, ok := m.index[key]; ok {
		return t
	}
	m.arena = append(m.arena, n)
	t := T(len(m.arena) - 1)
	m.index[key] = t
	return t
}

func (n node) structKey() string {
	var b strings.Builder
	switch n.kind {
	case kVar:
		fmt.Fprintf(&b, "v:%s:%d:%d", n.varName, n.ns, n.sort)
	case kConst:
		fmt.Fprintf(&b, "c:%d:%t:%d", n.sort, n.boolVal, n.intVal)
	case kApp:
		fmt.Fprintf(&b, "a:%s", n.op)
		for _, c := range n.children {
			fmt.Fprintf(&b, ":%d", c)
		}
	}
	return b.String()
}

// Var interns (or looks up) a variable named name in namespace ns with
// the given sort. The same (name, ns, sort) triple always yields the
// same T.
func (m *Manager) Var(name string, ns Namespace, sort Sort) T {
	return m.intern(node{kind: kVar, varName: name, ns: ns, sort: sort})
}

// Bool interns a boolean literal.
func (m *Manager) Bool(v bool) T {
	return m.intern(node{kind: kConst, sort: Bool, boolVal: v})
}

// Int interns an integer literal.
func (m *Manager) Int(v int64) T {
	return m.intern(node{kind: kConst, sort: Int, intVal: v})
}

// App interns an application of op to children, with standard
// algebraic normalization for the associative/commutative boolean
// connectives (flattening nested and/or and dropping exact duplicate
// children). Children keep their construction order; they are not
// sorted, so the same conjuncts given in a different order intern to a
// different T.
func (m *Manager) App(op Op, children ...T) T {
	children = m.normalize(op, children)
	sort := m.resultSort(op)
	return m.intern(node{kind: kApp, op: op, children: children, sort: sort})
}

func (m *Manager) resultSort(op Op) Sort {
	switch op {
	case OpAnd, OpOr, OpNot, OpEq, OpLt, OpLe, OpGt, OpGe:
		return Bool
	default:
		return Int
	}
}

// normalize flattens nested and/or and removes exact duplicates,
// keeping the remaining conjuncts/disjuncts in construction order.
func (m *Manager) normalize(op Op, children []T) []T {
	if op != OpAnd && op != OpOr {
		out := make([]T, len(children))
		copy(out, children)
		return out
	}
	seen := make(map[T]bool)
	var out []T
	var flatten func(T)
	flatten = func(t T) {
		n := m.arena[t]
		if n.kind == kApp && n.op == op {
			for _, c := range n.children {
				flatten(c)
			}
			return
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, c := range children {
		flatten(c)
	}
	return out
}

// And builds a conjunction; And() with no arguments is "true".
func (m *Manager) And(ts ...T) T {
	if len(ts) == 0 {
		return m.Bool(true)
	}
	if len(ts) == 1 {
		return ts[0]
	}
	return m.App(OpAnd, ts...)
}

// Or builds a disjunction; Or() with no arguments is "false".
func (m *Manager) Or(ts ...T) T {
	if len(ts) == 0 {
		return m.Bool(false)
	}
	if len(ts) == 1 {
		return ts[0]
	}
	return m.App(OpOr, ts...)
}

// Not negates f, collapsing double negation.
func (m *Manager) Not(f T) T {
	n := m.arena[f]
	if n.kind == kApp && n.op == OpNot {
		return n.children[0]
	}
	return m.App(OpNot, f)
}

// Eq builds an equality.
func (m *Manager) Eq(a, b T) T { return m.App(OpEq, a, b) }

// IsVar reports whether t is a variable term.
func (m *Manager) IsVar(t T) bool { return m.arena[t].kind == kVar }

// VarName returns the variable's name (panics if t is not a variable).
func (m *Manager) VarName(t T) string {
	n := m.arena[t]
	if n.kind != kVar {
		panic("term: VarName on non-variable")
	}
	return n.varName
}

// VarNamespace returns the variable's namespace (panics if t is not a
// variable).
func (m *Manager) VarNamespace(t T) Namespace {
	n := m.arena[t]
	if n.kind != kVar {
		panic("term: VarNamespace on non-variable")
	}
	return n.ns
}

// Sort returns t's sort.
func (m *Manager) Sort(t T) Sort { return m.arena[t].sort }

// IsConst reports whether t is a literal constant.
func (m *Manager) IsConst(t T) bool { return m.arena[t].kind == kConst }

// IntLiteral returns t's integer value if t is an integer constant.
func (m *Manager) IntLiteral(t T) (int64, bool) {
	n := m.arena[t]
	if n.kind != kConst || n.sort != Int {
		return 0, false
	}
	return n.intVal, true
}

// BoolLiteral returns t's boolean value if t is a boolean constant.
func (m *Manager) BoolLiteral(t T) (bool, bool) {
	n := m.arena[t]
	if n.kind != kConst || n.sort != Bool {
		return false, false
	}
	return n.boolVal, true
}

// Op returns t's operator and children if t is an application;
// ok is false otherwise.
func (m *Manager) Op(t T) (op Op, children []T, ok bool) {
	n := m.arena[t]
	if n.kind != kApp {
		return "", nil, false
	}
	return n.op, n.children, true
}

// Conjuncts flattens a top-level conjunction into its conjuncts; a
// non-conjunction formula is its own single conjunct.
func (m *Manager) Conjuncts(f T) []T {
	n := m.arena[f]
	if n.kind == kApp && n.op == OpAnd {
		return append([]T(nil), n.children...)
	}
	return []T{f}
}

// Disjuncts flattens a top-level disjunction into its disjuncts; a
// non-disjunction formula is its own single disjunct.
func (m *Manager) Disjuncts(f T) []T {
	n := m.arena[f]
	if n.kind == kApp && n.op == OpOr {
		return append([]T(nil), n.children...)
	}
	return []T{f}
}

// String renders t as an S-expression.
func (m *Manager) String(t T) string {
	n := m.arena[t]
	switch n.kind {
	case kVar:
		return fmt.Sprintf("%s!%s", n.varName, n.ns)
	case kConst:
		if n.sort == Bool {
			return fmt.Sprintf("%t", n.boolVal)
		}
		return fmt.Sprintf("%d", n.intVal)
	case kApp:
		parts := make([]string, len(n.children))
		for i, c := range n.children {
			parts[i] = m.String(c)
		}
		return "(" + string(n.op) + " " + strings.Join(parts, " ") + ")"
	default:
		return "?"
	}
}

// Substitute rewrites f by replacing every occurrence of a key in sigma
// with its value, per spec.md §4.1.
func (m *Manager) Substitute(f T, sigma map[T]T) T {
	if v, ok := sigma[f]; ok {
		return v
	}
	n := m.arena[f]
	if n.kind != kApp {
		return f
	}
	children := make([]T, len(n.children))
	changed := false
	for i, c := range n.children {
		nc := m.Substitute(c, sigma)
		children[i] = nc
		if nc != c {
			changed = true
		}
	}
	if !changed {
		return f
	}
	return m.App(n.op, children...)
}

// Rename rewrites every free variable of f from namespace "from" into
// namespace "to", keeping the variable's name and sort, per
// spec.md §4.1. Variables not in namespace "from" are left alone.
func (m *Manager) Rename(f T, from, to Namespace) T {
	return m.renameMemo(f, from, to, make(map[T]T))
}

func (m *Manager) renameMemo(f T, from, to Namespace, memo map[T]T) T {
	if r, ok := memo[f]; ok {
		return r
	}
	n := m.arena[f]
	var result T
	switch n.kind {
	case kVar:
		if n.ns == from {
			result = m.Var(n.varName, to, n.sort)
		} else {
			result = f
		}
	case kConst:
		result = f
	case kApp:
		children := make([]T, len(n.children))
		for i, c := range n.children {
			children[i] = m.renameMemo(c, from, to, memo)
		}
		result = m.App(n.op, children...)
	}
	memo[f] = result
	return result
}

// Vars returns the set of free variables mentioned in f.
func (m *Manager) Vars(f T) map[T]bool {
	out := make(map[T]bool)
	var walk func(T)
	seen := make(map[T]bool)
	walk = func(t T) {
		if seen[t] {
			return
		}
		seen[t] = true
		n := m.arena[t]
		switch n.kind {
		case kVar:
			out[t] = true
		case kApp:
			for _, c := range n.children {
				walk(c)
			}
		}
	}
	walk(f)
	return out
}
