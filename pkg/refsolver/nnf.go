package refsolver

import "github.com/gitrdm/pdkind/internal/term"

// nnf pushes negation down to the leaves of f, so that the only "not"
// nodes left in the result wrap a bare boolean variable (a literal
// that cannot be simplified further). Arithmetic comparisons are
// negated by flipping the operator (not(a<b) becomes a>=b, etc.);
// boolean equality (iff) is expanded into its two implication
// directions.
//
// Grounded in the same recursive-rewrite style as internal/term's
// Substitute/Rename; this particular rewrite (negation normal form
// for a first-order linear-arithmetic fragment) has no single teacher
// analogue and is the reference backend's own preprocessing step,
// documented in DESIGN.md.
func nnf(mgr *term.Manager, f term.T) term.T {
	op, children, ok := mgr.Op(f)
	if !ok {
		return f // variable or constant leaf
	}
	switch op {
	case term.OpAnd:
		out := make([]term.T, len(children))
		for i, c := range children {
			out[i] = nnf(mgr, c)
		}
		return mgr.And(out...)
	case term.OpOr:
		out := make([]term.T, len(children))
		for i, c := range children {
			out[i] = nnf(mgr, c)
		}
		return mgr.Or(out...)
	case term.OpNot:
		return nnfNot(mgr, children[0])
	case term.OpEq:
		if mgr.Sort(children[0]) == term.Bool {
			// a = b for booleans is (not a or b) and (a or not b).
			na, nb := nnf(mgr, children[0]), nnf(mgr, children[1])
			return mgr.And(
				mgr.Or(nnfNot(mgr, na), nb),
				mgr.Or(na, nnfNot(mgr, nb)),
			)
		}
		return f
	default:
		return f
	}
}

func nnfNot(mgr *term.Manager, inner term.T) term.T {
	if b, ok := mgr.BoolLiteral(inner); ok {
		return mgr.Bool(!b)
	}
	op, children, ok := mgr.Op(inner)
	if !ok {
		return mgr.Not(inner) // bare variable: irreducible negative literal
	}
	a := func(i int) term.T { return children[i] }
	switch op {
	case term.OpAnd:
		out := make([]term.T, len(children))
		for i, c := range children {
			out[i] = nnfNot(mgr, c)
		}
		return mgr.Or(out...)
	case term.OpOr:
		out := make([]term.T, len(children))
		for i, c := range children {
			out[i] = nnfNot(mgr, c)
		}
		return mgr.And(out...)
	case term.OpNot:
		return nnf(mgr, children[0])
	case term.OpLt:
		return mgr.App(term.OpGe, a(0), a(1))
	case term.OpLe:
		return mgr.App(term.OpGt, a(0), a(1))
	case term.OpGt:
		return mgr.App(term.OpLe, a(0), a(1))
	case term.OpGe:
		return mgr.App(term.OpLt, a(0), a(1))
	case term.OpEq:
		if mgr.Sort(a(0)) == term.Bool {
			// not(a = b) for booleans is xor(a,b).
			na, nb := nnf(mgr, a(0)), nnf(mgr, a(1))
			return mgr.Or(
				mgr.And(na, nnfNot(mgr, nb)),
				mgr.And(nnfNot(mgr, na), nb),
			)
		}
		// Integer trichotomy: not(a=b) == a<b or a>b.
		return mgr.Or(mgr.App(term.OpLt, a(0), a(1)), mgr.App(term.OpGt, a(0), a(1)))
	default:
		return mgr.Not(inner)
	}
}

// dnfCap bounds the size of the disjunctive-normal-form expansion
// below; beyond it the reference backend reports Unknown rather than
// risk exponential blowup on a formula with many independent ORs,
// consistent with spec.md §1's sanctioned "unknown on resource
// exhaustion" outcome.
const dnfCap = 256

// dnf expands an NNF formula into disjunctive normal form: a slice of
// clauses, each clause a conjunction of literals (atoms or bare/negated
// boolean variables). Returns ok=false if the expansion would exceed
// dnfCap.
func dnf(mgr *term.Manager, f term.T) ([][]term.T, bool) {
	op, children, ok := mgr.Op(f)
	if !ok {
		return [][]term.T{{f}}, true
	}
	switch op {
	case term.OpAnd:
		clauses := [][]term.T{{}}
		for _, c := range children {
			sub, ok := dnf(mgr, c)
			if !ok {
				return nil, false
			}
			var merged [][]term.T
			for _, left := range clauses {
				for _, right := range sub {
					if len(merged) >= dnfCap {
						return nil, false
					}
					combo := append(append([]term.T(nil), left...), right...)
					merged = append(merged, combo)
				}
			}
			clauses = merged
		}
		return clauses, true
	case term.OpOr:
		var out [][]term.T
		for _, c := range children {
			sub, ok := dnf(mgr, c)
			if !ok {
				return nil, false
			}
			out = append(out, sub...)
			if len(out) > dnfCap {
				return nil, false
			}
		}
		return out, true
	case term.OpNot:
		// Only reachable for a negated bare variable post-nnf.
		return [][]term.T{{f}}, true
	default:
		return [][]term.T{{f}}, true
	}
}

// literalToAtom converts one DNF literal into a ratAtom, or reports
// ok=false when the literal cannot be expressed linearly (treated as
// an uninterpreted fact the reference backend cannot reason about, so
// the caller should return Unknown).
func literalToAtom(mgr *term.Manager, lit term.T) (ratAtom, bool) {
	if mgr.IsVar(lit) {
		return boolAtom(lit, true), true
	}
	op, children, ok := mgr.Op(lit)
	if !ok {
		if b, isB := mgr.BoolLiteral(lit); isB {
			if b {
				return ratAtom{form: constForm(0), op: opEQ}, true // trivially true
			}
			return ratAtom{form: constForm(1), op: opEQ}, true // trivially false: 1=0
		}
		return ratAtom{}, false
	}
	switch op {
	case term.OpNot:
		inner := children[0]
		if mgr.IsVar(inner) {
			return boolAtom(inner, false), true
		}
		return ratAtom{}, false
	case term.OpEq, term.OpLt, term.OpLe, term.OpGt, term.OpGe:
		return atomFromComparison(mgr, op, children[0], children[1])
	default:
		return ratAtom{}, false
	}
}
