package refsolver

import (
	"math/big"
	"sort"

	"github.com/gitrdm/pdkind/internal/term"
)

// maxSimplexVars/maxSimplexIneqs bound the Gaussian-elimination +
// Fourier-Motzkin procedure below; beyond them consistent reports
// ok=false (meaning: report Unknown) rather than risk the Fourier-
// Motzkin elimination's worst-case doubling of inequality count per
// step. The scenarios the driver exercises have a handful of state
// variables, so these caps are never load-bearing in practice.
const (
	maxSimplexVars   = 24
	maxSimplexIneqs  = 2048
	maxSimplexEqs    = 256
	fmCombineWarnCap = 4096
)

type eqElim struct {
	v    term.T
	expr *linForm
}

type fmElim struct {
	v        term.T
	pos, neg []ratAtom
}

// consistent decides satisfiability of a conjunction of ratAtoms over
// the rationals, using Gaussian elimination to discharge equalities
// and Fourier-Motzkin elimination to discharge the remaining
// inequalities, then reconstructs an integer witness. ok=false means
// the procedure could not decide the system (too large, or the only
// feasible point found is non-integral) and the caller should treat
// the query as Unknown.
//
// This elimination pipeline is a from-scratch addition with no direct
// teacher analogue (documented in DESIGN.md); it plays the role the
// teacher's fd_solver.go fixed-point domain propagation plays for
// finite-domain puzzles, generalized to unbounded linear arithmetic.
func consistent(atoms []ratAtom) (sat bool, witness map[term.T]*big.Rat, ok bool) {
	varSet := make(map[term.T]bool)
	for _, a := range atoms {
		for v := range a.form.coeffs {
			varSet[v] = true
		}
	}
	if len(varSet) > maxSimplexVars || len(atoms) > maxSimplexIneqs {
		return false, nil, false
	}

	var eqs []ratAtom
	var ineqs []ratAtom
	for _, a := range atoms {
		switch a.op {
		case opEQ:
			eqs = append(eqs, a)
		case opLE:
			ineqs = append(ineqs, a)
		}
	}
	if len(eqs) > maxSimplexEqs {
		return false, nil, false
	}

	var eqOrder []eqElim
	for len(eqs) > 0 {
		cur := eqs[0]
		eqs = eqs[1:]
		v, coeff, has := pickPivot(cur.form)
		if !has {
			if cur.form.c.Sign() != 0 {
				return false, nil, true // 0 = nonzero const
			}
			continue // 0 = 0, redundant
		}
		remainder := cur.form.clone()
		delete(remainder.coeffs, v)
		inv := new(big.Rat).Inv(coeff)
		expr := remainder.negate().scale(inv)
		eqOrder = append(eqOrder, eqElim{v: v, expr: expr})

		for i := range eqs {
			eqs[i].form = substituteVar(eqs[i].form, v, expr)
		}
		for i := range ineqs {
			ineqs[i].form = substituteVar(ineqs[i].form, v, expr)
		}
	}

	remaining := make(map[term.T]bool)
	for _, a := range ineqs {
		for v := range a.form.coeffs {
			remaining[v] = true
		}
	}
	order := sortedVars(remaining)

	current := ineqs
	var fmOrder []fmElim
	for _, v := range order {
		var pos, neg, zero []ratAtom
		for _, a := range current {
			c, has := a.form.coeffs[v]
			switch {
			case !has || c.Sign() == 0:
				zero = append(zero, a)
			case c.Sign() > 0:
				pos = append(pos, a)
			default:
				neg = append(neg, a)
			}
		}
		fmOrder = append(fmOrder, fmElim{v: v, pos: pos, neg: neg})

		next := zero
		for _, p := range pos {
			for _, n := range neg {
				if len(next) >= fmCombineWarnCap {
					return false, nil, false
				}
				next = append(next, combine(p, n, v))
			}
		}
		current = next
	}

	for _, a := range current {
		if a.form.c.Sign() > 0 {
			return false, nil, true // infeasible: constant > 0 <= 0 fails
		}
	}

	assignment := make(map[term.T]*big.Rat)
	for i := len(fmOrder) - 1; i >= 0; i-- {
		step := fmOrder[i]
		lo, hasLo := (*big.Rat)(nil), false
		hi, hasHi := (*big.Rat)(nil), false
		for _, n := range step.neg {
			restN := n.form.clone()
			delete(restN.coeffs, step.v)
			val := evalForm(restN, assignment)
			b := n.form.coeffs[step.v]
			bound := new(big.Rat).Quo(new(big.Rat).Neg(val), b)
			if !hasLo || bound.Cmp(lo) > 0 {
				lo, hasLo = bound, true
			}
		}
		for _, p := range step.pos {
			restP := p.form.clone()
			delete(restP.coeffs, step.v)
			val := evalForm(restP, assignment)
			a := p.form.coeffs[step.v]
			bound := new(big.Rat).Quo(new(big.Rat).Neg(val), a)
			if !hasHi || bound.Cmp(hi) < 0 {
				hi, hasHi = bound, true
			}
		}
		chosen := pickIntWitness(lo, hasLo, hi, hasHi)
		if chosen == nil {
			return false, nil, false
		}
		assignment[step.v] = chosen
	}
	for i := len(eqOrder) - 1; i >= 0; i-- {
		step := eqOrder[i]
		assignment[step.v] = evalForm(step.expr, assignment)
	}

	for v := range varSet {
		if _, ok := assignment[v]; !ok {
			assignment[v] = big.NewRat(0, 1) // free variable, unconstrained
		}
		if !assignment[v].IsInt() {
			return false, nil, false // non-integral witness: reference backend can't certify
		}
	}
	return true, assignment, true
}

func pickPivot(f *linForm) (term.T, *big.Rat, bool) {
	vars := sortedVars(varsOf(f))
	if len(vars) == 0 {
		return 0, nil, false
	}
	v := vars[0]
	return v, f.coeffs[v], true
}

func varsOf(f *linForm) map[term.T]bool {
	out := make(map[term.T]bool, len(f.coeffs))
	for v := range f.coeffs {
		out[v] = true
	}
	return out
}

func sortedVars(vs map[term.T]bool) []term.T {
	out := make([]term.T, 0, len(vs))
	for v := range vs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func substituteVar(f *linForm, v term.T, expr *linForm) *linForm {
	coeff, ok := f.coeffs[v]
	if !ok {
		return f
	}
	g := f.clone()
	delete(g.coeffs, v)
	g.addInPlace(expr.scale(coeff))
	return g
}

// combine eliminates v from p (aP*v + restP <= 0, aP>0) and n
// (bN*v + restN <= 0, bN<0) via the standard Fourier-Motzkin
// cross-multiplication, producing a new inequality free of v.
func combine(p, n ratAtom, v term.T) ratAtom {
	aP := p.form.coeffs[v]
	bN := n.form.coeffs[v]
	restP := p.form.clone()
	delete(restP.coeffs, v)
	restN := n.form.clone()
	delete(restN.coeffs, v)

	term1 := restN.scale(aP)
	negB := new(big.Rat).Neg(bN)
	term2 := restP.scale(negB)
	term1.addInPlace(term2)
	return ratAtom{form: term1, op: opLE}
}

func evalForm(f *linForm, assignment map[term.T]*big.Rat) *big.Rat {
	out := new(big.Rat).Set(f.c)
	for v, coeff := range f.coeffs {
		val, ok := assignment[v]
		if !ok {
			val = big.NewRat(0, 1)
		}
		out.Add(out, new(big.Rat).Mul(coeff, val))
	}
	return out
}

// pickIntWitness returns an integer within [lo,hi] (treating a missing
// bound as unbounded): ceil(lo) when a lower bound exists, floor(hi)
// when only an upper bound exists, and 0 when neither does. It returns
// nil only when both bounds exist and no integer lies between them.
func pickIntWitness(lo *big.Rat, hasLo bool, hi *big.Rat, hasHi bool) *big.Rat {
	switch {
	case hasLo && hasHi:
		c := ceilRat(lo)
		if c.Cmp(hi) > 0 {
			return nil
		}
		return c
	case hasLo:
		return ceilRat(lo)
	case hasHi:
		return floorRat(hi)
	default:
		return big.NewRat(0, 1)
	}
}

// floorRat and ceilRat rely on big.Int.Div implementing Euclidean
// division: since a big.Rat's denominator is always normalized
// positive, Num()/Denom() via Div already yields floor(r) for both
// positive and negative r.
func floorRat(r *big.Rat) *big.Rat {
	q := new(big.Int).Div(r.Num(), r.Denom())
	return new(big.Rat).SetInt(q)
}

func ceilRat(r *big.Rat) *big.Rat {
	if r.IsInt() {
		return new(big.Rat).Set(r)
	}
	q := new(big.Int).Div(r.Num(), r.Denom())
	q.Add(q, big.NewInt(1))
	return new(big.Rat).SetInt(q)
}
