package refsolver

import (
	"math/big"

	"github.com/gitrdm/pdkind/internal/term"
)

// linForm is sum(coeffs[v]*v) + const, over the rationals, with
// integer-valued inputs throughout (every literal and coefficient the
// term layer can construct is an integer, so exactness with
// math/big.Rat costs nothing and buys soundness for the reference
// backend's elimination procedure).
type linForm struct {
	coeffs map[term.T]*big.Rat
	c      *big.Rat
}

func newLinForm() *linForm {
	return &linForm{coeffs: make(map[term.T]*big.Rat), c: new(big.Rat)}
}

func constForm(v int64) *linForm {
	f := newLinForm()
	f.c = big.NewRat(v, 1)
	return f
}

func varForm(v term.T) *linForm {
	f := newLinForm()
	f.coeffs[v] = big.NewRat(1, 1)
	return f
}

func (f *linForm) clone() *linForm {
	g := newLinForm()
	g.c.Set(f.c)
	for v, c := range f.coeffs {
		g.coeffs[v] = new(big.Rat).Set(c)
	}
	return g
}

func (f *linForm) addInPlace(o *linForm) {
	f.c.Add(f.c, o.c)
	for v, c := range o.coeffs {
		if cur, ok := f.coeffs[v]; ok {
			cur.Add(cur, c)
			if cur.Sign() == 0 {
				delete(f.coeffs, v)
			}
		} else {
			f.coeffs[v] = new(big.Rat).Set(c)
		}
	}
}

func (f *linForm) negate() *linForm {
	g := newLinForm()
	g.c.Neg(f.c)
	for v, c := range f.coeffs {
		g.coeffs[v] = new(big.Rat).Neg(c)
	}
	return g
}

func (f *linForm) scale(k *big.Rat) *linForm {
	g := newLinForm()
	g.c.Mul(f.c, k)
	for v, c := range f.coeffs {
		nc := new(big.Rat).Mul(c, k)
		if nc.Sign() != 0 {
			g.coeffs[v] = nc
		}
	}
	return g
}

// isConst reports whether f has no variables.
func (f *linForm) isConst() bool { return len(f.coeffs) == 0 }

// linearize computes the linear form of an integer-sorted term, or
// reports ok=false if t is not expressible as a linear combination
// (e.g. a product of two non-constant subterms). Grounded in style by
// the teacher's recursive term-walking (internal/term mirrors
// pkg/minikanren/core.go's Term walkers); the elimination algorithm
// itself (Gaussian elimination + Fourier-Motzkin, see simplex.go) has
// no teacher precedent and is documented in DESIGN.md as a from-
// scratch, justified stdlib-only addition.
func linearize(mgr *term.Manager, t term.T) (*linForm, bool) {
	if mgr.IsVar(t) {
		if mgr.Sort(t) == term.Bool {
			return nil, false
		}
		return varForm(t), true
	}
	op, children, ok := mgr.Op(t)
	if !ok {
		if v, isInt := mgr.IntLiteral(t); isInt {
			return constForm(v), true
		}
		return nil, false
	}
	switch op {
	case term.OpAdd:
		sum := constForm(0)
		for _, c := range children {
			cf, ok := linearize(mgr, c)
			if !ok {
				return nil, false
			}
			sum.addInPlace(cf)
		}
		return sum, true
	case term.OpSub:
		if len(children) == 0 {
			return nil, false
		}
		first, ok := linearize(mgr, children[0])
		if !ok {
			return nil, false
		}
		sum := first.clone()
		for _, c := range children[1:] {
			cf, ok := linearize(mgr, c)
			if !ok {
				return nil, false
			}
			sum.addInPlace(cf.negate())
		}
		return sum, true
	case term.OpMul:
		acc := big.NewRat(1, 1)
		var nonConst *linForm
		for _, c := range children {
			cf, ok := linearize(mgr, c)
			if !ok {
				return nil, false
			}
			if cf.isConst() {
				acc.Mul(acc, cf.c)
				continue
			}
			if nonConst != nil {
				return nil, false // product of two non-constants: not linear
			}
			nonConst = cf
		}
		if nonConst == nil {
			return constForm(0).addC(acc), true
		}
		return nonConst.scale(acc), true
	default:
		return nil, false
	}
}

func (f *linForm) addC(v *big.Rat) *linForm {
	g := f.clone()
	g.c.Add(g.c, v)
	return g
}

// compOp is the comparison operator of a normalized atom:
// the atom always reads "form OP 0".
type compOp int

const (
	opEQ compOp = iota
	opLE
)

// ratAtom is one linear constraint: form OP 0, in a canonical,
// integer-tight form (strict '<' is folded into '<=' by the +1 shift,
// sound because every variable here ranges over the integers).
type ratAtom struct {
	form *linForm
	op   compOp
}

func atomFromComparison(mgr *term.Manager, op term.Op, a, b term.T) (ratAtom, bool) {
	af, ok1 := linearize(mgr, a)
	bf, ok2 := linearize(mgr, b)
	if !ok1 || !ok2 {
		return ratAtom{}, false
	}
	diff := func(x, y *linForm) *linForm {
		d := x.clone()
		d.addInPlace(y.negate())
		return d
	}
	switch op {
	case term.OpEq:
		return ratAtom{form: diff(af, bf), op: opEQ}, true
	case term.OpLe:
		return ratAtom{form: diff(af, bf), op: opLE}, true
	case term.OpLt:
		// a < b  <=>  a - b + 1 <= 0  (integers)
		f := diff(af, bf)
		f.c.Add(f.c, big.NewRat(1, 1))
		return ratAtom{form: f, op: opLE}, true
	case term.OpGe:
		// a >= b  <=>  b - a <= 0
		return ratAtom{form: diff(bf, af), op: opLE}, true
	case term.OpGt:
		// a > b  <=>  b - a + 1 <= 0
		f := diff(bf, af)
		f.c.Add(f.c, big.NewRat(1, 1))
		return ratAtom{form: f, op: opLE}, true
	default:
		return ratAtom{}, false
	}
}

// boolAtom builds the atom "v = 1" (positive) or "v = 0" (negative)
// for a boolean leaf variable, unifying booleans into the same linear
// system as integers (every boolean variable also gets an implicit
// 0 <= v <= 1 range constraint, enforced in simplex.go).
func boolAtom(v term.T, positive bool) ratAtom {
	f := varForm(v)
	if positive {
		f.c.Add(f.c, big.NewRat(-1, 1))
	}
	return ratAtom{form: f, op: opEQ}
}
