package reach

import "github.com/gitrdm/pdkind/internal/term"

// quickxplain finds a minimal subset of c that, combined with base,
// satisfies ok (ok is assumed monotonic: ok(S) and S⊆T implies
// ok(T)). This is Junker's QuickXplain algorithm, used here to
// minimize a learned lemma's conjuncts (spec.md §4.4 step 3:
// "strengthen I by quickxplain minimization over its conjuncts").
//
// No teacher file implements this; it is a generic, from-scratch
// recursive bisection algorithm, documented in DESIGN.md as a
// justified stdlib-only addition (a textbook algorithm over a
// conjunct list, not a concern any example's domain dependency
// covers).
func quickxplain(base, c []term.T, ok func([]term.T) bool) []term.T {
	if len(c) == 0 || ok(base) {
		return nil
	}
	if len(c) == 1 {
		return append([]term.T(nil), c...)
	}
	mid := len(c) / 2
	c1, c2 := c[:mid], c[mid:]

	baseWithC1 := concat(base, c1)
	d2 := quickxplain(baseWithC1, c2, ok)

	baseWithD2 := concat(base, d2)
	d1 := quickxplain(baseWithD2, c1, ok)

	return append(d1, d2...)
}

func concat(a, b []term.T) []term.T {
	out := make([]term.T, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
