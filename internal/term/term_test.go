package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarInterningIsStable(t *testing.T) {
	m := NewManager()
	x1 := m.Var("x", Current, Int)
	x2 := m.Var("x", Current, Int)
	y := m.Var("x", Next, Int)

	assert.Equal(t, x1, x2, "same (name, namespace) pair must intern to the same T")
	assert.NotEqual(t, x1, y, "different namespaces must not collide")
	assert.True(t, m.IsVar(x1))
	assert.Equal(t, "x", m.VarName(x1))
	assert.Equal(t, Current, m.VarNamespace(x1))
}

func TestAndFlattensAndDedupes(t *testing.T) {
	m := NewManager()
	a := m.Bool(true)
	b := m.Bool(false)

	inner := m.And(a, b)
	outer := m.And(inner, a) // a repeated, should be deduped by normalize

	op, children, ok := m.Op(outer)
	require.True(t, ok)
	assert.Equal(t, OpAnd, op)
	assert.Len(t, children, 2, "nested and + duplicate should flatten to {a, b}")
}

func TestAndEmptyAndSingleton(t *testing.T) {
	m := NewManager()
	assert.Equal(t, m.Bool(true), m.And())
	x := m.Var("x", Current, Bool)
	assert.Equal(t, x, m.And(x), "a single-element And should return its argument unwrapped")
}

func TestNotCollapsesDoubleNegation(t *testing.T) {
	m := NewManager()
	x := m.Var("x", Current, Bool)
	nx := m.Not(x)
	nnx := m.Not(nx)
	assert.Equal(t, x, nnx)
}

func TestConjunctsOfNonConjunctionIsSingleton(t *testing.T) {
	m := NewManager()
	x := m.Var("x", Current, Bool)
	assert.Equal(t, []T{x}, m.Conjuncts(x))
}

func TestSubstituteRewritesOnlyMatchedSubterms(t *testing.T) {
	m := NewManager()
	x := m.Var("x", Current, Int)
	y := m.Var("y", Current, Int)
	five := m.Int(5)
	f := m.App(OpLt, x, y)

	sigma := map[T]T{x: five}
	f2 := m.Substitute(f, sigma)

	op, children, ok := m.Op(f2)
	require.True(t, ok)
	assert.Equal(t, OpLt, op)
	assert.Equal(t, five, children[0])
	assert.Equal(t, y, children[1], "unsubstituted variable must be left alone")
}

func TestSubstituteNoopReturnsSameTermHandle(t *testing.T) {
	m := NewManager()
	x := m.Var("x", Current, Int)
	y := m.Var("y", Current, Int)
	f := m.App(OpLt, x, y)

	f2 := m.Substitute(f, map[T]T{})
	assert.Equal(t, f, f2, "substitution with nothing to rewrite should return the identical handle")
}

func TestRenameMovesNamespaceOnly(t *testing.T) {
	m := NewManager()
	x := m.Var("x", Current, Int)
	inp := m.Var("u", Input, Int)
	f := m.App(OpLt, x, inp)

	f2 := m.Rename(f, Current, Next)
	op, children, ok := m.Op(f2)
	require.True(t, ok)
	assert.Equal(t, OpLt, op)
	assert.Equal(t, Next, m.VarNamespace(children[0]))
	assert.Equal(t, Input, m.VarNamespace(children[1]), "input-namespace var must be untouched by a Current->Next rename")
}

func TestVarsCollectsFreeVariablesOnce(t *testing.T) {
	m := NewManager()
	x := m.Var("x", Current, Int)
	f := m.App(OpAnd, m.App(OpLt, x, m.Int(1)), m.App(OpGt, x, m.Int(0)))

	vs := m.Vars(f)
	assert.Len(t, vs, 1)
	assert.True(t, vs[x])
}

func TestCompactDropsUnreachableTerms(t *testing.T) {
	m := NewManager()
	keep := m.Var("keep", Current, Bool)
	m.Var("drop", Current, Bool) // never referenced by roots

	sizeBefore := m.Size()
	require.Equal(t, 2, sizeBefore)

	nm, reloc := m.Compact([]T{keep})
	assert.Equal(t, 1, nm.Size())

	relocated := reloc.Apply(keep)
	assert.True(t, nm.IsVar(relocated))
	assert.Equal(t, "keep", nm.VarName(relocated))
}

func TestRelocationApplyInvalidIsInvalid(t *testing.T) {
	var r Relocation = make(Relocation)
	assert.Equal(t, Invalid, r.Apply(Invalid))
}

func TestRelocationApplyPanicsOnMissingEntry(t *testing.T) {
	m := NewManager()
	stray := m.Var("stray", Current, Bool)
	r := Relocation{}
	assert.Panics(t, func() { r.Apply(stray) })
}
