package refsolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/pdkind/internal/term"
	"github.com/gitrdm/pdkind/pkg/errs"
	"github.com/gitrdm/pdkind/pkg/solver"
)

func TestCheckEmptyIsSat(t *testing.T) {
	mgr := term.NewManager()
	r := New(mgr)
	res, err := r.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.Sat, res)
}

func TestCheckSimpleUnsat(t *testing.T) {
	mgr := term.NewManager()
	r := New(mgr)
	x := mgr.Var("x", term.Current, term.Int)
	r.Add(mgr.App(term.OpLt, x, mgr.Int(0)), solver.ClassT)
	r.Add(mgr.App(term.OpGe, x, mgr.Int(0)), solver.ClassT)

	res, err := r.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.Unsat, res)
}

func TestCheckSimpleSatAndModel(t *testing.T) {
	mgr := term.NewManager()
	r := New(mgr)
	x := mgr.Var("x", term.Current, term.Int)
	r.Add(mgr.App(term.OpGe, x, mgr.Int(5)), solver.ClassT)

	res, err := r.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Sat, res)

	m, err := r.Model()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.Ints[x], int64(5))
}

func TestModelOutsideSatIsProtocolError(t *testing.T) {
	mgr := term.NewManager()
	r := New(mgr)
	x := mgr.Var("x", term.Current, term.Int)
	r.Add(mgr.App(term.OpLt, x, mgr.Int(0)), solver.ClassT)
	r.Add(mgr.App(term.OpGe, x, mgr.Int(0)), solver.ClassT)
	_, err := r.Check(context.Background())
	require.NoError(t, err)

	_, err = r.Model()
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Protocol))
}

func TestPushPopRestoresAssertionSet(t *testing.T) {
	mgr := term.NewManager()
	r := New(mgr)
	x := mgr.Var("x", term.Current, term.Int)
	r.Add(mgr.App(term.OpGe, x, mgr.Int(0)), solver.ClassT)

	r.Push()
	r.Add(mgr.App(term.OpLt, x, mgr.Int(0)), solver.ClassT) // contradicts, makes it unsat
	res, err := r.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.Unsat, res)

	require.NoError(t, r.Pop())
	res, err = r.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.Sat, res, "popping the contradicting assertion should restore sat")
}

func TestPopWithoutPushIsProtocolError(t *testing.T) {
	mgr := term.NewManager()
	r := New(mgr)
	err := r.Pop()
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Protocol))
}

func TestGeneralizeProjectsOntoRequestedClass(t *testing.T) {
	mgr := term.NewManager()
	r := New(mgr)
	a := mgr.Var("a", term.Current, term.Int)
	b := mgr.Var("b", term.Current, term.Int)
	r.AddVariable(a, solver.ClassA)
	r.AddVariable(b, solver.ClassB)
	r.Add(mgr.App(term.OpGe, a, mgr.Int(1)), solver.ClassA)
	r.Add(mgr.App(term.OpGe, b, mgr.Int(2)), solver.ClassB)

	res, err := r.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Sat, res)

	model, err := r.Model()
	require.NoError(t, err)

	cube, err := r.Generalize(solver.Backward, model)
	require.NoError(t, err)
	vars := mgr.Vars(cube)
	assert.True(t, vars[a])
	assert.False(t, vars[b], "backward generalization must only mention class-A variables")
}

func TestInterpolateUnsupported(t *testing.T) {
	mgr := term.NewManager()
	r := New(mgr)
	_, err := r.Interpolate()
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Protocol))
	assert.False(t, r.Features().Has(solver.Interpolation))
	assert.True(t, r.Features().Has(solver.Generalization))
}

func TestResetClearsState(t *testing.T) {
	mgr := term.NewManager()
	r := New(mgr)
	x := mgr.Var("x", term.Current, term.Int)
	r.Add(mgr.App(term.OpGe, x, mgr.Int(0)), solver.ClassT)
	r.Push()

	r.Reset()
	// after Reset, Pop with no push should fail again
	err := r.Pop()
	assert.Error(t, err)
}
