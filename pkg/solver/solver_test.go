package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/pdkind/internal/term"
)

// countingSolver is a minimal Solver fake that counts Check calls and
// asserted formulas, letting tests observe what the wrappers forward.
type countingSolver struct {
	checks     int
	added      []term.T
	addedVars  []term.T
	pushes     int
	pops       int
	interps    int
	checkResult CheckResult
	resetCalls int
}

func (c *countingSolver) Add(f term.T, class Class)          { c.added = append(c.added, f) }
func (c *countingSolver) AddVariable(v term.T, class Class)  { c.addedVars = append(c.addedVars, v) }
func (c *countingSolver) Push()                              { c.pushes++ }
func (c *countingSolver) Pop() error                         { c.pops++; return nil }
func (c *countingSolver) Check(ctx context.Context) (CheckResult, error) {
	c.checks++
	return c.checkResult, nil
}
func (c *countingSolver) Model() (*Model, error)                             { return NewModel(), nil }
func (c *countingSolver) Generalize(d Direction, m *Model) (term.T, error)   { return term.Invalid, nil }
func (c *countingSolver) Interpolate() (term.T, error)                       { c.interps++; return term.Invalid, nil }
func (c *countingSolver) Features() FeatureSet                               { return 0 }
func (c *countingSolver) Reset()                                            { c.resetCalls++; c.added = nil; c.addedVars = nil }

func TestIncrementalSolverMemoizesUntilMutated(t *testing.T) {
	inner := &countingSolver{checkResult: Sat}
	s := NewIncremental(inner)

	res, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sat, res)
	assert.Equal(t, 1, inner.checks)

	// repeat Check with nothing changed should not re-invoke the backend
	_, _ = s.Check(context.Background())
	_, _ = s.Check(context.Background())
	assert.Equal(t, 1, inner.checks, "unchanged assertion set must reuse the cached verdict")

	mgr := term.NewManager()
	s.Add(mgr.Bool(true), ClassT)
	_, _ = s.Check(context.Background())
	assert.Equal(t, 2, inner.checks, "Add must invalidate the cached verdict")
}

func TestIncrementalSolverPushPopInvalidate(t *testing.T) {
	inner := &countingSolver{checkResult: Sat}
	s := NewIncremental(inner)
	_, _ = s.Check(context.Background())
	assert.Equal(t, 1, inner.checks)

	s.Push()
	_, _ = s.Check(context.Background())
	assert.Equal(t, 2, inner.checks, "Push must invalidate the cached verdict")

	require.NoError(t, s.Pop())
	_, _ = s.Check(context.Background())
	assert.Equal(t, 3, inner.checks, "Pop must invalidate the cached verdict")
}

func TestDelayedSolverBuffersUntilFlushPoint(t *testing.T) {
	mgr := term.NewManager()
	inner := &countingSolver{checkResult: Unsat}
	s := NewDelayed(inner)

	x := mgr.Var("x", term.Current, term.Bool)
	s.AddVariable(x, ClassA)
	s.Add(mgr.Bool(true), ClassT)
	assert.Empty(t, inner.added, "Add must not reach the backend before a flush point")
	assert.Empty(t, inner.addedVars)

	_, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.Len(t, inner.added, 1, "Check must flush pending adds first")
	assert.Len(t, inner.addedVars, 1)
}

func TestDelayedSolverFlushesOnPushAndPop(t *testing.T) {
	mgr := term.NewManager()
	inner := &countingSolver{}
	s := NewDelayed(inner)

	s.Add(mgr.Bool(true), ClassT)
	s.Push()
	assert.Len(t, inner.added, 1, "Push must flush pending adds into the outer scope")

	s.Add(mgr.Bool(false), ClassT)
	require.NoError(t, s.Pop())
	assert.Len(t, inner.added, 2, "Pop must flush pending adds before popping")
}

func TestDelayedSolverFlushesOnInterpolate(t *testing.T) {
	mgr := term.NewManager()
	inner := &countingSolver{}
	s := NewDelayed(inner)
	s.Add(mgr.Bool(true), ClassT)

	_, _ = s.Interpolate()
	assert.Equal(t, 1, inner.interps)
	assert.Len(t, inner.added, 1)
}

func TestSolverPoolReusesResettableBackend(t *testing.T) {
	inner := &countingSolver{}
	pool := NewSolverPool(func() Solver { return inner })

	got := pool.Get()
	pool.Put(got)
	assert.Equal(t, 1, inner.resetCalls, "Put must Reset a Resettable backend before pooling it")
}

func TestFeatureSetHas(t *testing.T) {
	fs := FeatureSet(Generalization | UnsatCore)
	assert.True(t, fs.Has(Generalization))
	assert.True(t, fs.Has(UnsatCore))
	assert.False(t, fs.Has(Interpolation))
}

func TestCheckResultString(t *testing.T) {
	assert.Equal(t, "sat", Sat.String())
	assert.Equal(t, "unsat", Unsat.String())
	assert.Equal(t, "unknown", Unknown.String())
}
