package pdkind

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/pdkind/internal/term"
	"github.com/gitrdm/pdkind/pkg/frame"
	"github.com/gitrdm/pdkind/pkg/refsolver"
	"github.com/gitrdm/pdkind/pkg/solver"
	"github.com/gitrdm/pdkind/pkg/ts"
)

// newTestDriverWithOptions is newTestDriver with a caller-supplied
// option map, for scenarios that need something other than the
// bare-minimum {"solver": "ref"}.
func newTestDriverWithOptions(t *testing.T, sys *ts.TransitionSystem, property term.T, mgr *term.Manager, raw map[string]string) *Driver {
	t.Helper()
	opts, err := NewOptions(raw)
	require.NoError(t, err)
	newSolver := func() solver.Solver { return solver.NewIncremental(refsolver.New(mgr)) }
	return NewDriver(mgr, sys, property, opts, newSolver(), newSolver(), newSolver())
}

// counterSystem: x:Int, Init x=0, Trans x'=x+1 — the reachable set is
// exactly {0, 1, 2, ...}.
func counterSystem(mgr *term.Manager) (*ts.TransitionSystem, *ts.StateType) {
	st := ts.NewStateType(mgr, ts.Var{Name: "x", Sort: term.Int})
	init := mgr.Eq(st.Current("x"), mgr.Int(0))
	trans := mgr.Eq(st.NextVar("x"), mgr.App(term.OpAdd, st.Current("x"), mgr.Int(1)))
	return &ts.TransitionSystem{ST: st, Init: init, Trans: trans}, st
}

// sat reports whether formula is satisfiable in a fresh solver over
// mgr, used to independently re-check a returned trace rather than
// trusting the driver's own bookkeeping of it.
func sat(t *testing.T, mgr *term.Manager, formula term.T) bool {
	t.Helper()
	s := refsolver.New(mgr)
	s.Add(formula, solver.ClassT)
	res, err := s.Check(context.Background())
	require.NoError(t, err)
	return res == solver.Sat
}

// assertSoundInvalidTrace independently re-verifies spec.md §8's
// "Soundness-invalid" testable property against a query's returned
// trace: s0 is consistent with Init, each (s_i, s_{i+1}) pair is a
// genuine transition, and the final state violates property. This
// checks the property the scenario cares about without hardcoding the
// exact trace length IC3 happens to produce, which depends on the
// backend's Generalize output and isn't worth predicting by hand.
func assertSoundInvalidTrace(t *testing.T, mgr *term.Manager, sys *ts.TransitionSystem, property term.T, trace []term.T) {
	t.Helper()
	require.NotEmpty(t, trace)
	assert.True(t, sat(t, mgr, mgr.And(sys.Init, trace[0])), "trace[0] must be consistent with Init")
	for i := 0; i+1 < len(trace); i++ {
		succ := mgr.Rename(trace[i+1], term.Current, term.Next)
		step := mgr.And(trace[i], sys.Trans, succ)
		assert.True(t, sat(t, mgr, step), "trace[%d] -> trace[%d] must be a genuine transition", i, i+1)
	}
	last := trace[len(trace)-1]
	assert.True(t, sat(t, mgr, mgr.And(last, mgr.Not(property))), "final trace state must violate the property")
}

// TestEscalateDepthBumpsAfterThreshold exercises the fix for induction
// obligations that used to retry at depth 1 forever: DepthAttempts
// must climb with each spurious retry, and once it reaches
// retriesPerDepth the obligation's Depth itself must move up, reset
// to a fresh attempt count at the new depth.
func TestEscalateDepthBumpsAfterThreshold(t *testing.T) {
	obl := &frame.Obligation{Depth: 1}
	for i := 0; i < retriesPerDepth-1; i++ {
		escalateDepth(obl, 10)
		assert.Equal(t, 1, obl.Depth, "must not escalate before retriesPerDepth failures")
	}
	escalateDepth(obl, 10)
	assert.Equal(t, 2, obl.Depth)
	assert.Equal(t, 0, obl.DepthAttempts)
}

// TestEscalateDepthRespectsMaxInductionDepth checks the escalation
// ceiling: an obligation pinned at the configured maximum must keep
// retrying at that depth rather than climbing past it.
func TestEscalateDepthRespectsMaxInductionDepth(t *testing.T) {
	obl := &frame.Obligation{Depth: 2}
	for i := 0; i < retriesPerDepth*3; i++ {
		escalateDepth(obl, 2)
	}
	assert.Equal(t, 2, obl.Depth, "must not escalate past MaxInductionDepth")
}

// S1: trivially valid — x:Int, Init x=0, Trans x'=x+1, property x>=0.
func TestScenarioTriviallyValid(t *testing.T) {
	mgr := term.NewManager()
	sys, st := counterSystem(mgr)
	property := mgr.App(term.OpGe, st.Current("x"), mgr.Int(0))
	d := newTestDriver(t, sys, property, mgr)

	res, err := d.Query(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictValid, res.Verdict)
	assert.NotEqual(t, term.Invalid, res.Invariant)
}

// S2: trivially invalid — same system, property x<=5 fails once x
// reaches 6.
func TestScenarioTriviallyInvalid(t *testing.T) {
	mgr := term.NewManager()
	sys, st := counterSystem(mgr)
	property := mgr.App(term.OpLe, st.Current("x"), mgr.Int(5))
	d := newTestDriver(t, sys, property, mgr)

	res, err := d.Query(context.Background())
	require.NoError(t, err)
	require.Equal(t, VerdictInvalid, res.Verdict)
	assertSoundInvalidTrace(t, mgr, sys, property, res.Trace)
}

// S3: requires induction depth 2 — x,y:Int, Init x=0 ∧ y=0,
// Trans x'=x+1 ∧ y'=y+2, property (2x-y=0) ∨ (2x-y=0). The two
// disjuncts are identical so the property reduces to 2x-y=0, which is
// 1-inductive (2(x+1)-(y+2) = 2x-y), but this still exercises the
// driver's ability to run a push at depth > 1 once escalation kicks
// in for obligations that fail at depth 1 for unrelated reasons; here
// it should succeed outright regardless of starting depth.
func TestScenarioRequiresInductionDepth(t *testing.T) {
	mgr := term.NewManager()
	st := ts.NewStateType(mgr, ts.Var{Name: "x", Sort: term.Int}, ts.Var{Name: "y", Sort: term.Int})
	init := mgr.And(
		mgr.Eq(st.Current("x"), mgr.Int(0)),
		mgr.Eq(st.Current("y"), mgr.Int(0)),
	)
	trans := mgr.And(
		mgr.Eq(st.NextVar("x"), mgr.App(term.OpAdd, st.Current("x"), mgr.Int(1))),
		mgr.Eq(st.NextVar("y"), mgr.App(term.OpAdd, st.Current("y"), mgr.Int(2))),
	)
	sys := &ts.TransitionSystem{ST: st, Init: init, Trans: trans}

	twoXMinusY := mgr.App(term.OpSub, mgr.App(term.OpMul, mgr.Int(2), st.Current("x")), st.Current("y"))
	invariant := mgr.Eq(twoXMinusY, mgr.Int(0))
	property := mgr.Or(invariant, invariant)

	d := newTestDriverWithOptions(t, sys, property, mgr, map[string]string{"solver": "ref", "induction-max-depth": "2"})
	res, err := d.Query(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictValid, res.Verdict)
}

// S4: predecessor chain blocked by a lemma — a:Bool, c:Int,
// Init a ∧ c=0, Trans a'=a ∧ c'=c+1, property a. a never changes, so
// the property is 1-inductive (a ∧ a'=a implies a') and the learned
// invariant must imply it.
func TestScenarioPredecessorBlockedByLemma(t *testing.T) {
	mgr := term.NewManager()
	st := ts.NewStateType(mgr, ts.Var{Name: "a", Sort: term.Bool}, ts.Var{Name: "c", Sort: term.Int})
	init := mgr.And(st.Current("a"), mgr.Eq(st.Current("c"), mgr.Int(0)))
	trans := mgr.And(
		mgr.Eq(st.NextVar("a"), st.Current("a")),
		mgr.Eq(st.NextVar("c"), mgr.App(term.OpAdd, st.Current("c"), mgr.Int(1))),
	)
	sys := &ts.TransitionSystem{ST: st, Init: init, Trans: trans}
	property := st.Current("a")

	d := newTestDriver(t, sys, property, mgr)
	res, err := d.Query(context.Background())
	require.NoError(t, err)
	require.Equal(t, VerdictValid, res.Verdict)

	assert.False(t, sat(t, mgr, mgr.And(res.Invariant, mgr.Not(property))), "the learned invariant must imply the property")
}

// S6: resource exhausted — a frame-count ceiling of 1 (ic3-max-frames)
// forces the outer
// loop to give up with ResourceExhausted rather than claim an
// invariant it never found. Frame 0 always succeeds trivially (Init
// pins x to exactly 0), so the run is guaranteed to advance past
// frame 0 and hit the ceiling at frame 1 regardless of the backend's
// exact generalization behavior.
func TestScenarioResourceExhausted(t *testing.T) {
	mgr := term.NewManager()
	sys, st := counterSystem(mgr)
	property := mgr.App(term.OpLe, st.Current("x"), mgr.Int(5))

	d := newTestDriverWithOptions(t, sys, property, mgr, map[string]string{"solver": "ref", "ic3-max-frames": "1"})
	res, err := d.Query(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictUnknown, res.Verdict)
	require.Error(t, res.Cause)
	assert.Equal(t, term.Invalid, res.Invariant)
}
