package ts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/pdkind/internal/term"
)

const counterMCMT = `
(state (x Int))
(init (= x 0))
(trans (= x! (+ x 1)))
(prop (>= x 0))
`

func TestParseSourceMCMT(t *testing.T) {
	mgr := term.NewManager()
	parsed, err := ParseSource(mgr, counterMCMT, MCMT)
	require.NoError(t, err)

	require.Len(t, parsed.TS.ST.Vars, 1)
	assert.Equal(t, "x", parsed.TS.ST.Vars[0].Name)
	assert.Equal(t, term.Int, parsed.TS.ST.Vars[0].Sort)

	op, _, ok := mgr.Op(parsed.TS.Init)
	require.True(t, ok)
	assert.Equal(t, term.OpEq, op)

	op, _, ok = mgr.Op(parsed.Property)
	require.True(t, ok)
	assert.Equal(t, term.OpGe, op)
}

func TestParseSourceMCMTMissingSection(t *testing.T) {
	mgr := term.NewManager()
	_, err := ParseSource(mgr, `(state (x Int)) (init (= x 0))`, MCMT)
	assert.Error(t, err)
}

func TestParseSourceMCMTUnknownVariable(t *testing.T) {
	mgr := term.NewManager()
	_, err := ParseSource(mgr, `
(state (x Int))
(init (= y 0))
(trans (= x! x))
(prop (>= x 0))
`, MCMT)
	assert.Error(t, err)
}

const counterCHC = `
(chc-state (x Int))
(chc-entry (= x 0))
(chc-ind (= x! (+ x 1)))
(chc-query (< x 0))
`

func TestParseSourceCHCLowersToSameShape(t *testing.T) {
	mgr := term.NewManager()
	parsed, err := ParseSource(mgr, counterCHC, CHC)
	require.NoError(t, err)

	op, children, ok := mgr.Op(parsed.Property)
	require.True(t, ok)
	assert.Equal(t, term.OpNot, op)
	require.Len(t, children, 1)

	qop, _, ok := mgr.Op(children[0])
	require.True(t, ok)
	assert.Equal(t, term.OpLt, qop, "property must negate the raw query guard")
}

func TestParseSourceUnknownDialect(t *testing.T) {
	mgr := term.NewManager()
	_, err := ParseSource(mgr, counterMCMT, Dialect("bogus"))
	assert.Error(t, err)
}

func TestStateTypeCurrentNextInputPanicOnUnknownVar(t *testing.T) {
	mgr := term.NewManager()
	st := NewStateType(mgr, Var{Name: "x", Sort: term.Int})

	cur := st.Current("x")
	assert.True(t, mgr.IsVar(cur))
	assert.Equal(t, term.Current, mgr.VarNamespace(cur))

	nxt := st.NextVar("x")
	assert.Equal(t, term.Next, mgr.VarNamespace(nxt))

	assert.Equal(t, term.Input, mgr.VarNamespace(st.InputVar("x")))

	assert.Panics(t, func() { st.Current("missing") })
}
