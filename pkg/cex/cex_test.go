package cex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/pdkind/internal/term"
)

func TestAddDedupesByGAndK(t *testing.T) {
	m := New()
	mgr := term.NewManager()
	g := mgr.Bool(true)

	id1 := m.Add(g, 2, invalidID, 0)
	id2 := m.Add(g, 2, invalidID, 0)
	assert.Equal(t, id1, id2, "same (G, k) must not create a second node")

	id3 := m.Add(g, 3, invalidID, 0)
	assert.NotEqual(t, id1, id3, "a different frame index is a distinct node")
}

func TestAddAssignsDistinctExternalIDs(t *testing.T) {
	m := New()
	mgr := term.NewManager()
	id1 := m.Add(mgr.Bool(true), 0, invalidID, 0)
	id2 := m.Add(mgr.Bool(false), 0, invalidID, 0)

	n1, ok := m.Get(id1)
	require.True(t, ok)
	n2, ok := m.Get(id2)
	require.True(t, ok)

	assert.NotEqual(t, n1.ExternalID, n2.ExternalID)
	var zero [16]byte
	assert.NotEqual(t, zero, [16]byte(n1.ExternalID), "ExternalID must be assigned, not left zero")
}

func TestGetUnknownID(t *testing.T) {
	m := New()
	_, ok := m.Get(NodeID(999))
	assert.False(t, ok)
}

func TestTraceToWalksParentChainInOrder(t *testing.T) {
	m := New()
	mgr := term.NewManager()

	// Parents point at the successor cube: the root is the deepest node.
	root := m.Add(mgr.Int(2), 2, invalidID, 0)
	mid := m.Add(mgr.Int(1), 1, root, 0)
	leaf := m.Add(mgr.Int(0), 0, mid, 0)

	trace := m.TraceTo(leaf)
	require.Len(t, trace, 3)
	assert.Equal(t, mgr.Int(0), trace[0], "index 0 must be the Init-side (leaf) state")
	assert.Equal(t, mgr.Int(1), trace[1])
	assert.Equal(t, mgr.Int(2), trace[2])
}

func TestMarkAndIsUnreachable(t *testing.T) {
	m := New()
	mgr := term.NewManager()
	g := mgr.Bool(true)

	assert.False(t, m.IsUnreachable(g, 1))
	m.MarkUnreachable(g, 1)
	assert.True(t, m.IsUnreachable(g, 1))
	assert.False(t, m.IsUnreachable(g, 2), "unreachable mark is scoped to its own frame")
}

func TestRelocateRewritesStoredReferences(t *testing.T) {
	m := New()
	mgr := term.NewManager()
	g := mgr.Var("keep", term.Current, term.Bool)
	id := m.Add(g, 0, invalidID, 0)
	m.MarkUnreachable(g, 0)

	nm, reloc := mgr.Compact([]term.T{g})
	m.Relocate(reloc.Apply)

	n, ok := m.Get(id)
	require.True(t, ok)
	assert.True(t, nm.IsVar(n.G))
	assert.Equal(t, "keep", nm.VarName(n.G))

	relocatedG := reloc.Apply(g)
	assert.True(t, m.IsUnreachable(relocatedG, 0), "unreachable map must be keyed by the relocated term")
}
