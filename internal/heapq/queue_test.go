package heapq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePopsHighestScoreFirst(t *testing.T) {
	q := New[string](nil)
	q.Push("low", 1)
	q.Push("high", 3)
	q.Push("mid", 2)

	v, _, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "high", v)

	v, _, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "mid", v)

	v, _, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "low", v)

	_, _, ok = q.Pop()
	assert.False(t, ok, "queue should be empty")
}

func TestQueueUpdateRescoresWithoutDuplicating(t *testing.T) {
	q := New[string](nil)
	h := q.Push("a", 1)
	q.Push("b", 5)
	require.Equal(t, 2, q.Len())

	q.Update(h, 10)
	require.Equal(t, 2, q.Len(), "Update must not change the live count")

	v, _, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", v, "rescored entry should now be on top")

	v, _, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, _, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueueUpdateOnUnknownHandleIsNoop(t *testing.T) {
	q := New[string](nil)
	q.Push("a", 1)
	q.Update(Handle(9999), 100)
	assert.Equal(t, 1, q.Len())
}

func TestQueueTieBreakPrefersSmaller(t *testing.T) {
	// tie-break: prefer the lexicographically smaller value on a score tie.
	q := New[string](func(a, b string) bool { return a < b })
	q.Push("zebra", 5)
	q.Push("apple", 5)
	q.Push("mango", 5)

	v, _, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "apple", v)
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	q := New[int](nil)
	q.Push(7, 1)
	v, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, q.Len(), "Peek must not remove the entry")
}

func TestQueuePeekEmpty(t *testing.T) {
	q := New[int](nil)
	_, ok := q.Peek()
	assert.False(t, ok)
}
