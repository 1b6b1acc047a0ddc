// Package heapq provides a generic max-priority queue with
// decrease/increase-key support, used by the frame & obligation store
// (spec.md §4.5, §9: "amortized O(log n) binary heap with lazy
// deletion is acceptable for the expected sizes").
//
// The implementation is grounded in
// katalvlaran-lvlath/dijkstra/dijkstra.go's nodePQ: a container/heap
// slice plus a lazy decrease-key strategy where a re-scored entry is
// pushed again and the stale copy is skipped (rather than evicted) when
// it is eventually popped.
package heapq

import "container/heap"

// Handle identifies a logical entry across re-scorings. The same
// Handle may correspond to several physical heap slots over time (the
// stale ones are skipped on Pop); callers only ever see the handle,
// never the slot.
type Handle int64

type entry[V any] struct {
	handle Handle
	value  V
	score  float64
	stale  bool // true once superseded by a later Update
}

// innerHeap implements heap.Interface over *entry pointers so that
// marking an entry stale (via its Handle) is visible to every slot that
// still references it.
type innerHeap[V any] []*entry[V]

func (h innerHeap[V]) Len() int            { return len(h) }
func (h innerHeap[V]) Less(i, j int) bool  { return h[i].score > h[j].score } // max-heap
func (h innerHeap[V]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *innerHeap[V]) Push(x interface{}) { *h = append(*h, x.(*entry[V])) }
func (h *innerHeap[V]) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Queue is a max-priority queue keyed by Handle, supporting score
// updates ("bump the score of a lemma whenever it is re-used", spec.md
// §4.5) without a true decrease-key heap: updates are lazy pushes, and
// stale copies are dropped silently when popped.
type Queue[V any] struct {
	h       innerHeap[V]
	live    map[Handle]*entry[V]
	nextID  Handle
	tieFunc func(a, b V) bool // true if a should be popped before b on score tie
}

// New creates an empty queue. tieBreak, if non-nil, resolves score ties
// deterministically (spec.md §4.5: "stable tie-break on (depth asc,
// formula id asc)"); if nil, ties are resolved arbitrarily by heap
// order.
func New[V any](tieBreak func(a, b V) bool) *Queue[V] {
	return &Queue[V]{live: make(map[Handle]*entry[V]), tieFunc: tieBreak}
}

// Push inserts value with the given score and returns its handle.
func (q *Queue[V]) Push(value V, score float64) Handle {
	q.nextID++
	id := q.nextID
	e := &entry[V]{handle: id, value: value, score: score}
	q.live[id] = e
	heap.Push(&q.h, e)
	return id
}

// Update rescales the entry identified by h. This is the "decrease-key"
// operation of spec.md §4.5/§9, implemented via lazy re-push: the old
// slot is marked stale and skipped when eventually popped, and a fresh
// slot is pushed with the new score. O(log n) amortized.
func (q *Queue[V]) Update(h Handle, newScore float64) {
	old, ok := q.live[h]
	if !ok {
		return
	}
	old.stale = true
	ne := &entry[V]{handle: h, value: old.value, score: newScore}
	q.live[h] = ne
	heap.Push(&q.h, ne)
}

// Len returns the number of live (non-stale) entries.
func (q *Queue[V]) Len() int { return len(q.live) }

// Pop removes and returns the highest-score live entry. When several
// entries tie on score and a tie-break function was supplied, the
// smallest entry per that function is preferred, matching spec.md
// §4.5's stable tie-break requirement.
func (q *Queue[V]) Pop() (value V, handle Handle, ok bool) {
	for q.h.Len() > 0 {
		e := heap.Pop(&q.h).(*entry[V])
		if e.stale {
			continue
		}
		// Collect same-score live candidates for deterministic tie-break.
		if q.tieFunc != nil {
			best := e
			var reinsert []*entry[V]
			for q.h.Len() > 0 && q.h[0].score == e.score {
				cand := heap.Pop(&q.h).(*entry[V])
				if cand.stale {
					continue
				}
				if q.tieFunc(cand.value, best.value) {
					reinsert = append(reinsert, best)
					best = cand
				} else {
					reinsert = append(reinsert, cand)
				}
			}
			for _, r := range reinsert {
				heap.Push(&q.h, r)
			}
			e = best
		}
		delete(q.live, e.handle)
		return e.value, e.handle, true
	}
	var zero V
	return zero, 0, false
}

// Peek returns the highest-score live entry's value without removing
// it.
func (q *Queue[V]) Peek() (value V, ok bool) {
	for q.h.Len() > 0 {
		top := q.h[0]
		if top.stale {
			heap.Pop(&q.h)
			continue
		}
		return top.value, true
	}
	var zero V
	return zero, false
}
