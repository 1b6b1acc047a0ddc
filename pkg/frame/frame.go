// Package frame is the frame & obligation store of spec.md §4.5/§3:
// an indexed sequence of lemma frames with provenance, plus a
// max-priority queue of induction obligations.
//
// The obligation queue is internal/heapq (itself grounded in
// katalvlaran-lvlath's dijkstra.go lazy decrease-key heap), which is
// exactly the "amortized O(log n) binary heap with lazy deletion"
// §9 calls acceptable. The frame slice-of-sets plus provenance map is
// plain bookkeeping with no teacher precedent beyond the general
// practice (seen throughout the pack) of modeling a forest with a
// parent-pointer map rather than explicit tree nodes.
package frame

import (
	"github.com/gitrdm/pdkind/internal/heapq"
	"github.com/gitrdm/pdkind/internal/term"
)

// Provenance records how a lemma entered a frame, per spec.md §3:
// parent is the lemma whose induction this one helps (term.Invalid
// for none), refutes is the counterexample generalization it blocks
// (term.Invalid for none), depth is the k-induction depth used.
type Provenance struct {
	Parent  term.T
	Refutes term.T
	Depth   int
}

// Obligation is spec.md §3's induction-obligation tuple, minus score
// (the queue tracks score separately so bumps don't require replacing
// the object every caller holds a reference to). DepthAttempts counts
// retries since Depth last changed, separately from Attempts (which
// counts retries across the obligation's whole lifetime and bounds it
// via the driver's attempt cap); the driver escalates Depth once
// DepthAttempts crosses its own threshold.
type Obligation struct {
	F             term.T
	Depth         int
	Attempts      int
	DepthAttempts int
}

// NewLemmaHook fires whenever a lemma is newly installed in a frame.
type NewLemmaHook func(level int, l term.T)

// NextFrameHook fires whenever the frame index advances.
type NextFrameHook func(level int)

// Store owns frames, provenance, and the obligation queue for a
// single query.
type Store struct {
	frames     [][]term.T
	present    []map[term.T]bool
	provenance map[term.T]Provenance

	queue    *heapq.Queue[*Obligation]
	handles  map[term.T]heapq.Handle
	objects  map[term.T]*Obligation
	activity map[term.T]float64

	next []*Obligation

	current int

	OnNewLemma  NewLemmaHook
	OnNextFrame NextFrameHook
}

// New creates a store positioned at frame 0.
func New() *Store {
	s := &Store{
		provenance: make(map[term.T]Provenance),
		handles:    make(map[term.T]heapq.Handle),
		objects:    make(map[term.T]*Obligation),
		activity:   make(map[term.T]float64),
	}
	s.queue = heapq.New(tieBreak)
	s.ensureFrame(0)
	return s
}

func tieBreak(a, b *Obligation) bool {
	if a.Depth != b.Depth {
		return a.Depth < b.Depth
	}
	return a.F < b.F
}

// CurrentFrame returns the index of the frame currently being worked.
func (s *Store) CurrentFrame() int { return s.current }

func (s *Store) ensureFrame(level int) {
	for len(s.frames) <= level {
		s.frames = append(s.frames, nil)
		s.present = append(s.present, make(map[term.T]bool))
	}
}

// AddLemma inserts L into frame[level] if not already present,
// recording prov and firing OnNewLemma. Idempotent, per spec.md §4.5.
func (s *Store) AddLemma(level int, l term.T, prov Provenance) bool {
	s.ensureFrame(level)
	if s.present[level][l] {
		return false
	}
	s.present[level][l] = true
	s.frames[level] = append(s.frames[level], l)
	s.provenance[l] = prov
	if s.OnNewLemma != nil {
		s.OnNewLemma(level, l)
	}
	return true
}

// Frame returns the lemmas of frame[level] (nil if level is beyond
// the current extent).
func (s *Store) Frame(level int) []term.T {
	if level < 0 || level >= len(s.frames) {
		return nil
	}
	return append([]term.T(nil), s.frames[level]...)
}

// FrameSize returns the number of lemmas in frame[level].
func (s *Store) FrameSize(level int) int {
	if level < 0 || level >= len(s.frames) {
		return 0
	}
	return len(s.frames[level])
}

// Provenance looks up how l entered its frame.
func (s *Store) Provenance(l term.T) (Provenance, bool) {
	p, ok := s.provenance[l]
	return p, ok
}

// Equal reports whether frame[a] and frame[b] are set-equal, used by
// the driver to detect convergence (spec.md §4.6 step 3.c.success).
func (s *Store) Equal(a, b int) bool {
	s.ensureFrame(a)
	s.ensureFrame(b)
	if len(s.present[a]) != len(s.present[b]) {
		return false
	}
	for l := range s.present[a] {
		if !s.present[b][l] {
			return false
		}
	}
	return true
}

// BumpActivity increases f's VSIDS-style activity score, per
// spec.md §4.5 ("bumps a lemma whenever it is re-used to block a new
// counterexample").
func (s *Store) BumpActivity(f term.T) {
	s.activity[f]++
	if h, ok := s.handles[f]; ok {
		s.queue.Update(h, s.activity[f])
	}
}

// Activity returns f's current activity score.
func (s *Store) Activity(f term.T) float64 { return s.activity[f] }

// Enqueue inserts obl into the obligation queue, or bumps its score
// and replaces its depth/attempts if an obligation for the same
// formula is already queued — duplicates collapse by formula
// identity, per spec.md §4.5.
func (s *Store) Enqueue(obl *Obligation) {
	score := s.activity[obl.F]
	if h, ok := s.handles[obl.F]; ok {
		*s.objects[obl.F] = *obl
		s.queue.Update(h, score)
		return
	}
	s.objects[obl.F] = obl
	s.handles[obl.F] = s.queue.Push(obl, score)
}

// PopObligation removes and returns the highest-score obligation,
// with a stable tie-break on (depth asc, formula id asc), per
// spec.md §4.5.
func (s *Store) PopObligation() (*Obligation, bool) {
	obl, _, ok := s.queue.Pop()
	if !ok {
		return nil, false
	}
	delete(s.handles, obl.F)
	delete(s.objects, obl.F)
	return obl, true
}

// Len reports the number of obligations currently queued.
func (s *Store) Len() int { return s.queue.Len() }

// StageNext defers obl to run after the current frame's queue empties.
func (s *Store) StageNext(obl *Obligation) {
	s.next = append(s.next, obl)
}

// AdvanceFrame promotes staged obligations into the queue, increments
// the frame index, and fires OnNextFrame, per spec.md §4.5.
func (s *Store) AdvanceFrame() {
	staged := s.next
	s.next = nil
	s.current++
	s.ensureFrame(s.current)
	for _, obl := range staged {
		s.Enqueue(obl)
	}
	if s.OnNextFrame != nil {
		s.OnNextFrame(s.current)
	}
}

// Relocate rewrites every stored term reference through a GC
// relocation map. The pd-kind driver does not call it.
func (s *Store) Relocate(apply func(term.T) term.T) {
	for i, fr := range s.frames {
		for j, l := range fr {
			fr[j] = apply(l)
		}
		newPresent := make(map[term.T]bool, len(s.present[i]))
		for l := range s.present[i] {
			newPresent[apply(l)] = true
		}
		s.present[i] = newPresent
		s.frames[i] = fr
	}
	newProv := make(map[term.T]Provenance, len(s.provenance))
	for l, p := range s.provenance {
		p.Parent = apply(p.Parent)
		p.Refutes = apply(p.Refutes)
		newProv[apply(l)] = p
	}
	s.provenance = newProv

	newHandles := make(map[term.T]heapq.Handle, len(s.handles))
	newObjects := make(map[term.T]*Obligation, len(s.objects))
	newActivity := make(map[term.T]float64, len(s.activity))
	for f, h := range s.handles {
		newHandles[apply(f)] = h
	}
	for f, o := range s.objects {
		o.F = apply(f)
		newObjects[o.F] = o
	}
	for f, a := range s.activity {
		newActivity[apply(f)] = a
	}
	s.handles, s.objects, s.activity = newHandles, newObjects, newActivity
	for _, o := range s.next {
		o.F = apply(o.F)
	}
}
