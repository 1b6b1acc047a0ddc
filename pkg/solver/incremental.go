package solver

import (
	"context"
	"sync"

	"github.com/gitrdm/pdkind/internal/term"
)

// IncrementalSolver wraps a Solver, memoizing repeat Check calls the
// way the teacher's search.go avoids redoing constraint propagation
// that nothing has invalidated: any Add/Push/Pop marks the cached
// result stale, and a Check against an unchanged assertion set returns
// the memoized verdict instead of re-invoking the backend. This is the
// "incremental" half of §4.2's "optional incremental and delayed
// wrappers" — true incremental solving still lives in the wrapped
// backend; this layer only removes redundant top-level calls into it.
type IncrementalSolver struct {
	inner Solver

	dirty     bool
	result    CheckResult
	resultErr error
}

// NewIncremental wraps inner.
func NewIncremental(inner Solver) *IncrementalSolver {
	return &IncrementalSolver{inner: inner, dirty: true}
}

func (s *IncrementalSolver) Add(f term.T, class Class) {
	s.inner.Add(f, class)
	s.dirty = true
}

func (s *IncrementalSolver) AddVariable(v term.T, class Class) {
	s.inner.AddVariable(v, class)
}

func (s *IncrementalSolver) Push() {
	s.inner.Push()
	s.dirty = true
}

func (s *IncrementalSolver) Pop() error {
	err := s.inner.Pop()
	s.dirty = true
	return err
}

func (s *IncrementalSolver) Check(ctx context.Context) (CheckResult, error) {
	if !s.dirty {
		return s.result, s.resultErr
	}
	s.result, s.resultErr = s.inner.Check(ctx)
	s.dirty = false
	return s.result, s.resultErr
}

func (s *IncrementalSolver) Model() (*Model, error) {
	return s.inner.Model()
}

func (s *IncrementalSolver) Generalize(direction Direction, model *Model) (term.T, error) {
	return s.inner.Generalize(direction, model)
}

func (s *IncrementalSolver) Interpolate() (term.T, error) {
	return s.inner.Interpolate()
}

func (s *IncrementalSolver) Features() FeatureSet {
	return s.inner.Features()
}

// Resettable is implemented by backends that support returning to an
// empty assertion state in place, letting a SolverPool reuse the
// instance instead of discarding it.
type Resettable interface {
	Reset()
}

// SolverPool pools Solver instances built by factory, mirroring the
// teacher's GlobalConstraintBusPool: Get reuses a pooled instance or
// builds a fresh one, Put resets and returns an instance to the pool
// (or drops it, if the backend cannot reset in place).
type SolverPool struct {
	pool    sync.Pool
	factory func() Solver
}

// NewSolverPool creates a pool backed by factory.
func NewSolverPool(factory func() Solver) *SolverPool {
	return &SolverPool{
		pool:    sync.Pool{New: func() any { return factory() }},
		factory: factory,
	}
}

// Get returns a pooled or freshly built Solver.
func (p *SolverPool) Get() Solver {
	return p.pool.Get().(Solver)
}

// Put resets s and returns it to the pool. Backends that don't
// implement Resettable are left for the garbage collector rather than
// pooled in a possibly-dirty state.
func (p *SolverPool) Put(s Solver) {
	r, ok := s.(Resettable)
	if !ok {
		return
	}
	r.Reset()
	p.pool.Put(s)
}
