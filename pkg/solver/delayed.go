package solver

import (
	"context"

	"github.com/gitrdm/pdkind/internal/term"
)

type pendingAdd struct {
	f     term.T
	class Class
}

type pendingVar struct {
	v     term.T
	class Class
}

// DelayedSolver wraps a Solver, buffering Add and AddVariable calls
// instead of forwarding them immediately, and flushing the buffer only
// when the backend is actually about to be asked something (Push, Pop,
// Check, or Interpolate). This is §4.2's "non-interpolating fast
// path ... until interpolation is actually needed": a caller that
// stages a batch of lemmas into a solver it may never end up checking
// (e.g. speculative obligation construction) never pays for touching
// the backend at all.
//
// Push and Pop flush too, not only Check/Interpolate: an Add buffered
// before a Push must land in the outer scope, so the buffer cannot be
// allowed to survive across a scope boundary unflushed.
type DelayedSolver struct {
	inner       Solver
	pendingAdds []pendingAdd
	pendingVars []pendingVar
}

// NewDelayed wraps inner.
func NewDelayed(inner Solver) *DelayedSolver {
	return &DelayedSolver{inner: inner}
}

func (s *DelayedSolver) Add(f term.T, class Class) {
	s.pendingAdds = append(s.pendingAdds, pendingAdd{f: f, class: class})
}

func (s *DelayedSolver) AddVariable(v term.T, class Class) {
	s.pendingVars = append(s.pendingVars, pendingVar{v: v, class: class})
}

func (s *DelayedSolver) flush() {
	for _, p := range s.pendingVars {
		s.inner.AddVariable(p.v, p.class)
	}
	s.pendingVars = s.pendingVars[:0]
	for _, p := range s.pendingAdds {
		s.inner.Add(p.f, p.class)
	}
	s.pendingAdds = s.pendingAdds[:0]
}

func (s *DelayedSolver) Push() {
	s.flush()
	s.inner.Push()
}

func (s *DelayedSolver) Pop() error {
	s.flush()
	return s.inner.Pop()
}

func (s *DelayedSolver) Check(ctx context.Context) (CheckResult, error) {
	s.flush()
	return s.inner.Check(ctx)
}

func (s *DelayedSolver) Model() (*Model, error) {
	return s.inner.Model()
}

func (s *DelayedSolver) Generalize(direction Direction, model *Model) (term.T, error) {
	return s.inner.Generalize(direction, model)
}

func (s *DelayedSolver) Interpolate() (term.T, error) {
	s.flush()
	return s.inner.Interpolate()
}

func (s *DelayedSolver) Features() FeatureSet {
	return s.inner.Features()
}
