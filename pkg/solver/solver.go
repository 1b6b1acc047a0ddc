// Package solver defines the solver façade contract of spec.md §4.2:
// a wrapper around a backend SMT decision procedure exposing assertion
// partitioning, incremental push/pop, models, generalization, and
// Craig interpolation.
//
// The contract shape — a small interface plus composable wrappers that
// satisfy the same interface — is grounded in the teacher's pluggable
// backend design (gitrdm/gokanlogic pkg/minikanren/concrete_solvers.go:
// a Solver interface with a capability list, implemented by several
// concrete BaseSolver-derived types).
package solver

import (
	"context"

	"github.com/gitrdm/pdkind/internal/term"
)

// Class partitions assertions for generalization and interpolation, per
// spec.md §4.2.
type Class int

const (
	// ClassA is the side an interpolant is implied by; generalizing
	// "backward" projects onto class-A variables.
	ClassA Class = iota
	// ClassB is the side an interpolant must be inconsistent with;
	// generalizing "forward" projects onto class-B variables.
	ClassB
	// ClassT holds assertions relevant to both sides (e.g. shared
	// transition-relation constraints) without being themselves the
	// subject of generalization.
	ClassT
)

// Direction picks which variable class Generalize projects onto, per
// spec.md §4.2 and §9 ("Generalization direction").
type Direction int

const (
	Backward Direction = iota // project onto class A
	Forward                   // project onto class B
)

// CheckResult is the three-valued outcome of a satisfiability query.
type CheckResult int

const (
	Unsat CheckResult = iota
	Sat
	Unknown
)

func (r CheckResult) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Feature is a capability bit a backend may or may not support.
type Feature uint8

const (
	Generalization Feature = 1 << iota
	Interpolation
	UnsatCore
)

// FeatureSet is a bitset of Feature values.
type FeatureSet uint8

// Has reports whether fs includes f.
func (fs FeatureSet) Has(f Feature) bool { return fs&FeatureSet(f) != 0 }

// Model is a satisfying assignment, valid only immediately after a Sat
// Check result (spec.md §4.2: "model() defined only in state sat").
type Model struct {
	Ints  map[term.T]int64
	Bools map[term.T]bool
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{Ints: make(map[term.T]int64), Bools: make(map[term.T]bool)}
}

// Solver is the façade contract. A single instance holds a growing,
// partitioned list of assertions and an incremental push/pop stack,
// per spec.md §4.2. Implementations are not required to be
// thread-safe; the core never calls a Solver concurrently (spec.md §5).
type Solver interface {
	// Add asserts f tagged with its class.
	Add(f term.T, class Class)
	// AddVariable declares which partition v belongs to, for later
	// generalization/interpolation.
	AddVariable(v term.T, class Class)
	// Push opens a new scoped assertion context.
	Push()
	// Pop restores exactly the state at the matching Push. Popping
	// with no matching Push is a *errs.Error of kind Protocol.
	Pop() error
	// Check decides satisfiability of the current assertion set.
	Check(ctx context.Context) (CheckResult, error)
	// Model returns the last Check's satisfying assignment. Calling
	// this outside a Sat result is a *errs.Error of kind Protocol.
	Model() (*Model, error)
	// Generalize returns a cube implied by the assertions and entailed
	// by model, mentioning only variables of the class named by
	// direction. Calling this outside a Sat result is a Protocol
	// error; calling it when Features() lacks Generalization is also a
	// Protocol error.
	Generalize(direction Direction, model *Model) (term.T, error)
	// Interpolate returns a Craig interpolant for the current A/B
	// partition. Calling this outside an Unsat result, or without
	// Interpolation support, is a Protocol error.
	Interpolate() (term.T, error)
	// Features reports which optional capabilities this backend
	// supports.
	Features() FeatureSet
}
