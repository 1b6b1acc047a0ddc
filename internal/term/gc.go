package term

// Relocation maps every reference into a pre-Compact arena to its
// equivalent reference in the post-Compact arena. The frame store and
// the counterexample manager each have a Relocate method that rewrites
// their stored references through one. The pd-kind driver calls neither
// Compact nor Relocate, so a query always runs on a single arena.
type Relocation map[T]T

// Apply looks up t's relocated value. A term that was unreachable at
// Compact time (and therefore dropped) has no entry; callers that hold
// only reachable roots never hit this case.
func (r Relocation) Apply(t T) T {
	if t == Invalid {
		return Invalid
	}
	nt, ok := r[t]
	if !ok {
		panic("term: relocation missing entry for a live reference; GC root set was incomplete")
	}
	return nt
}

// Compact builds a fresh Manager containing only the terms reachable
// from roots (and their subterms), and returns the Relocation from the
// old arena to the new one. The old Manager must not be used again.
//
// This mirrors the teacher's per-value Clone() discipline
// (pkg/minikanren/core.go): rather than mutate the arena in place, GC
// produces a new immutable structure and every live reference is
// rewritten to point into it.
func (m *Manager) Compact(roots []T) (*Manager, Relocation) {
	nm := NewManager()
	reloc := make(Relocation)
	var copyTerm func(T) T
	copyTerm = func(t T) T {
		if t == Invalid {
			return Invalid
		}
		if nt, ok := reloc[t]; ok {
			return nt
		}
		n := m.arena[t]
		var nt T
		switch n.kind {
		case kVar:
			nt = nm.Var(n.varName, n.ns, n.sort)
		case kConst:
			if n.sort == Bool {
				nt = nm.Bool(n.boolVal)
			} else {
				nt = nm.Int(n.intVal)
			}
		case kApp:
			children := make([]T, len(n.children))
			for i, c := range n.children {
				children[i] = copyTerm(c)
			}
			nt = nm.App(n.op, children...)
		}
		reloc[t] = nt
		return nt
	}
	for _, r := range roots {
		copyTerm(r)
	}
	return nm, reloc
}

// Size returns the number of interned terms (excluding the reserved
// Invalid slot), used by hosts to decide when a GC pass is worthwhile.
func (m *Manager) Size() int { return len(m.arena) - 1 }
