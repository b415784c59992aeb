package join

import "sync/atomic"

// kind distinguishes an async (fire-and-forget) species from a sync
// (blocking, reply-bearing) one.
type kind int

const (
	kindAsync kind = iota
	kindSync
)

// speciesHandle is the unique identity of a declared species. Two
// handles are the same species iff they are the same pointer; value
// equality is never used for species identity. The binding to an owning
// JoinDefinition is write-once and is implemented with an atomic pointer
// so a bound emitter can be read lock-free by any goroutine after
// activation.
type speciesHandle struct {
	name string
	kind kind
	bound atomic.Pointer[JoinDefinition]
}

func newSpeciesHandle(name string, k kind) *speciesHandle {
	return &speciesHandle{name: name, kind: k}
}

// bindTo assigns the owning JoinDefinition. Returns false if the handle
// was already bound to a *different* JoinDefinition (ALREADY_BOUND);
// binding the same handle twice to the same JD is idempotent and returns
// true, since activation may reference an input species more than once
// across several reactions of the same definition.
func (s *speciesHandle) bindTo(jd *JoinDefinition) bool {
	for {
		cur := s.bound.Load()
		if cur == jd {
			return true
		}
		if cur != nil {
			return false
		}
		if s.bound.CompareAndSwap(nil, jd) {
			return true
		}
	}
}

func (s *speciesHandle) owner() *JoinDefinition {
	return s.bound.Load()
}

func (s *speciesHandle) isBound() bool {
	return s.bound.Load() != nil
}

// Name returns the species' debug name, for diagnostics only — the
// label the caller supplied at construction.
func (s *speciesHandle) Name() string { return s.name }
