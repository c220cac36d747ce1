// Package lww implements a last-writer-wins register: the value of the
// tag-maximal Write survives, where tags are ordered by (Lamport, origin)
// rather than wall-clock time.
package lww

import (
	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/polog"
)

// Op is the LWW register's operation alphabet: a single Write carrying the
// new value.
type Op[V any] struct {
	Value V
}

// WriteOp builds a Write operation.
func WriteOp[V any](v V) Op[V] { return Op[V]{Value: v} }

type tagged[V any] struct {
	op  Op[V]
	tag clock.Tag
}

// state is the stable summary: the ops that have become causally stable,
// kept alongside their tags rather than collapsed to a single value, since
// a later write may still need to prune an already-stable entry by tag
// order.
type state[V any] struct {
	ops []tagged[V]
}

func newState[V any]() *state[V] { return &state[V]{} }

func (s *state[V]) IsDefault() bool { return len(s.ops) == 0 }
func (s *state[V]) Clear()          { s.ops = nil }

// Apply is never invoked directly by the generic engine for this datatype:
// Datatype.Stabilize records the tag itself and returns false, so this
// exists only to satisfy polog.StableState.
func (s *state[V]) Apply(op Op[V]) {
	s.ops = append(s.ops, tagged[V]{op: op})
}

// PruneRedundant drops every stable op whose tag rel reports redundant
// against the newly-arrived op, mirroring the unstable-side pass so a
// later write can supersede a value that already folded into stable.
func (s *state[V]) PruneRedundant(rel polog.RedundancyRelation[Op[V]], newOp Op[V], newTag clock.Tag) {
	kept := s.ops[:0:0]
	for _, t := range s.ops {
		if !rel(t.op, t.tag, false, newOp, newTag) {
			kept = append(kept, t)
		}
	}
	s.ops = kept
}

func (s *state[V]) maxTag() (clock.Tag, bool) {
	var (
		best  clock.Tag
		found bool
	)
	for _, t := range s.ops {
		if !found || best.Less(t.tag) {
			best, found = t.tag, true
		}
	}
	return best, found
}

// Value is the observable value of an LWW register: the tag-maximal
// write's payload, or the zero value if nothing has ever been written.
type Value[V any] struct {
	Val     V
	HasWrit bool
}

// Datatype implements polog.Datatype for the LWW register. At most one
// write ever sits in the unstable set at a time: RedundantItself rejects
// any arrival dominated by an existing tag, so convergence does not depend
// on delivery order.
type Datatype[V any] struct{}

// RedundantItself reports whether some already-held op (stable or
// unstable) outranks newOp by tag: a new arrival is redundant if any
// existing op has a strictly greater tag.
func (Datatype[V]) RedundantItself(newOp Op[V], newTag clock.Tag, stable *state[V], unstable []polog.Entry[Op[V]]) bool {
	if best, ok := stable.maxTag(); ok && newTag.Less(best) {
		return true
	}
	for _, e := range unstable {
		if newTag.Less(e.Tag) {
			return true
		}
	}
	return false
}

// RedundantByWhenRedundant is never consulted; the corresponding pruning
// pass is disabled for this datatype.
func (Datatype[V]) RedundantByWhenRedundant(Op[V], clock.Tag, bool, Op[V], clock.Tag) bool {
	return false
}

// RedundantByWhenNotRedundant makes every older write with a smaller tag
// redundant, regardless of concurrency.
func (Datatype[V]) RedundantByWhenNotRedundant(_ Op[V], oldTag clock.Tag, _ bool, _ Op[V], newTag clock.Tag) bool {
	return oldTag.Less(newTag)
}

func (Datatype[V]) DisableRedundantWhenRedundant() bool    { return true }
func (Datatype[V]) DisableRedundantWhenNotRedundant() bool { return false }
func (Datatype[V]) DisableStabilize() bool                 { return false }

// Stabilize records the candidate's tag alongside its op directly in
// stable's backing slice (the generic engine's default Apply has no tag to
// attach), then tells the engine not to call Apply a second time.
func (Datatype[V]) Stabilize(_ clock.Version, stable *state[V], entry polog.Entry[Op[V]]) bool {
	stable.ops = append(stable.ops, tagged[V]{op: entry.Op, tag: entry.Tag})
	return false
}

// Eval returns the payload of the tag-maximal write across the stable
// summary and the (at most one) still-unstable entry.
func (Datatype[V]) Eval(stable *state[V], unstable []Op[V]) Value[V] {
	best, found := stable.maxTag()
	var out Value[V]
	if found {
		for _, t := range stable.ops {
			if t.tag == best {
				out = Value[V]{Val: t.op.Value, HasWrit: true}
				break
			}
		}
	}
	if len(unstable) > 0 {
		// RedundantItself guarantees at most one unstable entry ever
		// survives concurrently with the stable tag-maximum.
		out = Value[V]{Val: unstable[len(unstable)-1].Value, HasWrit: true}
	}
	return out
}

// Log is an LWW-register-specialized PO-Log.
type Log[V any] = polog.Log[Op[V], Value[V], *state[V]]

// New returns a fresh, unwritten LWW register log.
func New[V any]() *Log[V] {
	return polog.NewLog[Op[V], Value[V], *state[V]](newState[V]())
}
