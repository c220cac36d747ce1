// Package mvregister implements a multi-value register: unlike an LWW
// register, concurrent writes are not resolved by tag order — both survive
// until a causally later write or Clear dominates them.
package mvregister

import (
	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/polog"
)

// Op is the MV-register's operation alphabet.
type Op[V comparable] struct {
	Kind  Kind
	Value V
}

// Kind discriminates an Op's variant.
type Kind int

const (
	Write Kind = iota
	Clear
)

// WriteOp and ClearOp build the two operation variants.
func WriteOp[V comparable](v V) Op[V] { return Op[V]{Kind: Write, Value: v} }
func ClearOp[V comparable]() Op[V]    { return Op[V]{Kind: Clear} }

// state is the stable summary: the values of every write known to have
// survived domination so far.
type state[V comparable] struct {
	values map[V]struct{}
}

func newState[V comparable]() *state[V] {
	return &state[V]{values: make(map[V]struct{})}
}

func (s *state[V]) IsDefault() bool { return len(s.values) == 0 }
func (s *state[V]) Clear()          { s.values = make(map[V]struct{}) }

func (s *state[V]) Apply(op Op[V]) {
	if op.Kind == Write {
		s.values[op.Value] = struct{}{}
	}
}

// PruneRedundant drops the whole folded summary: a stabilized write is a
// causal predecessor of any operation delivered after it, so every new
// Write or Clear dominates everything already in the summary.
func (s *state[V]) PruneRedundant(_ polog.RedundancyRelation[Op[V]], _ Op[V], _ clock.Tag) {
	s.Clear()
}

// Value is the observable value of an MV register: the set of surviving
// concurrent writes.
type Value[V comparable] map[V]struct{}

// Datatype implements polog.Datatype for the multi-value register.
type Datatype[V comparable] struct{}

func (Datatype[V]) RedundantItself(newOp Op[V], _ clock.Tag, _ *state[V], _ []polog.Entry[Op[V]]) bool {
	return newOp.Kind == Clear
}

// RedundantByWhenRedundant handles the Clear case: every causal
// predecessor of the clear is dropped; concurrent writes survive it.
func (Datatype[V]) RedundantByWhenRedundant(_ Op[V], _ clock.Tag, isConc bool, _ Op[V], _ clock.Tag) bool {
	return !isConc
}

// RedundantByWhenNotRedundant handles a retained Write: every causally
// dominated older write is dropped; concurrent writes coexist (the
// defining difference from an LWW register).
func (dt Datatype[V]) RedundantByWhenNotRedundant(oldOp Op[V], oldTag clock.Tag, isConc bool, newOp Op[V], newTag clock.Tag) bool {
	return dt.RedundantByWhenRedundant(oldOp, oldTag, isConc, newOp, newTag)
}

func (Datatype[V]) DisableRedundantWhenRedundant() bool    { return false }
func (Datatype[V]) DisableRedundantWhenNotRedundant() bool { return false }
func (Datatype[V]) DisableStabilize() bool                 { return false }

func (Datatype[V]) Stabilize(clock.Version, *state[V], polog.Entry[Op[V]]) bool {
	return true
}

func (Datatype[V]) Eval(stable *state[V], unstable []Op[V]) Value[V] {
	out := make(Value[V], len(stable.values))
	for v := range stable.values {
		out[v] = struct{}{}
	}
	for _, op := range unstable {
		if op.Kind == Write {
			out[op.Value] = struct{}{}
		}
	}
	return out
}

// Log is an MV-register-specialized PO-Log.
type Log[V comparable] = polog.Log[Op[V], Value[V], *state[V]]

// New returns a fresh, empty MV register log.
func New[V comparable]() *Log[V] {
	return polog.NewLog[Op[V], Value[V], *state[V]](newState[V]())
}
