// Package awset implements an add-wins set: concurrent Add and Remove of
// the same element resolve in favor of the Add, and a concurrent Clear
// never removes elements added concurrently with it.
package awset

import (
	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/polog"
)

// Op is the AW-Set's operation alphabet.
type Op[V comparable] struct {
	Kind  Kind
	Value V
}

// Kind discriminates an Op's variant.
type Kind int

const (
	Add Kind = iota
	Remove
	Clear
)

// AddOp, RemoveOp and ClearOp build the three operation variants.
func AddOp[V comparable](v V) Op[V]    { return Op[V]{Kind: Add, Value: v} }
func RemoveOp[V comparable](v V) Op[V] { return Op[V]{Kind: Remove, Value: v} }
func ClearOp[V comparable]() Op[V]     { return Op[V]{Kind: Clear} }

// state is the stable summary: the set of values known to have survived
// every operation folded into it so far.
type state[V comparable] struct {
	values map[V]struct{}
}

func newState[V comparable]() *state[V] {
	return &state[V]{values: make(map[V]struct{})}
}

func (s *state[V]) IsDefault() bool { return len(s.values) == 0 }
func (s *state[V]) Clear()          { s.values = make(map[V]struct{}) }

func (s *state[V]) Apply(op Op[V]) {
	if op.Kind == Add {
		s.values[op.Value] = struct{}{}
	}
}

// PruneRedundant mirrors the AW-Set's own redundancy relation against the
// already-folded summary: a later, causally-dependent Add/Remove/Clear
// retroactively drops whatever it would have pruned had it still been
// unstable.
func (s *state[V]) PruneRedundant(_ polog.RedundancyRelation[Op[V]], newOp Op[V], _ clock.Tag) {
	switch newOp.Kind {
	case Clear:
		s.Clear()
	case Add, Remove:
		delete(s.values, newOp.Value)
	}
}

// Value is the evaluated result of an AW-Set: the set of elements present.
type Value[V comparable] map[V]struct{}

// Datatype implements polog.Datatype for the add-wins set.
type Datatype[V comparable] struct{}

func (Datatype[V]) RedundantItself(newOp Op[V], _ clock.Tag, _ *state[V], _ []polog.Entry[Op[V]]) bool {
	return newOp.Kind == Clear || newOp.Kind == Remove
}

func (Datatype[V]) RedundantByWhenRedundant(oldOp Op[V], _ clock.Tag, isConc bool, newOp Op[V], _ clock.Tag) bool {
	if isConc {
		return false
	}
	if newOp.Kind == Clear {
		return true
	}
	return oldOp.Kind == Add && (newOp.Kind == Add || newOp.Kind == Remove) && oldOp.Value == newOp.Value
}

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
		if op.Kind == Add {
			out[op.Value] = struct{}{}
		}
	}
	return out
}

// Log is an AW-Set-specialized PO-Log.
type Log[V comparable] = polog.Log[Op[V], Value[V], *state[V]]

// New returns a fresh, empty AW-Set log.
func New[V comparable]() *Log[V] {
	return polog.NewLog[Op[V], Value[V], *state[V]](newState[V]())
}
