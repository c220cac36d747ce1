// Package composite implements nested/composite logs: a container that
// dispatches each delivered operation to the matching named or keyed
// sub-log rather than holding one flat PO-Log itself. Composition is
// associative: nesting a Record inside a Map yields a map-of-records with
// no extra coordination, because a Record or Map is itself just a SubLog.
//
// The operation envelope carries an explicit field name or map key rather
// than an open interface hierarchy, so dispatch stays a table lookup.
package composite

import "github.com/moirai-crdt/tcsb/clock"

// SubLog is the minimal surface any nested log must offer a composite
// container: apply a delivered operation, fold in a new stability
// frontier, and answer a query. Typed adapts a concretely-typed log (a
// polog.Bound, a polog.GraphBound, or another Record/Map) to this surface;
// Record and Map themselves satisfy SubLog too, which is what makes
// nesting associative — a map-of-records needs no extra coordination.
type SubLog interface {
	Effect(op any, tag clock.Tag, version clock.Version)
	Stabilize(frontier clock.Version)
	Eval() any
}

// FieldOp addresses an operation at one named field of a Record.
type FieldOp struct {
	Field string
	Inner any
}

// KeyOp addresses an operation at one key of a Map.
type KeyOp[K comparable] struct {
	Key   K
	Inner any
}

// typedLog is the shape a concretely-typed log presents (polog.Bound and
// polog.GraphBound both satisfy it, as does Record and Map[K] once their
// Eval's `any` is taken as V).
type typedLog[O any, V any] interface {
	Effect(op O, tag clock.Tag, version clock.Version)
	Stabilize(frontier clock.Version)
	Eval() V
}

// Typed wraps a concretely-typed log so it can sit as a SubLog inside a
// Record or Map, boxing its operation type on the way in and its value
// type on the way out.
type Typed[O any, V any] struct {
	Inner typedLog[O, V]
}

// Wrap builds a Typed adapter around any log matching typedLog's shape.
func Wrap[O any, V any](inner typedLog[O, V]) *Typed[O, V] {
	return &Typed[O, V]{Inner: inner}
}

func (t *Typed[O, V]) Effect(op any, tag clock.Tag, version clock.Version) {
	t.Inner.Effect(op.(O), tag, version)
}

func (t *Typed[O, V]) Stabilize(frontier clock.Version) { t.Inner.Stabilize(frontier) }

func (t *Typed[O, V]) Eval() any { return t.Inner.Eval() }
