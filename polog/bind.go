package polog

import "github.com/moirai-crdt/tcsb/clock"

// Bound pairs a flat Log with the Datatype that drives it, presenting the
// pair as the single Effect/Stabilize/Eval surface the replica facade
// expects from any log representation. The generic engine keeps
// Log and Datatype separate so the datatype stays a stateless, reusable
// value; Bound is just the closure over both that a call site wants.
type Bound[O any, V any, S StableState[O]] struct {
	Log *Log[O, V, S]
	Dt  Datatype[O, V, S]
}

// Bind returns a Bound wrapping an existing log and its datatype.
func Bind[O any, V any, S StableState[O]](log *Log[O, V, S], dt Datatype[O, V, S]) *Bound[O, V, S] {
	return &Bound[O, V, S]{Log: log, Dt: dt}
}

// Effect delivers op into the bound log.
func (b *Bound[O, V, S]) Effect(op O, tag clock.Tag, version clock.Version) {
	b.Log.Effect(b.Dt, op, tag, version)
}

// Stabilize folds whatever has become a causal predecessor of frontier into
// the bound log's stable summary.
func (b *Bound[O, V, S]) Stabilize(frontier clock.Version) {
	b.Log.Stabilize(b.Dt, frontier)
}

// Eval evaluates the bound log's observable value.
func (b *Bound[O, V, S]) Eval() V {
	return b.Log.Eval(b.Dt)
}

// RedundantByParent forwards to the bound log's reset-on-membership-
// collapse hook; see Log.RedundantByParent.
func (b *Bound[O, V, S]) RedundantByParent(v clock.Version, conservative bool) {
	b.Log.RedundantByParent(v, conservative)
}

// Unstable forwards to the bound log's still-unstable entries, letting a
// replica facade answer a pull request without knowing which datatype it
// is driving.
func (b *Bound[O, V, S]) Unstable() []Entry[O] {
	return b.Log.Unstable()
}
