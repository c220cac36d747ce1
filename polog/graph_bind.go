package polog

import "github.com/moirai-crdt/tcsb/clock"

// GraphBound is the EventGraph analogue of Bound: it pairs the DAG-backed
// log with its GraphDatatype so a replica can drive it through the same
// Effect/Stabilize/Eval surface as a flat Log, without the facade needing
// to know which representation a given CRDT chose.
type GraphBound[O any, V any, S StableState[O]] struct {
	Graph *EventGraph[O, V, S]
	Dt    GraphDatatype[O, V, S]
}

// BindGraph returns a GraphBound wrapping an existing graph and its
// datatype.
func BindGraph[O any, V any, S StableState[O]](g *EventGraph[O, V, S], dt GraphDatatype[O, V, S]) *GraphBound[O, V, S] {
	return &GraphBound[O, V, S]{Graph: g, Dt: dt}
}

// Effect delivers op into the bound graph.
func (b *GraphBound[O, V, S]) Effect(op O, tag clock.Tag, version clock.Version) {
	b.Graph.Effect(b.Dt, op, tag, version)
}

// Stabilize folds whatever has become a causal predecessor of frontier into
// the bound graph's stable summary. A no-op for datatypes that disable
// stabilization (e.g. crdt/mvwindow).
func (b *GraphBound[O, V, S]) Stabilize(frontier clock.Version) {
	b.Graph.Stabilize(b.Dt, frontier)
}

// Eval evaluates the bound graph's observable value.
func (b *GraphBound[O, V, S]) Eval() V {
	return b.Graph.Eval(b.Dt)
}

// RedundantByParent forwards to the bound graph's reset-on-membership-
// collapse hook; see EventGraph.RedundantByParent.
func (b *GraphBound[O, V, S]) RedundantByParent(v clock.Version, conservative bool) {
	b.Graph.RedundantByParent(v, conservative)
}
