// Package mvwindow implements a multi-value sliding-window register: it
// generalizes an MV register along a second axis, a bounded causal-history
// depth k, and answers "what has been written in roughly the last k rounds
// of concurrent activity" instead of collapsing to a single merged value.
// It never prunes and never stabilizes, which is why it needs the
// DAG-backed polog.EventGraph rather than the flat polog.Log: the window
// query walks bounded ancestry, it does not fold a summary.
package mvwindow

import (
	"sort"

	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/polog"
)

// Op is the sliding window's operation alphabet: a single Write.
type Op[V any] struct {
	Value V
}

// WriteOp builds a Write operation.
func WriteOp[V any](v V) Op[V] { return Op[V]{Value: v} }

// state is the stable summary. The window never stabilizes, so this type
// exists only to satisfy polog.StableState; it stores nothing.
type state[V any] struct{}

func newState[V any]() *state[V] { return &state[V]{} }

func (*state[V]) IsDefault() bool { return true }
func (*state[V]) Clear()          {}
func (*state[V]) Apply(Op[V])     {}
func (*state[V]) PruneRedundant(polog.RedundancyRelation[Op[V]], Op[V], clock.Tag) {
}

// Datatype implements polog.GraphDatatype for the sliding window. Depth is
// the window's bound k: Eval walks at most Depth generations back from the
// current causal frontier.
type Datatype[V any] struct {
	Depth int
}

// Graph is the sliding-window-specialized event DAG.
type Graph[V any] = polog.EventGraph[Op[V], []V, *state[V]]

// New returns a fresh, empty sliding-window log with the given window
// depth, along with the datatype value Effect/Eval need.
func New[V any](depth int) (*Graph[V], Datatype[V]) {
	return polog.NewEventGraph[Op[V], []V, *state[V]](newState[V]()), Datatype[V]{Depth: depth}
}

// RedundantItself is always false: every write is kept until it ages out
// of the window by ancestry depth, never by a redundancy relation.
func (Datatype[V]) RedundantItself(Op[V], clock.Tag, *state[V], *Graph[V]) bool {
	return false
}

// RedundantByWhenRedundant and RedundantByWhenNotRedundant are never
// consulted (both pruning passes are disabled); they exist only to satisfy
// polog.GraphDatatype.
func (Datatype[V]) RedundantByWhenRedundant(Op[V], clock.Tag, bool, Op[V], clock.Tag) bool {
	return false
}

func (Datatype[V]) RedundantByWhenNotRedundant(Op[V], clock.Tag, bool, Op[V], clock.Tag) bool {
	return false
}

func (Datatype[V]) DisableRedundantWhenRedundant() bool    { return true }
func (Datatype[V]) DisableRedundantWhenNotRedundant() bool { return true }
func (Datatype[V]) DisableStabilize() bool                 { return true }

// Stabilize is never invoked (DisableStabilize is true); it exists only to
// satisfy polog.GraphDatatype.
func (Datatype[V]) Stabilize(clock.Version, *state[V], *polog.GraphNode[Op[V]]) bool {
	return false
}

// Eval walks back Depth generations from the current causal frontier and
// returns the writes found there, in tag order.
func (dt Datatype[V]) Eval(_ *state[V], g *Graph[V]) []V {
	ids := g.Ancestors(dt.Depth)
	type found struct {
		tag clock.Tag
		val V
	}
	entries := make([]found, 0, len(ids))
	for _, id := range ids {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		entries = append(entries, found{tag: n.Tag, val: n.Op.Value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag.Less(entries[j].tag) })
	out := make([]V, len(entries))
	for i, e := range entries {
		out[i] = e.val
	}
	return out
}
