package polog

import (
	"fmt"

	"github.com/moirai-crdt/tcsb/clock"
)

// GraphNode is one delivered operation as recorded in an EventGraph: its
// payload, its tag, the causal version it carried, and the direct parents
// it was attached under at insertion time.
type GraphNode[O any] struct {
	Op      O
	Tag     clock.Tag
	Version clock.Version
	Parents []clock.EventID
}

// EventGraph is the DAG-backed alternative to the flat Log: instead of a
// bag of unstable operations, it keeps the explicit parent/child structure
// between them. This is only worth the extra bookkeeping for datatypes
// whose queries need to walk bounded causal history (e.g. a sliding window
// over the last k generations); everything else should use Log. Nodes are
// held in a plain per-event adjacency map rather than a run-length
// encoding: the queries here walk bounded history, they never replay the
// whole graph.
type EventGraph[O any, V any, S StableState[O]] struct {
	stable S
	nodes  map[clock.EventID]*GraphNode[O]
	heads  map[clock.EventID]struct{}
}

// NewEventGraph returns an empty graph seeded with the given stable
// summary.
func NewEventGraph[O any, V any, S StableState[O]](stable S) *EventGraph[O, V, S] {
	return &EventGraph[O, V, S]{
		stable: stable,
		nodes:  make(map[clock.EventID]*GraphNode[O]),
		heads:  make(map[clock.EventID]struct{}),
	}
}

// Stable returns the graph's stable summary.
func (g *EventGraph[O, V, S]) Stable() S { return g.stable }

// Heads returns the current frontier: event ids with no known child yet.
func (g *EventGraph[O, V, S]) Heads() []clock.EventID {
	out := make([]clock.EventID, 0, len(g.heads))
	for id := range g.heads {
		out = append(out, id)
	}
	return out
}

// Node returns the graph node for id, if it is still unstable.
func (g *EventGraph[O, V, S]) Node(id clock.EventID) (*GraphNode[O], bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len reports the number of unstable nodes currently held.
func (g *EventGraph[O, V, S]) Len() int { return len(g.nodes) }

// GraphDatatype is the DAG-aware analogue of Datatype: its relations and
// Eval receive the graph itself so they can walk ancestry, not just a flat
// unstable slice.
type GraphDatatype[O any, V any, S StableState[O]] interface {
	RedundantItself(newOp O, newTag clock.Tag, stable S, g *EventGraph[O, V, S]) bool
	RedundantByWhenRedundant(oldOp O, oldTag clock.Tag, isConc bool, newOp O, newTag clock.Tag) bool
	RedundantByWhenNotRedundant(oldOp O, oldTag clock.Tag, isConc bool, newOp O, newTag clock.Tag) bool
	DisableRedundantWhenRedundant() bool
	DisableRedundantWhenNotRedundant() bool
	DisableStabilize() bool
	Stabilize(frontier clock.Version, stable S, node *GraphNode[O]) bool
	Eval(stable S, g *EventGraph[O, V, S]) V
}

// insertNode attaches op under the current heads, replacing any head that
// is now a causal ancestor of version with the new node and leaving
// genuinely concurrent heads untouched. A node id already present is
// fatal: tags are unique per origin, so a collision means the caller
// bypassed duplicate detection or two replicas share an origin id.
func (g *EventGraph[O, V, S]) insertNode(op O, tag clock.Tag, version clock.Version) *GraphNode[O] {
	if _, exists := g.nodes[tag.ID]; exists {
		panic(fmt.Sprintf("polog: duplicate tag %s inserted into event graph", tag))
	}
	parents := make([]clock.EventID, 0, len(g.heads))
	newHeads := make(map[clock.EventID]struct{}, len(g.heads)+1)
	for h := range g.heads {
		if head, ok := g.nodes[h]; ok && head.Version.LessEqual(version) {
			parents = append(parents, h)
			continue
		}
		newHeads[h] = struct{}{}
	}
	node := &GraphNode[O]{Op: op, Tag: tag, Version: version, Parents: parents}
	g.nodes[tag.ID] = node
	newHeads[tag.ID] = struct{}{}
	g.heads = newHeads
	return node
}

func (g *EventGraph[O, V, S]) remove(id clock.EventID) {
	delete(g.nodes, id)
	delete(g.heads, id)
}

// Effect delivers op into the graph, running the same itself/prune
// decision sequence as Log.Effect but over the DAG's node set.
func (g *EventGraph[O, V, S]) Effect(dt GraphDatatype[O, V, S], op O, tag clock.Tag, version clock.Version) {
	if dt.RedundantItself(op, tag, g.stable, g) {
		if !dt.DisableRedundantWhenRedundant() {
			g.pruneRedundant(dt.RedundantByWhenRedundant, op, tag, version)
		}
		return
	}
	if !dt.DisableRedundantWhenNotRedundant() {
		g.pruneRedundant(dt.RedundantByWhenNotRedundant, op, tag, version)
	}
	g.insertNode(op, tag, version)
}

func (g *EventGraph[O, V, S]) pruneRedundant(rel RedundancyRelation[O], newOp O, newTag clock.Tag, newVersion clock.Version) {
	for id, n := range g.nodes {
		isConc := !id.IsPredecessorOf(newVersion)
		if rel(n.Op, n.Tag, isConc, newOp, newTag) {
			g.remove(id)
		}
	}
}

// Stabilize folds every node that has become a causal predecessor of
// frontier into the stable summary and removes it from the graph. Each
// surviving child's Parents list is rewritten to skip the removed ids so
// ancestry walks over the remaining unstable nodes never chase a dangling
// reference.
func (g *EventGraph[O, V, S]) Stabilize(dt GraphDatatype[O, V, S], frontier clock.Version) {
	if dt.DisableStabilize() {
		return
	}
	var stabilized []clock.EventID
	for id := range g.nodes {
		if id.IsPredecessorOf(frontier) {
			stabilized = append(stabilized, id)
		}
	}
	stableSet := make(map[clock.EventID]struct{}, len(stabilized))
	for _, id := range stabilized {
		stableSet[id] = struct{}{}
	}
	for _, id := range stabilized {
		n := g.nodes[id]
		if dt.Stabilize(frontier, g.stable, n) {
			g.stable.Apply(n.Op)
		}
		g.remove(id)
	}
	for _, n := range g.nodes {
		n.Parents = dropStabilized(n.Parents, stableSet)
	}
}

func dropStabilized(parents []clock.EventID, stable map[clock.EventID]struct{}) []clock.EventID {
	kept := parents[:0:0]
	for _, p := range parents {
		if _, gone := stable[p]; !gone {
			kept = append(kept, p)
		}
	}
	return kept
}

// Ancestors walks back from the current heads up to depth generations,
// following Parents, and returns every node id visited (heads included).
// depth <= 0 returns just the heads. This is the bounded causal-history
// query a sliding-window register needs: "what has happened in the last k
// rounds of concurrent activity".
func (g *EventGraph[O, V, S]) Ancestors(depth int) []clock.EventID {
	frontier := g.Heads()
	visited := make(map[clock.EventID]struct{}, len(frontier))
	for _, id := range frontier {
		visited[id] = struct{}{}
	}
	for gen := 0; gen < depth; gen++ {
		var next []clock.EventID
		for _, id := range frontier {
			n, ok := g.nodes[id]
			if !ok {
				continue
			}
			for _, p := range n.Parents {
				if _, seen := visited[p]; seen {
					continue
				}
				visited[p] = struct{}{}
				next = append(next, p)
			}
		}
		if len(next) == 0 {
			break
		}
		frontier = next
	}
	out := make([]clock.EventID, 0, len(visited))
	for id := range visited {
		out = append(out, id)
	}
	return out
}

// Eval folds the stable summary with the whole unstable graph.
func (g *EventGraph[O, V, S]) Eval(dt GraphDatatype[O, V, S]) V {
	return dt.Eval(g.stable, g)
}

// RedundantByParent is the EventGraph analogue of Log.RedundantByParent:
// it clears the stable summary and, unless conservative is set, every
// node. With conservative set it drops only the nodes that are causal
// predecessors of v and keeps the nodes concurrent with v (along with
// their Parents lists, now possibly referencing removed nodes — a caller
// using this hook owns reconciling that, matching the hook's "unused by
// the core" status).
func (g *EventGraph[O, V, S]) RedundantByParent(v clock.Version, conservative bool) {
	g.stable.Clear()
	if !conservative {
		g.nodes = make(map[clock.EventID]*GraphNode[O])
		g.heads = make(map[clock.EventID]struct{})
		return
	}
	for id, n := range g.nodes {
		if n.Tag.ID.IsPredecessorOf(v) {
			g.remove(id)
		}
	}
}
