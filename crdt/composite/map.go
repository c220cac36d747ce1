package composite

import (
	"fmt"

	"github.com/moirai-crdt/tcsb/clock"
)

// Map is a container log of keyed sub-logs created on first use (e.g. a
// collection of independent AW-Sets keyed by owning user). Unlike Record,
// its key set is open: the first KeyOp addressed to an unseen key
// allocates a fresh sub-log for it via factory.
type Map[K comparable] struct {
	factory func() SubLog
	logs    map[K]SubLog
}

// NewMap returns an empty Map that mints a new sub-log with factory the
// first time a given key is addressed.
func NewMap[K comparable](factory func() SubLog) *Map[K] {
	return &Map[K]{factory: factory, logs: make(map[K]SubLog)}
}

// Effect routes op to the sub-log for op.Key, creating it via factory if
// this is the key's first operation.
func (m *Map[K]) Effect(op any, tag clock.Tag, version clock.Version) {
	ko, ok := op.(KeyOp[K])
	if !ok {
		panic(fmt.Sprintf("composite: Map.Effect given wrong op type %T", op))
	}
	sub, ok := m.logs[ko.Key]
	if !ok {
		sub = m.factory()
		m.logs[ko.Key] = sub
	}
	sub.Effect(ko.Inner, tag, version)
}

// Stabilize fans the new stability frontier out to every key's sub-log.
func (m *Map[K]) Stabilize(frontier clock.Version) {
	for _, sub := range m.logs {
		sub.Stabilize(frontier)
	}
}

// Eval evaluates every key's sub-log and returns the results keyed by K.
func (m *Map[K]) Eval() any {
	out := make(map[K]any, len(m.logs))
	for key, sub := range m.logs {
		out[key] = sub.Eval()
	}
	return out
}

// Keys returns every key with a sub-log so far, in no particular order.
func (m *Map[K]) Keys() []K {
	out := make([]K, 0, len(m.logs))
	for k := range m.logs {
		out = append(out, k)
	}
	return out
}

// Len reports the number of keys with a sub-log so far.
func (m *Map[K]) Len() int { return len(m.logs) }
