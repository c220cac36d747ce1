// Package polog implements the partially-ordered log (PO-Log) engine: the
// datatype-agnostic machinery that decides, for every delivered operation,
// whether it is itself redundant and which already-held operations it makes
// redundant, then later folds causally-stable operations into a compact
// summary. Each CRDT plugs in its own redundancy relations by implementing
// Datatype; the engine in this file never inspects an operation's payload.
package polog

import (
	"fmt"
	"sort"

	"github.com/moirai-crdt/tcsb/clock"
)

// StableState is the compact summary a datatype folds causally-stable
// operations into. Apply absorbs one operation into the summary; Clear
// resets it to the empty summary, used when a later operation (e.g. a
// Clear/Reset) makes the whole accumulated summary redundant at once.
type StableState[O any] interface {
	IsDefault() bool
	Clear()
	Apply(op O)

	// PruneRedundant removes from the summary whatever portion of it rel
	// reports as redundant given the arrival of newOp. In this module the
	// counter clears its summary on a Reset, the flag and the MV register
	// clear it on any new operation, the AW-Set and the LWW register
	// remove individual entries, and the sliding window (which never
	// stabilizes) does nothing here.
	PruneRedundant(rel RedundancyRelation[O], newOp O, newTag clock.Tag)
}

// Entry pairs an unstable operation with the causal metadata it was
// delivered with.
type Entry[O any] struct {
	Op      O
	Tag     clock.Tag
	Version clock.Version
}

// RedundancyRelation decides whether oldOp (tagged oldTag, concurrent with
// the new operation iff isConc) is made redundant by the arrival of newOp.
type RedundancyRelation[O any] func(oldOp O, oldTag clock.Tag, isConc bool, newOp O, newTag clock.Tag) bool

// Datatype is the set of datatype-specific policies the PO-Log engine
// drives. S is the datatype's StableState implementation; V is the value
// its Eval produces.
type Datatype[O any, V any, S StableState[O]] interface {
	// RedundantItself reports whether newOp needs no entry in the log at
	// all once delivered (e.g. a Remove in an add-wins set).
	RedundantItself(newOp O, newTag clock.Tag, stable S, unstable []Entry[O]) bool

	// RedundantByWhenRedundant is applied to prune both stable and
	// unstable operations when the new operation was itself found
	// redundant.
	RedundantByWhenRedundant(oldOp O, oldTag clock.Tag, isConc bool, newOp O, newTag clock.Tag) bool

	// RedundantByWhenNotRedundant is applied to prune both stable and
	// unstable operations when the new operation is retained.
	RedundantByWhenNotRedundant(oldOp O, oldTag clock.Tag, isConc bool, newOp O, newTag clock.Tag) bool

	// DisableRedundantWhenRedundant, DisableRedundantWhenNotRedundant and
	// DisableStabilize let a datatype skip a pass entirely instead of
	// supplying a relation that always returns false; some datatypes
	// (e.g. resettable counters) need the distinction between "never
	// prunes" and "prunes nothing this time".
	DisableRedundantWhenRedundant() bool
	DisableRedundantWhenNotRedundant() bool
	DisableStabilize() bool

	// Stabilize is invoked once per unstable entry that has become a
	// causal predecessor of the stability frontier, in tag order. It may
	// mutate stable directly (e.g. to implement a reset). It returns
	// whether the engine should fold entry.Op into stable via Apply. The
	// entry is dropped from unstable either way; returning false skips
	// only the Apply (used when Stabilize already consumed or discarded
	// it itself).
	Stabilize(frontier clock.Version, stable S, entry Entry[O]) bool

	// Eval folds the stable summary and the still-unstable operations
	// (in tag order) into the datatype's observable value.
	Eval(stable S, unstable []O) V
}

// Log is the generic PO-Log: a datatype-specific stable summary plus the
// flat bag of not-yet-stable operations, kept sorted by tag.
type Log[O any, V any, S StableState[O]] struct {
	stable   S
	unstable []Entry[O]
}

// NewLog returns an empty log seeded with the given (zero-value) stable
// summary.
func NewLog[O any, V any, S StableState[O]](stable S) *Log[O, V, S] {
	return &Log[O, V, S]{stable: stable}
}

// Stable returns the log's current stable summary.
func (l *Log[O, V, S]) Stable() S { return l.stable }

// Unstable returns a defensive copy of the log's unstable entries, in tag
// order.
func (l *Log[O, V, S]) Unstable() []Entry[O] {
	out := make([]Entry[O], len(l.unstable))
	copy(out, l.unstable)
	return out
}

// Len reports the number of unstable operations, plus one if the stable
// summary is non-default. Stable size is not tracked by the generic engine
// (summaries may compact multiple operations into one value).
func (l *Log[O, V, S]) Len() int {
	n := len(l.unstable)
	if !l.stable.IsDefault() {
		n++
	}
	return n
}

// Effect delivers a newly-received (or locally-produced) operation into the
// log, applying the datatype's redundancy relations.
func (l *Log[O, V, S]) Effect(dt Datatype[O, V, S], op O, tag clock.Tag, version clock.Version) {
	if dt.RedundantItself(op, tag, l.stable, l.Unstable()) {
		if !dt.DisableRedundantWhenRedundant() {
			l.pruneRedundant(dt.RedundantByWhenRedundant, op, tag, version)
		}
		return
	}
	if !dt.DisableRedundantWhenNotRedundant() {
		l.pruneRedundant(dt.RedundantByWhenNotRedundant, op, tag, version)
	}
	l.insert(Entry[O]{Op: op, Tag: tag, Version: version})
}

func (l *Log[O, V, S]) pruneRedundant(rel RedundancyRelation[O], newOp O, newTag clock.Tag, newVersion clock.Version) {
	l.stable.PruneRedundant(rel, newOp, newTag)

	kept := l.unstable[:0:0]
	for _, old := range l.unstable {
		isConc := !old.Tag.ID.IsPredecessorOf(newVersion)
		if !rel(old.Op, old.Tag, isConc, newOp, newTag) {
			kept = append(kept, old)
		}
	}
	l.unstable = kept
}

// insert places e at its tag-ordered position. A tag already present is
// fatal: tags are unique per origin, so a collision means the caller
// bypassed duplicate detection or two replicas share an origin id.
func (l *Log[O, V, S]) insert(e Entry[O]) {
	idx := sort.Search(len(l.unstable), func(i int) bool { return e.Tag.Less(l.unstable[i].Tag) })
	if idx > 0 && l.unstable[idx-1].Tag.Equal(e.Tag) {
		panic(fmt.Sprintf("polog: duplicate tag %s inserted into unstable log", e.Tag))
	}
	l.unstable = append(l.unstable, Entry[O]{})
	copy(l.unstable[idx+1:], l.unstable[idx:])
	l.unstable[idx] = e
}

// Stabilize folds every unstable entry that has become a causal predecessor
// of frontier into the stable summary, in tag order.
func (l *Log[O, V, S]) Stabilize(dt Datatype[O, V, S], frontier clock.Version) {
	if dt.DisableStabilize() {
		return
	}
	kept := l.unstable[:0:0]
	for _, e := range l.unstable {
		if !e.Tag.ID.IsPredecessorOf(frontier) {
			kept = append(kept, e)
			continue
		}
		if dt.Stabilize(frontier, l.stable, e) {
			l.stable.Apply(e.Op)
		}
	}
	l.unstable = kept
}

// Eval returns the datatype's observable value over the whole log.
func (l *Log[O, V, S]) Eval(dt Datatype[O, V, S]) V {
	ops := make([]O, len(l.unstable))
	for i, e := range l.unstable {
		ops[i] = e.Op
	}
	return dt.Eval(l.stable, ops)
}

// RedundantByParent is the reset-on-membership-collapse hook: it clears
// the stable summary outright and, in unstable, either retains only the
// entries still concurrent with v (conservative) or clears unstable
// entirely. No datatype in this module calls it; it is the extension point
// an eviction policy built above the core would use.
func (l *Log[O, V, S]) RedundantByParent(v clock.Version, conservative bool) {
	l.stable.Clear()
	if !conservative {
		l.unstable = nil
		return
	}
	kept := l.unstable[:0:0]
	for _, e := range l.unstable {
		if !e.Tag.ID.IsPredecessorOf(v) {
			kept = append(kept, e)
		}
	}
	l.unstable = kept
}
