// Package event defines the unit of causal history the rest of the system
// moves around: a locally-applied Event carrying its causal metadata, the
// TaggedOp projection (operation plus tag, no version), and the WireEvent
// envelope used to move an Event across replica-id boundaries.
package event

import (
	"fmt"

	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/membership"
)

// Event is an operation as recorded by the replica that created or
// delivered it: its id, the Lamport timestamp it was stamped with, the
// causal version it was appended at, the operation payload itself, and the
// portable id of the replica that originated it (kept alongside the
// local-index-based ID so Tag comparisons stay consistent across
// replicas; see clock.Tag).
type Event[O any] struct {
	ID       clock.EventID
	Lamport  clock.Lamport
	Op       O
	Version  clock.Version
	OriginID membership.ReplicaID
}

// New builds an Event from its parts.
func New[O any](id clock.EventID, lamport clock.Lamport, op O, version clock.Version, originID membership.ReplicaID) Event[O] {
	return Event[O]{ID: id, Lamport: lamport, Op: op, Version: version, OriginID: originID}
}

// Tag returns the total-order tag for this event.
func (e Event[O]) Tag() clock.Tag {
	return clock.Tag{ID: e.ID, Lamport: e.Lamport, Origin: e.OriginID}
}

func (e Event[O]) String() string {
	return fmt.Sprintf("[%v, %s]", e.Op, e.Version)
}

// Unfold swaps the payload of an event for a differently-typed one while
// keeping its causal metadata, mirroring how a composite log unwraps a
// field operation to hand the inner event to a child datatype.
func Unfold[O, N any](e Event[O], op N) Event[N] {
	return Event[N]{ID: e.ID, Lamport: e.Lamport, Op: op, Version: e.Version, OriginID: e.OriginID}
}

// TaggedOp is an operation plus its Tag, without the full local Version.
// Its Tag carries local indices, so it is not the form sent between
// replicas; tcsb sends WireEvent for that.
type TaggedOp[O any] struct {
	Op  O
	Tag clock.Tag
}

// NewTaggedOp builds a TaggedOp from an id, lamport and operation.
func NewTaggedOp[O any](id clock.EventID, lamport clock.Lamport, op O) TaggedOp[O] {
	return TaggedOp[O]{Op: op, Tag: clock.Tag{ID: id, Lamport: lamport}}
}

// FromEvent projects an Event down to its TaggedOp.
func FromEvent[O any](e Event[O]) TaggedOp[O] {
	return TaggedOp[O]{Op: e.Op, Tag: e.Tag()}
}

func (t TaggedOp[O]) String() string {
	return fmt.Sprintf("[%v@%s]", t.Op, t.Tag.ID)
}

// WireEvent is the serialization-agnostic envelope used to move an Event
// across the replica-id boundary: the origin is carried as a
// membership.ReplicaID (portable) rather than a membership.Idx (local to
// one replica), and the version is a plain id-keyed map rather than a
// clock.Version tied to this replica's interner.
type WireEvent[O any] struct {
	OriginID membership.ReplicaID
	Seq      uint64
	Lamport  clock.Lamport
	Op       O
	Version  map[membership.ReplicaID]uint64
}

// NewWireEvent builds a WireEvent from its parts.
func NewWireEvent[O any](origin membership.ReplicaID, seq uint64, lamport clock.Lamport, op O, version map[membership.ReplicaID]uint64) WireEvent[O] {
	return WireEvent[O]{OriginID: origin, Seq: seq, Lamport: lamport, Op: op, Version: version}
}
