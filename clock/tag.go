package clock

import (
	"fmt"

	"github.com/moirai-crdt/tcsb/membership"
)

// Lamport is a scalar causal timestamp derived from a Version: the sum of
// all its entries. Two concurrent versions can produce equal Lamport
// values, which is why Tag breaks ties on origin rather than trusting
// Lamport alone.
type Lamport uint64

// LamportOf returns the Lamport value of v.
func LamportOf(v Version) Lamport { return Lamport(v.Sum()) }

// EventID names a single operation: the replica that created it and its
// per-replica sequence number (the replica's own slot in its Version at
// the moment it was appended).
type EventID struct {
	Origin membership.Idx
	Seq    uint64
}

func (id EventID) String() string {
	return fmt.Sprintf("(%d:%d)", id.Origin, id.Seq)
}

// Less orders EventIDs by origin first, then sequence number. Used only to
// break Lamport ties within Tag.Less; it carries no causal meaning by
// itself.
func (id EventID) Less(other EventID) bool {
	if id.Origin != other.Origin {
		return id.Origin < other.Origin
	}
	return id.Seq < other.Seq
}

// IsPredecessorOf reports whether the event named by id is already
// reflected in v: v's entry for id.Origin is >= id.Seq.
func (id EventID) IsPredecessorOf(v Version) bool {
	return v.SeqByID(id.Origin) >= id.Seq
}

// Tag is the total-order label attached to every broadcast operation: a
// Lamport timestamp for causal ordering, the EventID that produced it, and
// the portable replica id that originated it — used only to
// deterministically break ties between concurrent events. Origin must be
// the sender's portable membership.ReplicaID rather than any one replica's
// local Idx: EventID's own Origin is local-index-based and two replicas may
// assign different indices to the same id, so comparing by it alone would
// let them order the same tie differently and break convergence.
type Tag struct {
	ID      EventID
	Lamport Lamport
	Origin  membership.ReplicaID
}

// NewTag builds the tag for event id created at version v, with v already
// reflecting that event's own increment. The portable Origin is left
// empty, so Less breaks Lamport ties between such tags by EventID.
func NewTag(id EventID, v Version) Tag {
	return Tag{ID: id, Lamport: LamportOf(v)}
}

// Less implements the tag total order: primarily by Lamport timestamp,
// then by the portable origin id, falling back to the local EventID only
// to keep the order total when both are unset or equal.
func (t Tag) Less(other Tag) bool {
	if t.Lamport != other.Lamport {
		return t.Lamport < other.Lamport
	}
	if t.Origin != other.Origin {
		return t.Origin < other.Origin
	}
	return t.ID.Less(other.ID)
}

// Equal reports whether two tags name the same event.
func (t Tag) Equal(other Tag) bool {
	return t.ID == other.ID && t.Lamport == other.Lamport
}

func (t Tag) String() string {
	return fmt.Sprintf("[%s,%d]", t.ID, t.Lamport)
}
