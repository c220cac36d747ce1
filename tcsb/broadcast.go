// Package tcsb implements Tagged Causal-Stable Broadcast: the transport
// substrate a replica's PO-Log sits on top of. It assigns each local
// operation a causal tag, classifies every delivered remote operation as a
// duplicate, out-of-order (buffered until its causal predecessors arrive),
// or ready, and exposes the causal-stability frontier the PO-Log uses to
// fold operations into their stable summaries.
package tcsb

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/event"
	"github.com/moirai-crdt/tcsb/membership"
)

// Sentinel errors. Receive returns ErrDuplicateEvent for an event already
// delivered; ReceiveBatch skips duplicates instead of returning it.
// ErrUnknownPeer is not returned by this package: incoming ids are
// interned on first sight.
var (
	ErrDuplicateEvent = pkgerrors.New("tcsb: duplicate event")
	ErrUnknownPeer    = pkgerrors.New("tcsb: event references an unresolved peer index")
)

// Broadcast is one replica's view of the causal broadcast substrate: its
// own identity, the membership interner/translator, and the matrix clock
// used to detect duplicates, ordering, and stability.
type Broadcast[O any] struct {
	self       membership.Idx
	interner   *membership.Interner
	translator *membership.Translator
	matrix     *clock.Matrix
	pending    []event.Event[O]
}

// New returns a broadcast endpoint with selfID interned at index 0,
// followed by any known group members. Seeding the full group up front
// matters for stability: the frontier is the min-column over known rows,
// so a member this endpoint has never heard of cannot hold stabilization
// back. A replica built with only its own id will treat its own
// operations as immediately stable until it first hears from a peer.
func New[O any](selfID membership.ReplicaID, members ...membership.ReplicaID) *Broadcast[O] {
	interner := membership.NewInterner()
	idx, _ := interner.Intern(selfID)
	b := &Broadcast[O]{
		self:       idx,
		interner:   interner,
		translator: membership.NewTranslator(interner),
		matrix:     clock.NewMatrix(idx),
	}
	for _, m := range members {
		b.AddPeer(m)
	}
	return b
}

// AddPeer interns a group member and gives it a zero matrix row, holding
// the stability frontier at zero for that member until its events arrive.
// A no-op for ids already known.
func (b *Broadcast[O]) AddPeer(id membership.ReplicaID) membership.Idx {
	idx, isNew := b.interner.Intern(id)
	if isNew {
		b.matrix.AddRow(idx)
	}
	return idx
}

// SelfID returns this replica's own index.
func (b *Broadcast[O]) SelfID() membership.Idx { return b.self }

// Interner exposes the membership table, e.g. for callers translating
// replica ids for display.
func (b *Broadcast[O]) Interner() *membership.Interner { return b.interner }

// OwnVersion returns this replica's own causal version: everything it has
// delivered from itself and every peer so far.
func (b *Broadcast[O]) OwnVersion() clock.Version { return b.matrix.OwnVersion() }

// Send assigns the next tag to a locally-produced operation. Local
// operations are always causally ready with respect to their own replica,
// so Send also folds the new version into the matrix immediately.
func (b *Broadcast[O]) Send(op O) event.Event[O] {
	v := b.matrix.IncrementSelf()
	id := clock.EventID{Origin: b.self, Seq: v.SeqByID(b.self)}
	selfID, _ := b.interner.IDOf(b.self)
	return event.New(id, clock.LamportOf(v), op, v, selfID)
}

// ToWire projects a locally-held event into the portable envelope used for
// transmission, resolving every index it carries back to a ReplicaID.
func (b *Broadcast[O]) ToWire(e event.Event[O]) event.WireEvent[O] {
	originID, _ := b.interner.IDOf(e.ID.Origin)
	return event.NewWireEvent(originID, e.ID.Seq, e.Lamport, e.Op, b.wireVersion(e.Version))
}

// fromWire resolves a portable WireEvent against the local interner,
// allocating indices for any replica id seen for the first time.
func (b *Broadcast[O]) fromWire(w event.WireEvent[O]) event.Event[O] {
	originIdx, isNew := b.interner.Intern(w.OriginID)
	if isNew {
		b.matrix.AddRow(originIdx)
	}
	entries := make(map[membership.Idx]uint64, len(w.Version))
	for id, seq := range w.Version {
		idx, isNew := b.interner.Intern(id)
		if isNew {
			b.matrix.AddRow(idx)
		}
		entries[idx] = seq
	}
	version := clock.VersionFromEntries(entries)
	return event.New(clock.EventID{Origin: originIdx, Seq: w.Seq}, w.Lamport, w.Op, version, w.OriginID)
}

// Receive ingests a remote wire event and returns every event that is now
// causally ready for delivery, in delivery order: the event itself (if
// ready) followed by any previously pending events it unblocks. An empty,
// nil-error result means the event was buffered pending its predecessors.
func (b *Broadcast[O]) Receive(w event.WireEvent[O]) ([]event.Event[O], error) {
	e := b.fromWire(w)
	return b.admit(e)
}

// ReceiveBatch ingests every event in a pull response, in order, returning
// the concatenation of events each one made ready.
func (b *Broadcast[O]) ReceiveBatch(events []event.WireEvent[O]) ([]event.Event[O], error) {
	var ready []event.Event[O]
	for _, w := range events {
		r, err := b.Receive(w)
		if err != nil && !errors.Is(err, ErrDuplicateEvent) {
			return ready, err
		}
		ready = append(ready, r...)
	}
	return ready, nil
}

func (b *Broadcast[O]) admit(e event.Event[O]) ([]event.Event[O], error) {
	if b.isDuplicate(e) {
		return nil, ErrDuplicateEvent
	}
	if !b.isCausallyReady(e) {
		b.pending = append(b.pending, e)
		return nil, nil
	}
	ready := []event.Event[O]{b.deliver(e)}
	ready = append(ready, b.drainPending()...)
	return ready, nil
}

// isDuplicate reports whether this event's sequence number has already
// been folded into our own version (guard_against_duplicates).
func (b *Broadcast[O]) isDuplicate(e event.Event[O]) bool {
	return e.ID.Seq <= b.matrix.OwnVersion().SeqByID(e.ID.Origin)
}

// isCausallyReady reports whether e is the immediate next operation from
// its origin, and every other replica's contribution to e's version has
// already been folded into our own (guard_against_out_of_order, inverted).
func (b *Broadcast[O]) isCausallyReady(e event.Event[O]) bool {
	own := b.matrix.OwnVersion()
	if e.ID.Seq != own.SeqByID(e.ID.Origin)+1 {
		return false
	}
	for idx, seq := range e.Version.Entries() {
		if idx == e.ID.Origin {
			continue
		}
		if seq > own.SeqByID(idx) {
			return false
		}
	}
	return true
}

func (b *Broadcast[O]) deliver(e event.Event[O]) event.Event[O] {
	b.matrix.MergeOwn(e.Version)
	b.matrix.Update(e.ID.Origin, e.Version)
	return e
}

func (b *Broadcast[O]) drainPending() []event.Event[O] {
	var delivered []event.Event[O]
	for {
		progressed := false
		remaining := b.pending[:0:0]
		for _, e := range b.pending {
			if b.isDuplicate(e) {
				progressed = true
				continue
			}
			if b.isCausallyReady(e) {
				delivered = append(delivered, b.deliver(e))
				progressed = true
				continue
			}
			remaining = append(remaining, e)
		}
		b.pending = remaining
		if !progressed {
			break
		}
	}
	return delivered
}

// AdoptResolver merges a peer's advertised index table (the list of
// replica ids it has interned, in its own index order) into our
// translator for that peer, so a later indexed message from it can be
// resolved without a round trip. Used when relaying a peer's pull batch
// on to a third replica that has not talked to the original peer yet.
func (b *Broadcast[O]) AdoptResolver(peerID membership.ReplicaID, resolver []membership.ReplicaID) {
	b.translator.ExtendRow(peerID, resolver)
}

// IsStable returns the causal-stability frontier: the version every known
// replica is guaranteed to have already delivered.
func (b *Broadcast[O]) IsStable() clock.Version {
	return b.matrix.MinColumn()
}

// PendingCount reports how many events are buffered awaiting predecessors.
func (b *Broadcast[O]) PendingCount() int { return len(b.pending) }

// WireID names an event portably: the originating replica's id plus its
// per-origin sequence number. Local clock.EventIDs are keyed by each
// replica's private index space and mean nothing to a peer, so everything
// crossing the replica boundary in a Since must use this form instead,
// exactly as WireEvent does for events.
type WireID struct {
	Origin membership.ReplicaID
	Seq    uint64
}

// Since is the catch-up request a replica sends a peer to pull whatever it
// is missing: its own version, plus the ids of events it has already
// received but not yet delivered (so the peer does not resend them). Both
// parts are keyed by portable replica ids, never local indices.
type Since struct {
	Version map[membership.ReplicaID]uint64
	Except  map[WireID]struct{}
}

// Since builds the catch-up request describing this replica's current
// knowledge, resolving every local index it carries back to a ReplicaID.
func (b *Broadcast[O]) Since() Since {
	except := make(map[WireID]struct{}, len(b.pending))
	for _, e := range b.pending {
		originID, _ := b.interner.IDOf(e.ID.Origin)
		except[WireID{Origin: originID, Seq: e.ID.Seq}] = struct{}{}
	}
	return Since{Version: b.wireVersion(b.matrix.OwnVersion()), Except: except}
}

// wireVersion translates a locally-indexed version into the portable
// id-keyed form used on the wire.
func (b *Broadcast[O]) wireVersion(v clock.Version) map[membership.ReplicaID]uint64 {
	entries := v.Entries()
	out := make(map[membership.ReplicaID]uint64, len(entries))
	for idx, seq := range entries {
		id, _ := b.interner.IDOf(idx)
		out[id] = seq
	}
	return out
}

// Batch is a pull response: every candidate event the sender could offer
// that the requester's Since did not already rule out.
type Batch[O any] struct {
	Events  []event.WireEvent[O]
	Version map[membership.ReplicaID]uint64
}

// BuildBatch answers a peer's pull request from this replica's still-
// unstable operations: everything not already reflected in the peer's
// version and not already known to be in flight to it. The request's
// version and exclusion set are keyed by portable replica ids, so each
// local event's origin is resolved through the interner before comparing.
// Stable operations are never replayed this way; a peer missing those
// needs a full state transfer, which is out of scope for catch-up pulls.
func (b *Broadcast[O]) BuildBatch(since Since, unstable []event.Event[O]) Batch[O] {
	var out []event.WireEvent[O]
	for _, e := range unstable {
		originID, _ := b.interner.IDOf(e.ID.Origin)
		if _, excluded := since.Except[WireID{Origin: originID, Seq: e.ID.Seq}]; excluded {
			continue
		}
		if since.Version[originID] >= e.ID.Seq {
			continue
		}
		out = append(out, b.ToWire(e))
	}
	return Batch[O]{Events: out, Version: b.wireVersion(b.matrix.OwnVersion())}
}

func (b *Broadcast[O]) String() string {
	return fmt.Sprintf("Broadcast{self=%d, pending=%d, matrix=%s}", b.self, len(b.pending), b.matrix)
}
