// Package replica is the thin orchestrator tying the layers together: a
// Replica owns one tcsb.Broadcast endpoint and one datatype-bound log, and
// wires Send/Receive/Pull/Query between them without itself knowing
// anything about causal delivery or redundancy.
package replica

import (
	"errors"

	"go.uber.org/zap"

	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/event"
	"github.com/moirai-crdt/tcsb/membership"
	"github.com/moirai-crdt/tcsb/polog"
	"github.com/moirai-crdt/tcsb/tcsb"
)

// Effector is the minimal surface a replica drives: apply a delivered
// operation, fold in a newly-advanced stability frontier, and answer a
// query. polog.Bound, polog.GraphBound, and every composite.SubLog satisfy
// it, so a Replica never needs to know which log representation (flat bag,
// event DAG, or composite dispatch) its datatype chose.
type Effector[O any, V any] interface {
	Effect(op O, tag clock.Tag, version clock.Version)
	Stabilize(frontier clock.Version)
	Eval() V
}

// Enabler lets an operation type declare its own send precondition.
// Operation types that don't implement it are always enabled.
type Enabler interface {
	IsEnabled() bool
}

// unstableLister is satisfied by logs that can list their still-unstable
// entries (polog.Bound does; polog.GraphBound and composite logs do not,
// since a DAG or a dispatching container has no single flat entry list).
// Replica.Pull degrades to offering nothing for those.
type unstableLister[O any] interface {
	Unstable() []polog.Entry[O]
}

// Replica is the facade a caller drives directly. It is NOT safe for
// concurrent use from multiple goroutines: the distributed concurrency
// lives between replicas, not within one.
type Replica[O any, V any] struct {
	id         membership.ReplicaID
	bc         *tcsb.Broadcast[O]
	eff        Effector[O, V]
	logger     *zap.SugaredLogger
	lastStable clock.Version
}

// Option configures a Replica at construction time.
type Option[O any, V any] func(*Replica[O, V])

// WithLogger attaches a logger; a nil logger (the default) degrades to a
// no-op.
func WithLogger[O any, V any](logger *zap.SugaredLogger) Option[O, V] {
	return func(r *Replica[O, V]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMembers seeds the replica with the other group members it will
// exchange operations with. Seeding matters for causal stability: the
// frontier is computed over known members only, so a replica built without
// its peers considers its own operations stable immediately — safe only
// for a genuinely solitary replica. Members discovered later through
// received events are added automatically either way.
func WithMembers[O any, V any](members ...membership.ReplicaID) Option[O, V] {
	return func(r *Replica[O, V]) {
		for _, m := range members {
			r.bc.AddPeer(m)
		}
	}
}

// New returns a replica identified by id, driving eff as its log.
func New[O any, V any](id membership.ReplicaID, eff Effector[O, V], opts ...Option[O, V]) *Replica[O, V] {
	r := &Replica[O, V]{
		id:         id,
		bc:         tcsb.New[O](id),
		eff:        eff,
		logger:     zap.NewNop().Sugar(),
		lastStable: clock.NewVersion(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns this replica's own identifier.
func (r *Replica[O, V]) ID() membership.ReplicaID { return r.id }

// Interner exposes the underlying membership table, e.g. for a caller
// translating ids for display.
func (r *Replica[O, V]) Interner() *membership.Interner { return r.bc.Interner() }

// Send performs a local update: if op declares an Enabler precondition and
// it is not satisfied, Send performs nothing and returns ok=false; the
// caller must treat the operation as not performed. Otherwise it assigns a
// causal tag, folds the effect into the log locally, and returns the wire
// event for the caller to publish.
func (r *Replica[O, V]) Send(op O) (event.WireEvent[O], bool) {
	if en, ok := any(op).(Enabler); ok && !en.IsEnabled() {
		r.logger.Debugw("send precondition not satisfied", "replica", r.id)
		return event.WireEvent[O]{}, false
	}
	e := r.bc.Send(op)
	r.eff.Effect(e.Op, e.Tag(), e.Version)
	r.foldStability()
	r.logger.Debugw("sent operation", "replica", r.id, "seq", e.ID.Seq)
	return r.bc.ToWire(e), true
}

// Receive ingests one remote wire event. A duplicate is silently dropped;
// an out-of-order event is buffered by the broadcast layer until its
// predecessors arrive, with no error surfaced to the caller.
func (r *Replica[O, V]) Receive(w event.WireEvent[O]) error {
	ready, err := r.bc.Receive(w)
	if err != nil {
		if errors.Is(err, tcsb.ErrDuplicateEvent) {
			r.logger.Debugw("dropped duplicate event", "replica", r.id)
			return nil
		}
		return err
	}
	r.deliver(ready)
	return nil
}

// ReceiveBatch ingests every event in a pull response, in order.
func (r *Replica[O, V]) ReceiveBatch(batch tcsb.Batch[O]) error {
	ready, err := r.bc.ReceiveBatch(batch.Events)
	if err != nil {
		return err
	}
	r.deliver(ready)
	return nil
}

func (r *Replica[O, V]) deliver(events []event.Event[O]) {
	for _, e := range events {
		r.eff.Effect(e.Op, e.Tag(), e.Version)
	}
	if len(events) > 0 {
		r.logger.Debugw("delivered events", "replica", r.id, "count", len(events))
		r.foldStability()
	}
}

// foldStability asks the broadcast layer for the current stability
// frontier and, if it has advanced since the last fold, runs the log's
// stabilization sweep. The frontier is monotone, so the sweep only ever
// runs forward.
func (r *Replica[O, V]) foldStability() {
	frontier := r.bc.IsStable()
	if frontier.Equal(r.lastStable) {
		return
	}
	r.eff.Stabilize(frontier)
	r.lastStable = frontier
}

// Since builds this replica's catch-up request.
func (r *Replica[O, V]) Since() tcsb.Since { return r.bc.Since() }

// Pull answers a peer's catch-up request with whatever unstable events it
// has not yet seen. Datatypes whose log has no flat unstable list
// (event-graph-backed or composite logs) have nothing to contribute here
// and always answer with an empty batch; catching such a replica up
// requires a full state transfer, which this layer does not provide.
func (r *Replica[O, V]) Pull(since tcsb.Since) tcsb.Batch[O] {
	return r.bc.BuildBatch(since, r.unstableEvents())
}

func (r *Replica[O, V]) unstableEvents() []event.Event[O] {
	lister, ok := r.eff.(unstableLister[O])
	if !ok {
		return nil
	}
	entries := lister.Unstable()
	out := make([]event.Event[O], len(entries))
	for i, e := range entries {
		out[i] = event.New(e.Tag.ID, e.Tag.Lamport, e.Op, e.Version, e.Tag.Origin)
	}
	return out
}

// Query evaluates the current observable value of the replica's log.
func (r *Replica[O, V]) Query() V { return r.eff.Eval() }

// PendingCount reports how many remote events are buffered awaiting
// causal predecessors, useful for tests and demo instrumentation.
func (r *Replica[O, V]) PendingCount() int { return r.bc.PendingCount() }
