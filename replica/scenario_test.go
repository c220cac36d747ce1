package replica_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moirai-crdt/tcsb/crdt/awset"
	"github.com/moirai-crdt/tcsb/crdt/counter"
	"github.com/moirai-crdt/tcsb/crdt/ewflag"
	"github.com/moirai-crdt/tcsb/crdt/lww"
	"github.com/moirai-crdt/tcsb/membership"
	"github.com/moirai-crdt/tcsb/polog"
	"github.com/moirai-crdt/tcsb/replica"
	"github.com/moirai-crdt/tcsb/tcsb"
)

// End-to-end convergence scenarios, one replica wiring per reference
// CRDT. Every replica is bootstrapped with its full group so stability
// stays conservative until all members have actually been heard from.

func newAWSetReplica(id membership.ReplicaID, peers ...membership.ReplicaID) *replica.Replica[awset.Op[string], awset.Value[string]] {
	return replica.New[awset.Op[string], awset.Value[string]](id,
		polog.Bind(awset.New[string](), awset.Datatype[string]{}),
		replica.WithMembers[awset.Op[string], awset.Value[string]](peers...))
}

func newCounterReplica(id membership.ReplicaID, peers ...membership.ReplicaID) *replica.Replica[counter.Op, int64] {
	return replica.New[counter.Op, int64](id,
		polog.Bind(counter.New(), counter.Datatype{}),
		replica.WithMembers[counter.Op, int64](peers...))
}

func newLWWReplica(id membership.ReplicaID, peers ...membership.ReplicaID) *replica.Replica[lww.Op[string], lww.Value[string]] {
	return replica.New[lww.Op[string], lww.Value[string]](id,
		polog.Bind(lww.New[string](), lww.Datatype[string]{}),
		replica.WithMembers[lww.Op[string], lww.Value[string]](peers...))
}

func newEWFlagReplica(id membership.ReplicaID, peers ...membership.ReplicaID) *replica.Replica[ewflag.Op, bool] {
	return replica.New[ewflag.Op, bool](id,
		polog.Bind(ewflag.New(), ewflag.Datatype{}),
		replica.WithMembers[ewflag.Op, bool](peers...))
}

// TestScenarioAWSetConcurrentAddRemove: A sends Remove("x"); B sends
// Add("x"); cross-deliver. Both must answer {"x"} (add-wins).
func TestScenarioAWSetConcurrentAddRemove(t *testing.T) {
	a := newAWSetReplica("A", "B")
	b := newAWSetReplica("B", "A")

	wireRemove, ok := a.Send(awset.RemoveOp("x"))
	require.True(t, ok)
	wireAdd, ok := b.Send(awset.AddOp("x"))
	require.True(t, ok)

	require.NoError(t, b.Receive(wireRemove))
	require.NoError(t, a.Receive(wireAdd))

	want := awset.Value[string]{"x": {}}
	assert.Equal(t, want, a.Query())
	assert.Equal(t, want, b.Query())
}

// TestScenarioCounterConcurrentWithReset: triplet A/B/C. A: Dec(1),
// delivered to B. B: Reset; C: Inc(18). Cross-deliver all. All must
// answer 18.
func TestScenarioCounterConcurrentWithReset(t *testing.T) {
	a := newCounterReplica("A", "B", "C")
	b := newCounterReplica("B", "A", "C")
	c := newCounterReplica("C", "A", "B")

	decWire, ok := a.Send(counter.DecOp(1))
	require.True(t, ok)
	require.NoError(t, b.Receive(decWire))

	resetWire, ok := b.Send(counter.ResetOp())
	require.True(t, ok)
	incWire, ok := c.Send(counter.IncOp(18))
	require.True(t, ok)

	require.NoError(t, a.Receive(decWire))
	require.NoError(t, a.Receive(resetWire))
	require.NoError(t, a.Receive(incWire))

	require.NoError(t, b.Receive(incWire))

	require.NoError(t, c.Receive(decWire))
	require.NoError(t, c.Receive(resetWire))

	assert.Equal(t, int64(18), a.Query())
	assert.Equal(t, int64(18), b.Query())
	assert.Equal(t, int64(18), c.Query())
}

// TestScenarioLWWConcurrentWrites: triplet. C writes "x", delivered to A.
// A writes "y"; B writes "z"; deliver C's then A's to B; deliver A's and
// C's to C; deliver B's to A. All must answer "y" (A's write carries the
// higher Lamport, having observed C's write before issuing its own).
func TestScenarioLWWConcurrentWrites(t *testing.T) {
	a := newLWWReplica("A", "B", "C")
	b := newLWWReplica("B", "A", "C")
	c := newLWWReplica("C", "A", "B")

	xWire, ok := c.Send(lww.WriteOp("x"))
	require.True(t, ok)
	require.NoError(t, a.Receive(xWire))

	yWire, ok := a.Send(lww.WriteOp("y"))
	require.True(t, ok)
	zWire, ok := b.Send(lww.WriteOp("z"))
	require.True(t, ok)

	require.NoError(t, b.Receive(xWire))
	require.NoError(t, b.Receive(yWire))

	require.NoError(t, c.Receive(yWire))
	require.NoError(t, c.Receive(zWire))

	require.NoError(t, a.Receive(zWire))

	want := lww.Value[string]{Val: "y", HasWrit: true}
	assert.Equal(t, want, a.Query())
	assert.Equal(t, want, b.Query())
	assert.Equal(t, want, c.Query())
}

// TestScenarioEWFlagConcurrentEnableDisable: A: Enable, delivered to B.
// B: Disable; A: Enable (concurrent with B's Disable). Cross-deliver.
// Both must answer true (enable-wins).
func TestScenarioEWFlagConcurrentEnableDisable(t *testing.T) {
	a := newEWFlagReplica("A", "B")
	b := newEWFlagReplica("B", "A")

	enable1, ok := a.Send(ewflag.Enable)
	require.True(t, ok)
	require.NoError(t, b.Receive(enable1))

	disableWire, ok := b.Send(ewflag.Disable)
	require.True(t, ok)
	enable2, ok := a.Send(ewflag.Enable)
	require.True(t, ok)

	require.NoError(t, a.Receive(disableWire))
	require.NoError(t, b.Receive(enable2))

	assert.True(t, a.Query())
	assert.True(t, b.Query())
}

// TestScenarioOutOfOrderDelivery: A sends e1 then e2; B receives e2 first.
// After B receives e1, both are delivered in order e1, e2 to B's log.
func TestScenarioOutOfOrderDelivery(t *testing.T) {
	a := newCounterReplica("A", "B")
	b := newCounterReplica("B", "A")

	e1, ok := a.Send(counter.IncOp(1))
	require.True(t, ok)
	e2, ok := a.Send(counter.IncOp(2))
	require.True(t, ok)

	require.NoError(t, b.Receive(e2))
	assert.Equal(t, 1, b.PendingCount())
	assert.Equal(t, int64(0), b.Query())

	require.NoError(t, b.Receive(e1))
	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, int64(3), b.Query())
}

// TestScenarioPullCatchUp: A performs 6 increments; B performs 6
// decrements; exchange via pull(since(other)). Both must answer 0.
func TestScenarioPullCatchUp(t *testing.T) {
	a := newCounterReplica("A", "B")
	b := newCounterReplica("B", "A")

	for i := 0; i < 6; i++ {
		_, ok := a.Send(counter.IncOp(1))
		require.True(t, ok)
	}
	for i := 0; i < 6; i++ {
		_, ok := b.Send(counter.DecOp(1))
		require.True(t, ok)
	}

	aBatch := a.Pull(b.Since())
	bBatch := b.Pull(a.Since())

	require.NoError(t, b.ReceiveBatch(tcsb.Batch[counter.Op]{Events: aBatch.Events}))
	require.NoError(t, a.ReceiveBatch(tcsb.Batch[counter.Op]{Events: bBatch.Events}))

	assert.Equal(t, int64(0), a.Query())
	assert.Equal(t, int64(0), b.Query())
}
