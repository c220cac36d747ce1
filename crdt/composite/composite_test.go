package composite_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/crdt/awset"
	"github.com/moirai-crdt/tcsb/crdt/composite"
	"github.com/moirai-crdt/tcsb/crdt/lww"
	"github.com/moirai-crdt/tcsb/membership"
	"github.com/moirai-crdt/tcsb/polog"
)

func tagAt(origin membership.Idx, seq uint64, v clock.Version) clock.Tag {
	return clock.Tag{ID: clock.EventID{Origin: origin, Seq: seq}, Lamport: clock.LamportOf(v)}
}

func newLWWField() composite.SubLog {
	log := lww.New[string]()
	return composite.Wrap[lww.Op[string], lww.Value[string]](polog.Bind(log, lww.Datatype[string]{}))
}

func newAWSetField() composite.SubLog {
	log := awset.New[string]()
	return composite.Wrap[awset.Op[string], awset.Value[string]](polog.Bind(log, awset.Datatype[string]{}))
}

func TestRecordDispatchesByField(t *testing.T) {
	rec := composite.NewRecord(map[string]composite.SubLog{
		"name": newLWWField(),
		"tags": newAWSetField(),
	})

	replica := membership.Idx(0)
	v1 := clock.NewVersion().Increment(replica)
	v2 := v1.Increment(replica)

	rec.Effect(composite.FieldOp{Field: "name", Inner: lww.WriteOp("alice")}, tagAt(replica, 1, v1), v1)
	rec.Effect(composite.FieldOp{Field: "tags", Inner: awset.AddOp("vip")}, tagAt(replica, 2, v2), v2)

	out := rec.Eval().(map[string]any)
	require.Equal(t, lww.Value[string]{Val: "alice", HasWrit: true}, out["name"])
	require.Equal(t, awset.Value[string]{"vip": {}}, out["tags"])
}

func TestRecordUnknownFieldPanics(t *testing.T) {
	rec := composite.NewRecord(map[string]composite.SubLog{"name": newLWWField()})
	require.Panics(t, func() {
		rec.Effect(composite.FieldOp{Field: "nope", Inner: lww.WriteOp("x")}, clock.Tag{}, clock.NewVersion())
	})
}

func TestMapCreatesSubLogOnFirstUse(t *testing.T) {
	m := composite.NewMap[string](newAWSetField)

	replica := membership.Idx(0)
	v1 := clock.NewVersion().Increment(replica)
	v2 := v1.Increment(replica)

	m.Effect(composite.KeyOp[string]{Key: "alice", Inner: awset.AddOp("x")}, tagAt(replica, 1, v1), v1)
	m.Effect(composite.KeyOp[string]{Key: "bob", Inner: awset.AddOp("y")}, tagAt(replica, 2, v2), v2)

	require.Equal(t, 2, m.Len())
	out := m.Eval().(map[string]any)
	require.Equal(t, awset.Value[string]{"x": {}}, out["alice"])
	require.Equal(t, awset.Value[string]{"y": {}}, out["bob"])
}

// TestMapOfRecordsComposesWithoutExtraCoordination: nesting a Record
// inside a Map needs no additional machinery — a Record already satisfies
// SubLog, so it plugs straight into a Map's factory.
func TestMapOfRecordsComposesWithoutExtraCoordination(t *testing.T) {
	newProfile := func() composite.SubLog {
		return composite.NewRecord(map[string]composite.SubLog{
			"name": newLWWField(),
			"tags": newAWSetField(),
		})
	}
	users := composite.NewMap[string](newProfile)

	replica := membership.Idx(0)
	v1 := clock.NewVersion().Increment(replica)
	v2 := v1.Increment(replica)

	users.Effect(composite.KeyOp[string]{
		Key:   "alice",
		Inner: composite.FieldOp{Field: "name", Inner: lww.WriteOp("Alice")},
	}, tagAt(replica, 1, v1), v1)
	users.Effect(composite.KeyOp[string]{
		Key:   "alice",
		Inner: composite.FieldOp{Field: "tags", Inner: awset.AddOp("admin")},
	}, tagAt(replica, 2, v2), v2)

	out := users.Eval().(map[string]any)
	alice := out["alice"].(map[string]any)
	require.Equal(t, lww.Value[string]{Val: "Alice", HasWrit: true}, alice["name"])
	require.Equal(t, awset.Value[string]{"admin": {}}, alice["tags"])
}
