package ewflag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moirai-crdt/tcsb/clock"
)

func TestEnableWinsFlagSequentialWritesConverge(t *testing.T) {
	dt := Datatype{}
	a := New()
	b := New()

	v1 := clock.NewVersion().Set(0, 1)
	a.Effect(dt, Enable, clock.Tag{ID: clock.EventID{Origin: 0, Seq: 1}, Lamport: 1}, v1)
	b.Effect(dt, Enable, clock.Tag{ID: clock.EventID{Origin: 0, Seq: 1}, Lamport: 1}, v1)
	assert.True(t, a.Eval(dt))

	v2 := v1.Set(1, 1)
	a.Effect(dt, Disable, clock.Tag{ID: clock.EventID{Origin: 1, Seq: 1}, Lamport: 2}, v2)
	b.Effect(dt, Disable, clock.Tag{ID: clock.EventID{Origin: 1, Seq: 1}, Lamport: 2}, v2)
	assert.False(t, a.Eval(dt))
	assert.Equal(t, a.Eval(dt), b.Eval(dt))
}

func TestConcurrentEnableBeatsDisable(t *testing.T) {
	dt := Datatype{}
	a := New()
	b := New()

	v1 := clock.NewVersion().Set(0, 1)
	a.Effect(dt, Enable, clock.Tag{ID: clock.EventID{Origin: 0, Seq: 1}, Lamport: 1}, v1)
	b.Effect(dt, Enable, clock.Tag{ID: clock.EventID{Origin: 0, Seq: 1}, Lamport: 1}, v1)

	vEnable := clock.NewVersion().Set(0, 2)
	vDisable := clock.NewVersion().Set(1, 1)

	a.Effect(dt, Enable, clock.Tag{ID: clock.EventID{Origin: 0, Seq: 2}, Lamport: 3}, vEnable)
	b.Effect(dt, Disable, clock.Tag{ID: clock.EventID{Origin: 1, Seq: 1}, Lamport: 3}, vDisable)

	a.Effect(dt, Disable, clock.Tag{ID: clock.EventID{Origin: 1, Seq: 1}, Lamport: 3}, vDisable)
	b.Effect(dt, Enable, clock.Tag{ID: clock.EventID{Origin: 0, Seq: 2}, Lamport: 3}, vEnable)

	assert.True(t, a.Eval(dt))
	assert.True(t, b.Eval(dt))
}
