package mvwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moirai-crdt/tcsb/clock"
)

func TestWindowBoundsHistoryDepth(t *testing.T) {
	g, dt := New[string](1)

	v1 := clock.NewVersion().Set(0, 1)
	g.Effect(dt, WriteOp("a"), clock.Tag{ID: clock.EventID{Origin: 0, Seq: 1}, Lamport: 1}, v1)

	v2 := v1.Increment(0)
	g.Effect(dt, WriteOp("b"), clock.Tag{ID: clock.EventID{Origin: 0, Seq: 2}, Lamport: 2}, v2)

	v3 := v2.Increment(0)
	g.Effect(dt, WriteOp("c"), clock.Tag{ID: clock.EventID{Origin: 0, Seq: 3}, Lamport: 3}, v3)

	assert.Equal(t, []string{"b", "c"}, dt.Eval(g.Stable(), g))
}

func TestWindowDepthZeroIsJustTheHeads(t *testing.T) {
	g, dt := New[string](0)

	v1 := clock.NewVersion().Set(0, 1)
	g.Effect(dt, WriteOp("a"), clock.Tag{ID: clock.EventID{Origin: 0, Seq: 1}, Lamport: 1}, v1)

	v2 := v1.Increment(0)
	g.Effect(dt, WriteOp("b"), clock.Tag{ID: clock.EventID{Origin: 0, Seq: 2}, Lamport: 2}, v2)

	assert.Equal(t, []string{"b"}, dt.Eval(g.Stable(), g))
}

func TestWindowKeepsConcurrentHeadsTogether(t *testing.T) {
	g, dt := New[string](1)

	v1 := clock.NewVersion().Set(0, 1)
	g.Effect(dt, WriteOp("a"), clock.Tag{ID: clock.EventID{Origin: 0, Seq: 1}, Lamport: 1}, v1)

	vx := clock.NewVersion().Set(1, 1)
	g.Effect(dt, WriteOp("x"), clock.Tag{ID: clock.EventID{Origin: 1, Seq: 1}, Lamport: 1}, vx)

	vy := clock.NewVersion().Set(2, 1)
	g.Effect(dt, WriteOp("y"), clock.Tag{ID: clock.EventID{Origin: 2, Seq: 1}, Lamport: 1}, vy)

	got := dt.Eval(g.Stable(), g)
	assert.ElementsMatch(t, []string{"a", "x", "y"}, got)
}
