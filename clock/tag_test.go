package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagOrdersByLamportFirst(t *testing.T) {
	a := Tag{ID: EventID{Origin: 5, Seq: 1}, Lamport: 2}
	b := Tag{ID: EventID{Origin: 0, Seq: 1}, Lamport: 3}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestTagBreaksLamportTiesByOrigin(t *testing.T) {
	a := Tag{ID: EventID{Origin: 0, Seq: 1}, Lamport: 5}
	b := Tag{ID: EventID{Origin: 1, Seq: 1}, Lamport: 5}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestTagEqualRequiresSameIDAndLamport(t *testing.T) {
	a := Tag{ID: EventID{Origin: 0, Seq: 1}, Lamport: 5}
	b := Tag{ID: EventID{Origin: 0, Seq: 1}, Lamport: 5}
	assert.True(t, a.Equal(b))
}

func TestEventIDIsPredecessorOf(t *testing.T) {
	id := EventID{Origin: 0, Seq: 3}
	v := NewVersion().Set(0, 3)
	assert.True(t, id.IsPredecessorOf(v))

	id2 := EventID{Origin: 0, Seq: 4}
	assert.False(t, id2.IsPredecessorOf(v))
}

func TestNewTagUsesVersionLamportSum(t *testing.T) {
	v := NewVersion().Set(0, 2).Set(1, 3)
	tag := NewTag(EventID{Origin: 0, Seq: 2}, v)
	assert.Equal(t, Lamport(5), tag.Lamport)
}
