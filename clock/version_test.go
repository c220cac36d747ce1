package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moirai-crdt/tcsb/membership"
)

func TestVersionIncrementAdvancesOwnSlotOnly(t *testing.T) {
	v := NewVersion()
	v1 := v.Increment(0)
	require.Equal(t, uint64(1), v1.SeqByID(0))
	assert.Equal(t, uint64(0), v1.SeqByID(1))

	origin, ok := v1.OriginID()
	require.True(t, ok)
	assert.Equal(t, membership.Idx(0), origin)
}

func TestVersionMergeIsPointwiseMax(t *testing.T) {
	a := NewVersion().Set(0, 10).Set(1, 2)
	b := NewVersion().Set(0, 8).Set(1, 6)

	merged := a.Merge(b, 0)
	assert.Equal(t, uint64(10), merged.SeqByID(0))
	assert.Equal(t, uint64(6), merged.SeqByID(1))
}

func TestVersionLessEqualAndConcurrent(t *testing.T) {
	a := NewVersion().Set(0, 1).Set(1, 0)
	b := NewVersion().Set(0, 1).Set(1, 1)
	assert.True(t, a.LessEqual(b))
	assert.True(t, a.Less(b))
	assert.False(t, b.LessEqual(a))

	c := NewVersion().Set(0, 0).Set(1, 1)
	assert.True(t, a.Concurrent(c))
	assert.True(t, c.Concurrent(a))
}

func TestVersionEqualIgnoresOrigin(t *testing.T) {
	a := NewVersion().Set(0, 3).Increment(0)
	b := NewVersion().Set(0, 4)
	assert.True(t, a.Equal(b))
}

func TestVersionSetZeroDeletesEntry(t *testing.T) {
	v := NewVersion().Set(0, 5)
	v = v.Set(0, 0)
	assert.True(t, v.IsZero())
}

func TestVersionFromEntriesSkipsZeros(t *testing.T) {
	v := VersionFromEntries(map[membership.Idx]uint64{0: 3, 1: 0, 2: 7})
	assert.Equal(t, uint64(3), v.SeqByID(0))
	assert.Equal(t, uint64(0), v.SeqByID(1))
	assert.Equal(t, uint64(7), v.SeqByID(2))
	assert.Len(t, v.Entries(), 2)
}

func TestVersionStringIsSortedByIndex(t *testing.T) {
	v := NewVersion().Set(2, 1).Set(0, 5)
	assert.Equal(t, "{0:5, 2:1}", v.String())
}
