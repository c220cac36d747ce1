package clock

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moirai-crdt/tcsb/membership"
)

// Matrix is a row per known replica, each row being that replica's last
// known Version of the whole system (its own version merged with whatever
// it has heard from others). Row idx is always this replica's own current
// version. Min over rows gives the version every replica is known to have
// already seen, which is exactly the causal-stability frontier.
type Matrix struct {
	self membership.Idx
	rows map[membership.Idx]Version
}

// NewMatrix returns a matrix with a single row for self, set to the zero
// version.
func NewMatrix(self membership.Idx) *Matrix {
	return &Matrix{
		self: self,
		rows: map[membership.Idx]Version{self: NewVersion()},
	}
}

// Self returns the replica index this matrix belongs to.
func (m *Matrix) Self() membership.Idx { return m.self }

// Row returns the version this matrix records for idx, and whether a row
// exists for it at all.
func (m *Matrix) Row(idx membership.Idx) (Version, bool) {
	v, ok := m.rows[idx]
	return v, ok
}

// OwnVersion returns this replica's own row.
func (m *Matrix) OwnVersion() Version {
	return m.rows[m.self]
}

// AddRow introduces a newly-interned peer with the zero version. A no-op if
// the row already exists.
func (m *Matrix) AddRow(idx membership.Idx) {
	if _, ok := m.rows[idx]; ok {
		return
	}
	m.rows[idx] = NewVersion()
}

// IncrementSelf advances this replica's own row by one local operation and
// returns the new own version.
func (m *Matrix) IncrementSelf() Version {
	next := m.rows[m.self].Increment(m.self)
	m.rows[m.self] = next
	return next
}

// Update merges v into idx's row (idx's own reported version), the local
// analogue of MatrixClock::update: the matrix only ever grows.
func (m *Matrix) Update(idx membership.Idx, v Version) {
	row, ok := m.rows[idx]
	if !ok {
		m.rows[idx] = v
		return
	}
	m.rows[idx] = row.Merge(v, idx)
}

// MergeOwn folds v into this replica's own row, e.g. after delivering a
// remote operation.
func (m *Matrix) MergeOwn(v Version) Version {
	return m.Update2(m.self, v)
}

// Update2 merges v into idx's row and returns the resulting row.
func (m *Matrix) Update2(idx membership.Idx, v Version) Version {
	m.Update(idx, v)
	return m.rows[idx]
}

// MinColumn returns, for every replica index known to any row, the minimum
// sequence number recorded across all rows. This is the version vector
// below which every known replica has certainly seen every event: the
// causal-stability threshold.
func (m *Matrix) MinColumn() Version {
	ids := map[membership.Idx]struct{}{}
	for _, row := range m.rows {
		for id := range row.Entries() {
			ids[id] = struct{}{}
		}
	}
	min := NewVersion()
	for id := range ids {
		var minSeq uint64
		first := true
		for _, row := range m.rows {
			seq := row.SeqByID(id)
			if first || seq < minSeq {
				minSeq = seq
				first = false
			}
		}
		min = min.Set(id, minSeq)
	}
	return min
}

// KnownReplicas returns every replica index this matrix has a row for, in
// ascending order.
func (m *Matrix) KnownReplicas() []membership.Idx {
	out := make([]membership.Idx, 0, len(m.rows))
	for idx := range m.rows {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Matrix) String() string {
	ids := m.KnownReplicas()
	var b strings.Builder
	b.WriteString("{\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "  %d: %s\n", id, m.rows[id])
	}
	b.WriteString("}")
	return b.String()
}
