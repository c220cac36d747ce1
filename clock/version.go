// Package clock implements the causal-clock primitives of the TCSB layer:
// per-replica version vectors, the N×N matrix clock built from them, and
// the totally-ordered tags used to tie-break concurrent operations.
package clock

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moirai-crdt/tcsb/membership"
)

// Version is a mapping from replica index to a monotonically increasing
// sequence number, plus the index that last incremented it. Missing entries
// are treated as 0.
type Version struct {
	entries map[membership.Idx]uint64
	origin  membership.Idx
	hasOrig bool
}

// NewVersion returns the zero version (all entries 0, no origin).
func NewVersion() Version {
	return Version{entries: make(map[membership.Idx]uint64)}
}

// SeqByID returns the sequence number this version records for idx, 0 if
// absent.
func (v Version) SeqByID(idx membership.Idx) uint64 {
	return v.entries[idx]
}

// OriginID returns the replica that last incremented this version and
// whether the version has ever been incremented.
func (v Version) OriginID() (membership.Idx, bool) {
	return v.origin, v.hasOrig
}

// Sum returns the Lamport value of this version: the sum of all its entries.
func (v Version) Sum() uint64 {
	var total uint64
	for _, seq := range v.entries {
		total += seq
	}
	return total
}

// Increment returns a new version equal to v with idx's slot advanced by
// one and origin set to idx. The origin's own entry is therefore >= 1 for
// any non-initial version.
func (v Version) Increment(idx membership.Idx) Version {
	next := v.clone()
	next.entries[idx] = next.entries[idx] + 1
	next.origin = idx
	next.hasOrig = true
	return next
}

// Merge returns the pointwise maximum of v and other, with origin set to
// the caller (idx).
func (v Version) Merge(other Version, idx membership.Idx) Version {
	next := v.clone()
	for id, seq := range other.entries {
		if seq > next.entries[id] {
			next.entries[id] = seq
		}
	}
	next.origin = idx
	next.hasOrig = true
	return next
}

// LessEqual reports whether v <= other: every entry of v is <= the
// corresponding entry of other (missing entries treated as 0).
func (v Version) LessEqual(other Version) bool {
	for id, seq := range v.entries {
		if seq > other.entries[id] {
			return false
		}
	}
	return true
}

// Less reports whether v < other: v <= other and v != other.
func (v Version) Less(other Version) bool {
	return v.LessEqual(other) && !v.Equal(other)
}

// Concurrent reports whether neither v <= other nor other <= v.
func (v Version) Concurrent(other Version) bool {
	return !v.LessEqual(other) && !other.LessEqual(v)
}

// Equal reports whether v and other carry the same entries (ignoring
// origin, which is metadata about provenance rather than content).
func (v Version) Equal(other Version) bool {
	return v.LessEqual(other) && other.LessEqual(v)
}

// IsZero reports whether every entry of v is 0.
func (v Version) IsZero() bool {
	for _, seq := range v.entries {
		if seq != 0 {
			return false
		}
	}
	return true
}

// Set returns a copy of v with idx's slot forced to seq. Used by membership
// translation when rebasing a wire version onto local indices.
func (v Version) Set(idx membership.Idx, seq uint64) Version {
	next := v.clone()
	if seq == 0 {
		delete(next.entries, idx)
		return next
	}
	next.entries[idx] = seq
	return next
}

func (v Version) clone() Version {
	entries := make(map[membership.Idx]uint64, len(v.entries))
	for id, seq := range v.entries {
		entries[id] = seq
	}
	return Version{entries: entries, origin: v.origin, hasOrig: v.hasOrig}
}

// Entries returns a defensive copy of the version's (idx -> seq) map, for
// callers that need to iterate (e.g. wire encoding).
func (v Version) Entries() map[membership.Idx]uint64 {
	out := make(map[membership.Idx]uint64, len(v.entries))
	for id, seq := range v.entries {
		out[id] = seq
	}
	return out
}

// VersionFromEntries builds a Version from a plain map, with no origin set.
// Used when rebuilding a version from wire data.
func VersionFromEntries(entries map[membership.Idx]uint64) Version {
	v := NewVersion()
	for id, seq := range entries {
		if seq != 0 {
			v.entries[id] = seq
		}
	}
	return v
}

func (v Version) String() string {
	ids := make([]membership.Idx, 0, len(v.entries))
	for id := range v.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d:%d", id, v.entries[id]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
