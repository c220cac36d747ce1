// Package membership provides the replica-id <-> small-integer-index
// interning table that clocks and events are built on. Membership is
// append-only: an id, once interned, keeps its index for the lifetime of
// the process. Eviction would be an extension layered on top and is not
// implemented here.
package membership

import "fmt"

// ReplicaID is an opaque, printable identifier for a replica.
type ReplicaID string

// Idx is a small dense integer a single replica assigns to a ReplicaID the
// first time it sees it. Indices are local to the interning replica: two
// replicas may assign different indices to the same logical ReplicaID.
type Idx int

// Interner assigns each ReplicaID a dense Idx on first sight, in the order
// ids are seen, and never forgets or renumbers an id.
type Interner struct {
	byID  map[ReplicaID]Idx
	byIdx []ReplicaID
}

// NewInterner returns an empty interner.
func NewInterner() *Interner {
	return &Interner{byID: make(map[ReplicaID]Idx)}
}

// Intern returns the index for id, allocating a new one if id has not been
// seen before. The second return value is true when a new index was
// allocated.
func (n *Interner) Intern(id ReplicaID) (Idx, bool) {
	if idx, ok := n.byID[id]; ok {
		return idx, false
	}
	idx := Idx(len(n.byIdx))
	n.byID[id] = idx
	n.byIdx = append(n.byIdx, id)
	return idx, true
}

// Lookup returns the index already assigned to id, if any, without
// allocating one.
func (n *Interner) Lookup(id ReplicaID) (Idx, bool) {
	idx, ok := n.byID[id]
	return idx, ok
}

// IDOf returns the ReplicaID interned at idx.
func (n *Interner) IDOf(idx Idx) (ReplicaID, bool) {
	if idx < 0 || int(idx) >= len(n.byIdx) {
		return "", false
	}
	return n.byIdx[idx], true
}

// Len returns the number of distinct replica ids interned so far.
func (n *Interner) Len() int {
	return len(n.byIdx)
}

// All returns every interned id in index order.
func (n *Interner) All() []ReplicaID {
	out := make([]ReplicaID, len(n.byIdx))
	copy(out, n.byIdx)
	return out
}

func (n *Interner) String() string {
	return fmt.Sprintf("Interner(%v)", n.byIdx)
}

// Translator maps remote peers' locally-assigned indices onto this
// replica's own indices. It keeps one translation row per known peer; each
// row grows monotonically as that peer introduces ids this replica has not
// interned yet.
type Translator struct {
	local *Interner
	rows  map[ReplicaID]map[Idx]Idx
}

// NewTranslator returns a translator that resolves foreign indices against
// the given local interner, interning any id it has not seen before.
func NewTranslator(local *Interner) *Translator {
	return &Translator{local: local, rows: make(map[ReplicaID]map[Idx]Idx)}
}

// Resolve translates a foreign index sent by peer (identified by peerID)
// into a local index, extending the peer's translation row (and interning
// the referenced id locally) if this is the first time the pair is seen.
// peerIdx identifies the remote-local index; resolver supplies the
// ReplicaID that index refers to, as carried in the batch's resolver list.
func (t *Translator) Resolve(peerID ReplicaID, peerIdx Idx, resolver func(Idx) (ReplicaID, bool)) (Idx, error) {
	row, ok := t.rows[peerID]
	if !ok {
		row = make(map[Idx]Idx)
		t.rows[peerID] = row
	}
	if local, ok := row[peerIdx]; ok {
		return local, nil
	}
	id, ok := resolver(peerIdx)
	if !ok {
		return 0, fmt.Errorf("membership: peer %s referenced unknown foreign index %d", peerID, peerIdx)
	}
	local, _ := t.local.Intern(id)
	row[peerIdx] = local
	return local, nil
}

// ExtendRow grows peer's translation row to cover every (idx -> id) pair
// named in a batch resolver, interning any id not yet known locally. Used
// when a batch arrives with an explicit resolver list.
func (t *Translator) ExtendRow(peerID ReplicaID, resolverIDs []ReplicaID) {
	row, ok := t.rows[peerID]
	if !ok {
		row = make(map[Idx]Idx)
		t.rows[peerID] = row
	}
	for peerIdx, id := range resolverIDs {
		if _, ok := row[Idx(peerIdx)]; ok {
			continue
		}
		local, _ := t.local.Intern(id)
		row[Idx(peerIdx)] = local
	}
}
