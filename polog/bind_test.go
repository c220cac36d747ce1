package polog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/membership"
	"github.com/moirai-crdt/tcsb/polog"
)

// growDatatype is a minimal write-only datatype (no redundancy;
// stabilization appends ops to a plain list) used only to exercise Bind's
// Effect/Stabilize/Eval plumbing.
type growState struct{ vals []int }

func (s *growState) IsDefault() bool { return len(s.vals) == 0 }
func (s *growState) Clear()          { s.vals = nil }
func (s *growState) Apply(op int)    { s.vals = append(s.vals, op) }
func (s *growState) PruneRedundant(polog.RedundancyRelation[int], int, clock.Tag) {}

type growDatatype struct{}

func (growDatatype) RedundantItself(int, clock.Tag, *growState, []polog.Entry[int]) bool {
	return false
}
func (growDatatype) RedundantByWhenRedundant(int, clock.Tag, bool, int, clock.Tag) bool {
	return false
}
func (growDatatype) RedundantByWhenNotRedundant(int, clock.Tag, bool, int, clock.Tag) bool {
	return false
}
func (growDatatype) DisableRedundantWhenRedundant() bool    { return true }
func (growDatatype) DisableRedundantWhenNotRedundant() bool { return true }
func (growDatatype) DisableStabilize() bool                 { return false }
func (growDatatype) Stabilize(clock.Version, *growState, polog.Entry[int]) bool {
	return true
}
func (growDatatype) Eval(stable *growState, unstable []int) []int {
	return append(append([]int{}, stable.vals...), unstable...)
}

func TestBindEffectStabilizeEval(t *testing.T) {
	log := polog.NewLog[int, []int, *growState](&growState{})
	bound := polog.Bind[int, []int, *growState](log, growDatatype{})

	a := clock.EventID{Origin: membership.Idx(0), Seq: 1}
	b := clock.EventID{Origin: membership.Idx(0), Seq: 2}
	v1 := clock.NewVersion().Increment(membership.Idx(0))
	v2 := v1.Increment(membership.Idx(0))

	bound.Effect(10, clock.Tag{ID: a, Lamport: clock.LamportOf(v1)}, v1)
	bound.Effect(20, clock.Tag{ID: b, Lamport: clock.LamportOf(v2)}, v2)

	require.ElementsMatch(t, []int{10, 20}, bound.Eval())

	bound.Stabilize(v1)
	require.ElementsMatch(t, []int{10, 20}, bound.Eval())
}
