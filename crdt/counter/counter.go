// Package counter implements a resettable counter: concurrent increments
// and decrements commute as usual, and a Reset discards every operation
// causally before it while leaving concurrent increments/decrements
// intact.
package counter

import (
	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/polog"
)

// Op is the counter's operation alphabet. A Reset carries no delta.
type Op struct {
	Kind  Kind
	Delta int64
}

type Kind int

const (
	Inc Kind = iota
	Dec
	Reset
)

func IncOp(delta int64) Op { return Op{Kind: Inc, Delta: delta} }
func DecOp(delta int64) Op { return Op{Kind: Dec, Delta: delta} }
func ResetOp() Op          { return Op{Kind: Reset} }

type state struct {
	total int64
}

func newState() *state { return &state{} }

func (s *state) IsDefault() bool { return s.total == 0 }
func (s *state) Clear()          { s.total = 0 }
func (s *state) Apply(op Op) {
	switch op.Kind {
	case Inc:
		s.total += op.Delta
	case Dec:
		s.total -= op.Delta
	}
}

// PruneRedundant clears the folded total whenever a causally later Reset
// arrives, mirroring the flat redundancy relation below applied to the
// already-stabilized portion of the history.
func (s *state) PruneRedundant(_ polog.RedundancyRelation[Op], newOp Op, _ clock.Tag) {
	if newOp.Kind == Reset {
		s.Clear()
	}
}

// Datatype implements polog.Datatype for the resettable counter.
type Datatype struct{}

func (Datatype) RedundantItself(newOp Op, _ clock.Tag, _ *state, _ []polog.Entry[Op]) bool {
	return newOp.Kind == Reset
}

func (Datatype) RedundantByWhenRedundant(_ Op, _ clock.Tag, isConc bool, newOp Op, _ clock.Tag) bool {
	return !isConc && newOp.Kind == Reset
}

func (Datatype) RedundantByWhenNotRedundant(Op, clock.Tag, bool, Op, clock.Tag) bool {
	return false
}

func (Datatype) DisableRedundantWhenRedundant() bool    { return false }
func (Datatype) DisableRedundantWhenNotRedundant() bool { return true }
func (Datatype) DisableStabilize() bool                 { return false }

func (Datatype) Stabilize(clock.Version, *state, polog.Entry[Op]) bool { return true }

func (Datatype) Eval(stable *state, unstable []Op) int64 {
	total := stable.total
	for _, op := range unstable {
		switch op.Kind {
		case Inc:
			total += op.Delta
		case Dec:
			total -= op.Delta
		}
	}
	return total
}

// Log is a counter-specialized PO-Log.
type Log = polog.Log[Op, int64, *state]

// New returns a fresh counter log at zero.
func New() *Log {
	return polog.NewLog[Op, int64, *state](newState())
}
