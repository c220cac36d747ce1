// Package ewflag implements an enable-wins flag: a concurrent Enable beats
// a concurrent Disable or Clear, but a causally later Disable/Clear always
// wins over anything before it.
package ewflag

import (
	"github.com/moirai-crdt/tcsb/clock"
	"github.com/moirai-crdt/tcsb/polog"
)

// Op is the EW-Flag's operation alphabet.
type Op int

const (
	Enable Op = iota
	Disable
	Clear
)

type state struct {
	enabled bool
}

func newState() *state { return &state{} }

func (s *state) IsDefault() bool { return !s.enabled }
func (s *state) Clear()          { s.enabled = false }
func (s *state) Apply(op Op) {
	switch op {
	case Enable:
		s.enabled = true
	case Disable, Clear:
		s.enabled = false
	}
}

// PruneRedundant always clears the folded summary: any new operation,
// redundant or not, gets a fresh say over whether the flag reads true
// once Eval walks the (now-pruned) unstable set again.
func (s *state) PruneRedundant(polog.RedundancyRelation[Op], Op, clock.Tag) {
	s.enabled = false
}

// Datatype implements polog.Datatype for the enable-wins flag.
type Datatype struct{}

func (Datatype) RedundantItself(newOp Op, _ clock.Tag, _ *state, _ []polog.Entry[Op]) bool {
	return newOp == Disable || newOp == Clear
}

func (Datatype) RedundantByWhenRedundant(_ Op, _ clock.Tag, isConc bool, _ Op, _ clock.Tag) bool {
	return !isConc
}

func (dt Datatype) RedundantByWhenNotRedundant(oldOp Op, oldTag clock.Tag, isConc bool, newOp Op, newTag clock.Tag) bool {
	return dt.RedundantByWhenRedundant(oldOp, oldTag, isConc, newOp, newTag)
}

func (Datatype) DisableRedundantWhenRedundant() bool    { return false }
func (Datatype) DisableRedundantWhenNotRedundant() bool { return false }
func (Datatype) DisableStabilize() bool                 { return false }

func (Datatype) Stabilize(clock.Version, *state, polog.Entry[Op]) bool { return true }

func (Datatype) Eval(stable *state, unstable []Op) bool {
	flag := stable.enabled
	for _, op := range unstable {
		if op == Enable {
			flag = true
		}
	}
	return flag
}

// Log is an EW-Flag-specialized PO-Log.
type Log = polog.Log[Op, bool, *state]

// New returns a fresh, disabled EW-Flag log.
func New() *Log {
	return polog.NewLog[Op, bool, *state](newState())
}
