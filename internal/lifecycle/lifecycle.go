// Package lifecycle implements the phase state machine and the outcome
// recorder: the only two paths that move a lead along or out of the
// pipeline.
package lifecycle

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadops-cli/internal/model"
)

// Advance moves the lead to the next phase in the fixed order.
//
// Advancing a terminal lead is a precondition failure. Advancing from
// CLOSE is a silent no-op: CLOSE has no successor and the call leaves the
// lead untouched, timestamps included.
func Advance(l *model.Lead, now time.Time) error {
	if l.Terminal() {
		return eris.Wrapf(model.ErrTerminalLead, "advance lead %d", l.ID)
	}

	next, ok := l.Phase.Next()
	if !ok {
		return nil
	}

	l.Phase = next
	l.PhaseChangedAt = now
	l.LastTouchAt = now
	l.PhaseHoldReason = ""
	if l.Status == model.StatusIdle {
		l.Status = model.StatusInProgress
	}
	return nil
}

// AssignPhase sets the phase directly, bypassing the linear order. This
// exists for initialization and administrative correction only; it keeps
// the same timestamp discipline as Advance.
func AssignPhase(l *model.Lead, phase model.Phase, now time.Time) error {
	if l.Terminal() {
		return eris.Wrapf(model.ErrTerminalLead, "assign phase on lead %d", l.ID)
	}
	if !phase.Valid() {
		return eris.Wrapf(model.ErrInvalidPhase, "%q", phase)
	}

	l.Phase = phase
	l.PhaseChangedAt = now
	l.LastTouchAt = now
	l.PhaseHoldReason = ""
	return nil
}

// NeedsStrategy reports whether entering STRATEGIZE should trigger a
// strategy generation: either no payload exists yet, or the newest
// payload predates the current generator version. Versions are monotonic,
// so "behind" and "mismatched" coincide.
func NeedsStrategy(l *model.Lead, generatorVersion int) bool {
	cur := l.CurrentStrategy()
	return cur == nil || cur.Version < generatorVersion
}

// ApplyStrategy prepends a generated payload to the lead's history.
// Results carrying a version no newer than the current head are rejected:
// a second STRATEGIZE entry may have regenerated before a slow first
// generation returned, and the newer payload wins.
func ApplyStrategy(l *model.Lead, p model.StrategyPayload) error {
	if cur := l.CurrentStrategy(); cur != nil && p.Version <= cur.Version {
		return eris.Wrapf(model.ErrStaleStrategy, "lead %d has version %d, got %d", l.ID, cur.Version, p.Version)
	}
	l.ForgeHistory = append([]model.StrategyPayload{p}, l.ForgeHistory...)
	return nil
}

// RecordWon finalizes the lead as won with the closed deal value. The
// phase is left wherever it was; a lead can be won from any phase.
func RecordWon(l *model.Lead, dealValue float64, now time.Time) error {
	if l.Terminal() {
		return eris.Wrapf(model.ErrTerminalLead, "record outcome on lead %d", l.ID)
	}
	if dealValue < 0 {
		return eris.Errorf("deal value must be non-negative, got %v", dealValue)
	}

	l.Status = model.StatusWon
	l.DealValue = dealValue
	l.LastTouchAt = now
	return nil
}

// RecordLost finalizes the lead as lost with a reason. A recovery
// narrative may be generated and attached later by the forge; the core
// only records the loss.
func RecordLost(l *model.Lead, reason string, now time.Time) error {
	if l.Terminal() {
		return eris.Wrapf(model.ErrTerminalLead, "record outcome on lead %d", l.ID)
	}

	l.Status = model.StatusLost
	l.LostReason = reason
	l.LastTouchAt = now
	return nil
}
