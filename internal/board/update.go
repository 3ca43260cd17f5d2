package board

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadops-cli/internal/lifecycle"
	"github.com/sells-group/leadops-cli/internal/model"
)

// Patch is a partial lead update. Nil fields are left untouched. Async
// collaborator results (strategy payloads, recovery narratives) come back
// through here so the score-resync and version-check invariants hold even
// for late arrivals.
type Patch struct {
	Name      *string `json:"name,omitempty"`
	Website   *string `json:"website,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	Facebook  *string `json:"facebook,omitempty"`

	Visual     *int `json:"visual,omitempty"`
	Social     *int `json:"social,omitempty"`
	Ticket     *int `json:"ticket,omitempty"`
	Reach      *int `json:"reach,omitempty"`
	Confidence *int `json:"confidence,omitempty"`

	Notes           *string   `json:"notes,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	PhaseHoldReason *string   `json:"phase_hold_reason,omitempty"`

	Strategy          *model.StrategyPayload `json:"strategy,omitempty"`
	RecoveryNarrative *string                `json:"recovery_narrative,omitempty"`
}

// touchesDiagnostics reports whether the patch changes any scoring input.
func (p Patch) touchesDiagnostics() bool {
	return p.Visual != nil || p.Social != nil || p.Ticket != nil || p.Reach != nil || p.Confidence != nil
}

// annotationOnly reports whether the patch is limited to the fields that
// stay mutable after a won/lost outcome.
func (p Patch) annotationOnly() bool {
	return p.Name == nil && p.Website == nil && p.Phone == nil && p.Email == nil &&
		p.Instagram == nil && p.Facebook == nil &&
		!p.touchesDiagnostics() &&
		p.PhaseHoldReason == nil && p.Strategy == nil
}

// UpdateLead applies a partial update atomically. Sub-score changes
// re-derive total and grade in the same critical section, so callers can
// never observe a total out of sync with its sub-scores. Terminal leads
// accept only notes, tags, and (for lost leads) the recovery narrative.
func (b *Board) UpdateLead(ctx context.Context, id int64, patch Patch) (model.Lead, error) {
	now := b.clock()

	b.mu.Lock()
	l, ok := b.byID[id]
	if !ok {
		b.mu.Unlock()
		return model.Lead{}, eris.Wrapf(model.ErrLeadNotFound, "id %d", id)
	}

	if l.Terminal() && !patch.annotationOnly() {
		b.mu.Unlock()
		return model.Lead{}, eris.Wrapf(model.ErrTerminalLead, "update lead %d", id)
	}

	// Version check first: a stale strategy rejects the whole patch
	// before anything is applied.
	if patch.Strategy != nil {
		if err := lifecycle.ApplyStrategy(l, *patch.Strategy); err != nil {
			b.mu.Unlock()
			return model.Lead{}, err
		}
	}

	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Website != nil {
		l.Contact.Website = *patch.Website
	}
	if patch.Phone != nil {
		l.Contact.Phone = *patch.Phone
	}
	if patch.Email != nil {
		l.Contact.Email = *patch.Email
	}
	if patch.Instagram != nil {
		l.Contact.Instagram = *patch.Instagram
	}
	if patch.Facebook != nil {
		l.Contact.Facebook = *patch.Facebook
	}

	if patch.touchesDiagnostics() {
		s := l.Diagnostics.SubScores
		if patch.Visual != nil {
			s.Visual = *patch.Visual
		}
		if patch.Social != nil {
			s.Social = *patch.Social
		}
		if patch.Ticket != nil {
			s.Ticket = *patch.Ticket
		}
		if patch.Reach != nil {
			s.Reach = *patch.Reach
		}
		l.Diagnostics.SubScores = s
		if patch.Confidence != nil {
			l.Diagnostics.Confidence = *patch.Confidence
		}
		recompute(l)
	}

	if patch.Notes != nil {
		l.Notes = *patch.Notes
	}
	if patch.Tags != nil {
		l.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.PhaseHoldReason != nil {
		l.PhaseHoldReason = *patch.PhaseHoldReason
	}
	if patch.RecoveryNarrative != nil {
		l.RecoveryNarrative = *patch.RecoveryNarrative
	}

	l.LastTouchAt = now
	snap := l.Clone()
	b.mu.Unlock()

	b.save(ctx)
	return snap, nil
}
