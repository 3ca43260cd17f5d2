// Package heat classifies a lead's urgency from its timestamps and score.
// The classification is computed on every read and never persisted.
package heat

import (
	"time"

	"github.com/sells-group/leadops-cli/internal/model"
)

const (
	dormantAfter = 7 * 24 * time.Hour
	stalledAfter = 2 * 24 * time.Hour
	freshWithin  = 24 * time.Hour

	// highTicketTotal marks a lead as high value even below grade A.
	highTicketTotal = 90
)

// Classify derives the heat bucket for a lead at the given instant.
//
// Precedence is deliberate and must not be reordered: dormancy trumps
// value, value-weighted stall trumps generic stall, freshness trumps the
// healthy default. Swapping RED and AMBER would silently downgrade
// high-value stalled leads.
func Classify(lead *model.Lead, now time.Time) model.Heat {
	inPhase := now.Sub(lead.PhaseChangedAt)
	highTicket := lead.Diagnostics.Grade == model.GradeA || lead.Diagnostics.Total > highTicketTotal
	isNew := now.Sub(lead.FirstSeenAt) < freshWithin

	switch {
	case inPhase > dormantAfter:
		return model.HeatWhite
	case highTicket && inPhase > stalledAfter:
		return model.HeatRed
	case inPhase > stalledAfter:
		return model.HeatAmber
	case isNew:
		return model.HeatBlue
	default:
		return model.HeatGreen
	}
}
