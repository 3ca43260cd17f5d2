// Package model defines the lead entity and the enumerations that drive
// the pipeline: phases, statuses, grades, and heat classifications.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Phase is one of the five fixed pipeline stages a lead moves through.
type Phase string

const (
	PhaseScan       Phase = "SCAN"
	PhaseScore      Phase = "SCORE"
	PhaseStrategize Phase = "STRATEGIZE"
	PhaseSend       Phase = "SEND"
	PhaseClose      Phase = "CLOSE"
)

// Phases lists the pipeline stages in forward order.
var Phases = []Phase{PhaseScan, PhaseScore, PhaseStrategize, PhaseSend, PhaseClose}

// Valid reports whether p is one of the five canonical phases.
func (p Phase) Valid() bool {
	for _, ph := range Phases {
		if p == ph {
			return true
		}
	}
	return false
}

// Next returns the successor phase and true, or p itself and false when p
// is CLOSE (CLOSE has no successor).
func (p Phase) Next() (Phase, bool) {
	for i, ph := range Phases {
		if p == ph {
			if i+1 < len(Phases) {
				return Phases[i+1], true
			}
			return p, false
		}
	}
	return p, false
}

// Status is the lead's disposition flag. It is an axis independent of
// Phase: a lead can be marked won or lost while nominally in any phase.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusInProgress Status = "in_progress"
	StatusStalled    Status = "stalled"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// Terminal reports whether the status closes the lead's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

// Grade is the qualitative bucket derived from the total score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
)

// Heat is the urgency/staleness classification. It is derived on demand
// for display and sorting, never persisted.
type Heat string

const (
	HeatRed   Heat = "RED"   // high-ticket lead stalled in phase
	HeatAmber Heat = "AMBER" // generic stall
	HeatGreen Heat = "GREEN" // healthy, recently touched
	HeatBlue  Heat = "BLUE"  // discovered within the last day
	HeatWhite Heat = "WHITE" // dormant, overrides everything
)

// SubScores holds the four diagnostic sub-metrics. Ranges: Visual [0,40],
// Social [0,30], Ticket [0,20], Reach [0,10].
type SubScores struct {
	Visual int `json:"visual"`
	Social int `json:"social"`
	Ticket int `json:"ticket"`
	Reach  int `json:"reach"`
}

// Diagnostics is the full derived scoring state of a lead.
type Diagnostics struct {
	SubScores
	Total      int   `json:"total"`
	Grade      Grade `json:"grade"`
	Confidence int   `json:"confidence"`
}

// StrategyPayload is one externally generated outreach strategy. History
// keeps the most recent entry first; Version is a monotonic generator tag
// so stale async results can be rejected.
type StrategyPayload struct {
	Version     int       `json:"version"`
	Payload     string    `json:"payload"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Contact holds the lead's opaque contact channels. None of these are
// validated by the core.
type Contact struct {
	Website   string `json:"website,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
}

// Lead is one prospective client business tracked through the pipeline.
type Lead struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Contact Contact `json:"contact"`

	Diagnostics Diagnostics `json:"diagnostics"`

	Phase           Phase  `json:"phase"`
	Status          Status `json:"status"`
	PhaseHoldReason string `json:"phase_hold_reason,omitempty"`

	FirstSeenAt    time.Time `json:"first_seen_at"`
	PhaseChangedAt time.Time `json:"phase_changed_at"`
	LastTouchAt    time.Time `json:"last_touch_at"`

	DealValue         float64 `json:"deal_value,omitempty"`
	LostReason        string  `json:"lost_reason,omitempty"`
	RecoveryNarrative string  `json:"recovery_narrative,omitempty"`

	Notes        string            `json:"notes,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	ForgeHistory []StrategyPayload `json:"forge_history,omitempty"`
}

// Terminal reports whether the lead has a won/lost outcome recorded.
func (l *Lead) Terminal() bool {
	return l.Status.Terminal()
}

// CurrentStrategy returns the most recent strategy payload, or nil when
// none has been generated yet.
func (l *Lead) CurrentStrategy() *StrategyPayload {
	if len(l.ForgeHistory) == 0 {
		return nil
	}
	return &l.ForgeHistory[0]
}

// Clone returns a deep copy of the lead so callers can hand out snapshots
// without exposing the collection's backing slices.
func (l *Lead) Clone() Lead {
	out := *l
	if l.Tags != nil {
		out.Tags = append([]string(nil), l.Tags...)
	}
	if l.ForgeHistory != nil {
		out.ForgeHistory = append([]StrategyPayload(nil), l.ForgeHistory...)
	}
	return out
}

// Shared sentinel errors for lifecycle and collection preconditions.
var (
	// ErrTerminalLead is returned when a phase transition or diagnostic
	// update targets a lead already recorded as won or lost.
	ErrTerminalLead = eris.New("lead is terminal (won/lost)")

	// ErrLeadNotFound is returned when an operation references an id the
	// collection does not hold.
	ErrLeadNotFound = eris.New("lead not found")

	// ErrInvalidPhase is returned when an administrative phase assignment
	// names a value outside the five canonical phases.
	ErrInvalidPhase = eris.New("invalid phase")

	// ErrStaleStrategy is returned when an async strategy result carries a
	// version tag older than the lead's current payload.
	ErrStaleStrategy = eris.New("stale strategy version")
)
