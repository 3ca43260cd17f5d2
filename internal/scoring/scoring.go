// Package scoring derives a lead's composite diagnostics from its four
// sub-metrics. All functions are pure: re-auditing with identical input
// always produces identical output.
package scoring

import (
	"math"

	"github.com/sells-group/leadops-cli/internal/model"
)

// Sub-score ceilings. The four ranges sum to 100 so the composite total
// is always a percentage.
const (
	MaxVisual = 40
	MaxSocial = 30
	MaxTicket = 20
	MaxReach  = 10
)

// DefaultConfidence is the baseline audit confidence applied when the
// caller supplies none.
const DefaultConfidence = 85

// Clamp returns the sub-scores forced into their documented ranges.
// Out-of-range input is clamped rather than rejected so noisy upstream
// numbers never break the pipeline.
func Clamp(s model.SubScores) model.SubScores {
	return model.SubScores{
		Visual: clampTo(s.Visual, MaxVisual),
		Social: clampTo(s.Social, MaxSocial),
		Ticket: clampTo(s.Ticket, MaxTicket),
		Reach:  clampTo(s.Reach, MaxReach),
	}
}

func clampTo(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// GradeFor maps a total score to its qualitative bucket. Boundary values
// belong to the lower band: 85 is a B, 65 is a C.
func GradeFor(total int) model.Grade {
	switch {
	case total > 85:
		return model.GradeA
	case total > 65:
		return model.GradeB
	default:
		return model.GradeC
	}
}

// Compute clamps the sub-scores, sums them into the total, and derives
// the grade. Confidence is an independent caller-supplied percentage;
// pass nil to take the default baseline.
func Compute(s model.SubScores, confidence *int) model.Diagnostics {
	clamped := Clamp(s)
	total := clamped.Visual + clamped.Social + clamped.Ticket + clamped.Reach

	conf := DefaultConfidence
	if confidence != nil {
		conf = clampTo(*confidence, 100)
	}

	return model.Diagnostics{
		SubScores:  clamped,
		Total:      total,
		Grade:      GradeFor(total),
		Confidence: conf,
	}
}

// Derive splits a single overall estimate in [0,100] across the four
// sub-metrics using the 40/30/20/10 weighting. Discovery uses this when a
// candidate arrives with only a coarse quality estimate.
func Derive(estimate int) model.SubScores {
	e := float64(clampTo(estimate, 100))
	return model.SubScores{
		Visual: int(math.Round(e * MaxVisual / 100)),
		Social: int(math.Round(e * MaxSocial / 100)),
		Ticket: int(math.Round(e * MaxTicket / 100)),
		Reach:  int(math.Round(e * MaxReach / 100)),
	}
}
