// Package discovery normalizes raw candidate records from external
// discovery runs into leads. Records are validated at the boundary: a
// candidate either parses into a fully-shaped lead or is rejected with a
// reason, so the core never sees a partially-shaped record.
package discovery

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/leadops-cli/internal/model"
	"github.com/sells-group/leadops-cli/internal/scoring"
)

// RawCandidate is one record as produced by the discovery collaborator.
// Sub-scores are optional; absent ones are derived proportionally from
// Estimate. Contact channels are opaque strings, not validated here.
type RawCandidate struct {
	Name      string `json:"name" validate:"required,min=2"`
	Website   string `json:"website"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`

	// Estimate is a coarse overall quality guess in [0,100].
	Estimate *int `json:"estimate" validate:"omitempty,min=0,max=100"`

	Visual     *int `json:"visual"`
	Social     *int `json:"social"`
	Ticket     *int `json:"ticket"`
	Reach      *int `json:"reach"`
	Confidence *int `json:"confidence" validate:"omitempty,min=0,max=100"`

	Tags  []string `json:"tags"`
	Notes string   `json:"notes"`
}

// Rejection records why one candidate failed boundary validation.
type Rejection struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// ParseResult splits a raw batch into normalized leads and rejections.
type ParseResult struct {
	Leads    []model.Lead
	Rejected []Rejection
}

var validate = validator.New()

// ParseBatch decodes a JSON array of raw candidates and validates each
// one. Malformed envelope JSON is the only hard error; per-record
// problems land in Rejected. Duplicate candidates within the batch
// (same normalized name and website) are rejected, since discovery runs
// are allowed to be noisy.
func ParseBatch(data []byte) (*ParseResult, error) {
	var raw []RawCandidate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "discovery: decode candidate batch")
	}

	res := &ParseResult{}
	seen := make(map[string]bool, len(raw))
	for i, rc := range raw {
		if err := validate.Struct(rc); err != nil {
			res.Rejected = append(res.Rejected, Rejection{Index: i, Name: rc.Name, Reason: err.Error()})
			continue
		}

		key := NormalizeName(rc.Name) + "|" + strings.ToLower(rc.Website)
		if seen[key] {
			res.Rejected = append(res.Rejected, Rejection{Index: i, Name: rc.Name, Reason: "duplicate of earlier candidate"})
			continue
		}
		seen[key] = true

		res.Leads = append(res.Leads, Normalize(rc))
	}
	return res, nil
}

// Normalize converts a validated candidate into a lead ready for board
// insertion. The board assigns the id and timestamps.
func Normalize(rc RawCandidate) model.Lead {
	sub := deriveSubScores(rc)
	return model.Lead{
		Name: strings.TrimSpace(rc.Name),
		Contact: model.Contact{
			Website:   rc.Website,
			Phone:     rc.Phone,
			Email:     rc.Email,
			Instagram: rc.Instagram,
			Facebook:  rc.Facebook,
		},
		Diagnostics: scoring.Compute(sub, rc.Confidence),
		Phase:       model.PhaseScan,
		Status:      model.StatusIdle,
		Tags:        rc.Tags,
		Notes:       rc.Notes,
	}
}

// deriveSubScores prefers explicit sub-scores and falls back to the
// proportional split of the overall estimate for absent ones.
func deriveSubScores(rc RawCandidate) model.SubScores {
	base := model.SubScores{}
	if rc.Estimate != nil {
		base = scoring.Derive(*rc.Estimate)
	}
	if rc.Visual != nil {
		base.Visual = *rc.Visual
	}
	if rc.Social != nil {
		base.Social = *rc.Social
	}
	if rc.Ticket != nil {
		base.Ticket = *rc.Ticket
	}
	if rc.Reach != nil {
		base.Reach = *rc.Reach
	}
	return base
}

var nameFolder = cases.Fold()

// NormalizeName canonicalizes a business name for dedup comparison:
// unicode-normalized, case-folded, whitespace-collapsed.
func NormalizeName(s string) string {
	s = norm.NFKC.String(s)
	s = nameFolder.String(s)
	return strings.Join(strings.Fields(s), " ")
}
