package discovery

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadops-cli/internal/model"
	"github.com/sells-group/leadops-cli/internal/scoring"
	"github.com/sells-group/leadops-cli/pkg/anthropic"
)

// auditPrompt asks Claude for the four sub-scores directly. The ranges
// mirror the scoring model; out-of-range answers get clamped downstream
// anyway.
const auditPrompt = `You are auditing a small business as a prospective client for a marketing agency. Score it on four axes:
- visual: quality of branding and web presence, 0-40
- social: social media activity and following, 0-30
- ticket: likely deal size for this business type, 0-20
- reach: market reach beyond its immediate neighborhood, 0-10
Also give your confidence in this audit as a percentage.

Respond with ONLY valid JSON, no other text:
{"visual": 0, "social": 0, "ticket": 0, "reach": 0, "confidence": 0}`

// maxConcurrentAudits bounds parallel Claude calls per batch.
const maxConcurrentAudits = 4

// HomepageFetcher supplies site text for audit prompts.
type HomepageFetcher interface {
	Homepage(ctx context.Context, website string) (string, error)
}

// AuditResult is one lead's model-judged diagnostics, to be merged
// through the board's update path.
type AuditResult struct {
	LeadID     int64
	SubScores  model.SubScores
	Confidence int
}

// Auditor refines estimate-derived sub-scores with a Claude pass over
// each lead's homepage.
type Auditor struct {
	ai      anthropic.Client
	model   string
	fetcher HomepageFetcher
}

// NewAuditor creates an auditor using the given model id.
func NewAuditor(ai anthropic.Client, modelID string, fetcher HomepageFetcher) *Auditor {
	return &Auditor{ai: ai, model: modelID, fetcher: fetcher}
}

// AuditBatch scores leads concurrently. Leads without a website, or whose
// fetch or scoring fails, are skipped with a debug log; the batch never
// fails as a whole unless the context ends.
func (a *Auditor) AuditBatch(ctx context.Context, leads []model.Lead) ([]AuditResult, error) {
	log := zap.L().With(zap.String("phase", "audit"))

	var mu sync.Mutex
	var results []AuditResult

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAudits)

	for _, lead := range leads {
		if lead.Contact.Website == "" {
			continue
		}
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}

			content, err := a.fetcher.Homepage(gCtx, lead.Contact.Website)
			if err != nil {
				log.Debug("fetch homepage failed", zap.String("website", lead.Contact.Website), zap.Error(err))
				return nil
			}

			res, err := a.auditOne(gCtx, lead.Name, content)
			if err != nil {
				log.Debug("claude audit failed", zap.String("name", lead.Name), zap.Error(err))
				return nil
			}
			res.LeadID = lead.ID

			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	log.Info("audit batch complete", zap.Int("leads", len(leads)), zap.Int("scored", len(results)))
	return results, nil
}

func (a *Auditor) auditOne(ctx context.Context, name, content string) (AuditResult, error) {
	resp, err := a.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: 256,
		System:    auditPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: "Business: " + name + "\n\nWebsite content:\n" + content},
		},
	})
	if err != nil {
		return AuditResult{}, eris.Wrapf(err, "discovery: audit %s", name)
	}

	var parsed struct {
		Visual     int `json:"visual"`
		Social     int `json:"social"`
		Ticket     int `json:"ticket"`
		Reach      int `json:"reach"`
		Confidence int `json:"confidence"`
	}
	text := strings.TrimSpace(resp.Text)
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return AuditResult{}, eris.Wrapf(err, "discovery: parse audit response %q", text)
	}

	sub := scoring.Clamp(model.SubScores{
		Visual: parsed.Visual,
		Social: parsed.Social,
		Ticket: parsed.Ticket,
		Reach:  parsed.Reach,
	})
	return AuditResult{SubScores: sub, Confidence: parsed.Confidence}, nil
}
