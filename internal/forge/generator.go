// Package forge generates outreach strategy payloads and loss-recovery
// narratives for leads. Generation is asynchronous: the board announces
// that work is wanted, the forge produces a versioned payload, and the
// result is merged back through the board's update path so stale results
// can be rejected by version tag.
package forge

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadops-cli/internal/model"
	"github.com/sells-group/leadops-cli/internal/resilience"
	"github.com/sells-group/leadops-cli/pkg/anthropic"
)

// Generator produces strategy payloads and recovery narratives. Version
// identifies the current generation recipe; it only ever increases, so a
// payload's version tag records which recipe produced it.
type Generator interface {
	Version() int
	Strategy(ctx context.Context, lead model.Lead, siteContext string) (model.StrategyPayload, error)
	Narrative(ctx context.Context, lead model.Lead) (string, error)
}

const strategyPrompt = `You are a senior strategist at a marketing agency. Write a concise outreach strategy for approaching the business below as a prospective client: the angle to lead with, two concrete talking points grounded in their current presence, and a suggested first deliverable. Keep it under 200 words, plain text.`

const narrativePrompt = `A marketing agency lost a prospective client. Write a short, honest internal note (under 100 words) on what the loss suggests and one concrete condition under which re-approaching would make sense.`

// ClaudeGenerator implements Generator on the Anthropic API.
type ClaudeGenerator struct {
	ai      anthropic.Client
	model   string
	version int
	retry   resilience.RetryConfig
}

// NewClaudeGenerator creates a generator. The version tag comes from
// configuration and must be bumped whenever the recipe changes.
func NewClaudeGenerator(ai anthropic.Client, modelID string, version int) *ClaudeGenerator {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "forge")
	return &ClaudeGenerator{
		ai:      ai,
		model:   modelID,
		version: version,
		retry:   retry,
	}
}

func (g *ClaudeGenerator) Version() int { return g.version }

// Strategy generates a fresh payload stamped with the generator version.
func (g *ClaudeGenerator) Strategy(ctx context.Context, lead model.Lead, siteContext string) (model.StrategyPayload, error) {
	prompt := fmt.Sprintf("Business: %s\nGrade: %s (total %d/100)\nPipeline phase: %s",
		lead.Name, lead.Diagnostics.Grade, lead.Diagnostics.Total, lead.Phase)
	if lead.Contact.Website != "" {
		prompt += "\nWebsite: " + lead.Contact.Website
	}
	if siteContext != "" {
		prompt += "\n\nWebsite content:\n" + siteContext
	}

	text, err := g.complete(ctx, strategyPrompt, prompt)
	if err != nil {
		return model.StrategyPayload{}, eris.Wrapf(err, "forge: strategy for lead %d", lead.ID)
	}

	return model.StrategyPayload{
		Version:     g.version,
		Payload:     text,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// Narrative generates the optional post-loss recovery note.
func (g *ClaudeGenerator) Narrative(ctx context.Context, lead model.Lead) (string, error) {
	prompt := fmt.Sprintf("Business: %s\nGrade: %s (total %d/100)\nPhase when lost: %s\nStated reason: %s",
		lead.Name, lead.Diagnostics.Grade, lead.Diagnostics.Total, lead.Phase, lead.LostReason)

	text, err := g.complete(ctx, narrativePrompt, prompt)
	if err != nil {
		return "", eris.Wrapf(err, "forge: narrative for lead %d", lead.ID)
	}
	return text, nil
}

func (g *ClaudeGenerator) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := resilience.Retry(ctx, g.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     g.model,
			MaxTokens: 512,
			System:    system,
			Messages:  []anthropic.Message{{Role: "user", Content: user}},
		})
	})
	if err != nil {
		return "", err
	}

	zap.L().Debug("forge generation complete",
		zap.String("model", g.model),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)
	return resp.Text, nil
}
