package board

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadops-cli/internal/model"
)

func TestUpdateLead_RederivesDiagnostics(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{
		seedLead("x", model.SubScores{Visual: 30, Social: 20, Ticket: 15, Reach: 8}),
	})[0].ID

	visual := 40
	updated, err := b.UpdateLead(ctx, id, Patch{Visual: &visual})
	require.NoError(t, err)

	assert.Equal(t, 40, updated.Diagnostics.Visual)
	assert.Equal(t, 83, updated.Diagnostics.Total)
	assert.Equal(t, model.GradeB, updated.Diagnostics.Grade)
}

func TestUpdateLead_ClampsPatchedSubScore(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{seedLead("x", model.SubScores{})})[0].ID

	social := 500
	updated, err := b.UpdateLead(ctx, id, Patch{Social: &social})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Diagnostics.Social)
	assert.Equal(t, 30, updated.Diagnostics.Total)
}

func TestUpdateLead_GradeCrossesThreshold(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{
		seedLead("x", model.SubScores{Visual: 40, Social: 30, Ticket: 15, Reach: 0}),
	})[0].ID

	reach := 10
	updated, err := b.UpdateLead(ctx, id, Patch{Reach: &reach})
	require.NoError(t, err)
	assert.Equal(t, 95, updated.Diagnostics.Total)
	assert.Equal(t, model.GradeA, updated.Diagnostics.Grade)
}

func TestUpdateLead_TouchesLastTouchOnly(t *testing.T) {
	b, _, clock := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{seedLead("x", model.SubScores{})})[0].ID
	before, _ := b.Get(id)

	clock.Advance(2 * time.Hour)
	notes := "left a voicemail"
	updated, err := b.UpdateLead(ctx, id, Patch{Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, "left a voicemail", updated.Notes)
	assert.Equal(t, before.PhaseChangedAt, updated.PhaseChangedAt, "phase timestamp untouched")
	assert.Equal(t, clock.Now(), updated.LastTouchAt)
}

func TestUpdateLead_NotFound(t *testing.T) {
	b, _, _ := newTestBoard(t)
	notes := "n"
	_, err := b.UpdateLead(context.Background(), 404, Patch{Notes: &notes})
	assert.True(t, eris.Is(err, model.ErrLeadNotFound))
}

func TestUpdateLead_TerminalRejectsDiagnostics(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{seedLead("x", model.SubScores{Visual: 10})})[0].ID
	_, err := b.RecordWon(ctx, id, 500)
	require.NoError(t, err)

	visual := 40
	_, err = b.UpdateLead(ctx, id, Patch{Visual: &visual})
	assert.True(t, eris.Is(err, model.ErrTerminalLead))

	cur, _ := b.Get(id)
	assert.Equal(t, 10, cur.Diagnostics.Visual)
}

func TestUpdateLead_TerminalAllowsAnnotation(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{seedLead("x", model.SubScores{})})[0].ID
	_, err := b.RecordLost(ctx, id, "budget")
	require.NoError(t, err)

	notes := "revisit next quarter"
	tags := []string{"cold", "q4"}
	narrative := "They liked the work but the timing was wrong."
	updated, err := b.UpdateLead(ctx, id, Patch{Notes: &notes, Tags: &tags, RecoveryNarrative: &narrative})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, tags, updated.Tags)
	assert.Equal(t, narrative, updated.RecoveryNarrative)
}

func TestUpdateLead_StrategyMerge(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{seedLead("x", model.SubScores{})})[0].ID

	updated, err := b.UpdateLead(ctx, id, Patch{
		Strategy: &model.StrategyPayload{Version: 1, Payload: "open with the referral angle"},
	})
	require.NoError(t, err)
	require.Len(t, updated.ForgeHistory, 1)
}

func TestUpdateLead_StaleStrategyRejected(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{seedLead("x", model.SubScores{})})[0].ID

	// Second STRATEGIZE entry already produced version 2.
	_, err := b.UpdateLead(ctx, id, Patch{Strategy: &model.StrategyPayload{Version: 2, Payload: "newer"}})
	require.NoError(t, err)

	// First generation's slow result arrives late with version 1.
	notes := "should not land either"
	_, err = b.UpdateLead(ctx, id, Patch{
		Strategy: &model.StrategyPayload{Version: 1, Payload: "stale"},
		Notes:    &notes,
	})
	assert.True(t, eris.Is(err, model.ErrStaleStrategy))

	cur, _ := b.Get(id)
	require.Len(t, cur.ForgeHistory, 1)
	assert.Equal(t, "newer", cur.ForgeHistory[0].Payload)
	assert.Empty(t, cur.Notes, "rejected patch applies nothing")
}
