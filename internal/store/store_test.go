package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadops-cli/internal/model"
)

func sampleBoard() []model.Lead {
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	return []model.Lead{
		{
			ID:    1,
			Name:  "Harbor Light Dental",
			Phase: model.PhaseScan,
			Status: model.StatusIdle,
			Diagnostics: model.Diagnostics{
				SubScores:  model.SubScores{Visual: 30, Social: 20, Ticket: 15, Reach: 8},
				Total:      73,
				Grade:      model.GradeB,
				Confidence: 85,
			},
			FirstSeenAt:    now,
			PhaseChangedAt: now,
			LastTouchAt:    now,
			Tags:           []string{"dental"},
		},
		{
			ID:     2,
			Name:   "Kite & Anchor Tattoo",
			Phase:  model.PhaseSend,
			Status: model.StatusInProgress,
			ForgeHistory: []model.StrategyPayload{
				{Version: 2, Payload: "lead with the flash sale angle", GeneratedAt: now},
			},
		},
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	loaded, err := s.LoadBoard(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded, "empty store loads nil board")

	board := sampleBoard()
	require.NoError(t, s.SaveBoard(ctx, board))

	loaded, err = s.LoadBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, board, loaded)

	// Mutating what came back must not leak into the store.
	loaded[0].Name = "mutated"
	again, err := s.LoadBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Light Dental", again[0].Name)
}

func TestMemoryStore_FailSaves(t *testing.T) {
	s := NewMemory()
	s.FailSaves = true
	assert.Error(t, s.SaveBoard(context.Background(), sampleBoard()))
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "board.db")

	s, err := NewSQLite(dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	loaded, err := s.LoadBoard(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	board := sampleBoard()
	require.NoError(t, s.SaveBoard(ctx, board))

	loaded, err = s.LoadBoard(ctx)
	require.NoError(t, err)
	assert.Equal(t, board, loaded)
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.SaveBoard(ctx, sampleBoard()))
	require.NoError(t, s.SaveBoard(ctx, sampleBoard()[:1]))

	loaded, err := s.LoadBoard(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(1), loaded[0].ID)
}

func TestSQLiteStore_EmptyBoardIsNotMissing(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.SaveBoard(ctx, []model.Lead{}))
	loaded, err := s.LoadBoard(ctx)
	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}
