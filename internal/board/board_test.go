package board

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadops-cli/internal/model"
	"github.com/sells-group/leadops-cli/internal/scoring"
	"github.com/sells-group/leadops-cli/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBoard(t *testing.T, opts ...Option) (*Board, *store.MemoryStore, *fakeClock) {
	t.Helper()
	st := store.NewMemory()
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(st, opts...), st, clock
}

func seedLead(name string, sub model.SubScores) model.Lead {
	return model.Lead{
		Name:        name,
		Diagnostics: scoring.Compute(sub, nil),
	}
}

func TestInsertMany_Defaults(t *testing.T) {
	b, _, clock := newTestBoard(t)

	inserted := b.InsertMany(context.Background(), []model.Lead{
		seedLead("Harbor Light Dental", model.SubScores{Visual: 30, Social: 20, Ticket: 15, Reach: 8}),
	})
	require.Len(t, inserted, 1)

	l := inserted[0]
	assert.Equal(t, int64(1), l.ID)
	assert.Equal(t, model.PhaseScan, l.Phase)
	assert.Equal(t, model.StatusIdle, l.Status)
	assert.Equal(t, clock.Now(), l.FirstSeenAt)
	assert.Equal(t, clock.Now(), l.PhaseChangedAt)
	assert.Equal(t, 73, l.Diagnostics.Total)
	assert.Equal(t, model.GradeB, l.Diagnostics.Grade)
}

func TestInsertMany_CollisionGetsFreshID(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()

	first := b.InsertMany(ctx, []model.Lead{{ID: 5, Name: "original"}})
	second := b.InsertMany(ctx, []model.Lead{{ID: 5, Name: "noisy duplicate"}})

	require.Len(t, second, 1)
	assert.Equal(t, int64(5), first[0].ID)
	assert.NotEqual(t, first[0].ID, second[0].ID, "collision must assign a fresh id")

	kept, err := b.Get(5)
	require.NoError(t, err)
	assert.Equal(t, "original", kept.Name, "existing lead never overwritten")
	assert.Equal(t, 2, b.Len())
}

func TestFreshLeadClassifiesBlue(t *testing.T) {
	b, _, _ := newTestBoard(t)
	inserted := b.InsertMany(context.Background(), []model.Lead{seedLead("new shop", model.SubScores{})})

	h, err := b.Heat(inserted[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.HeatBlue, h)
}

func TestAdvance_FourTimesReachesClose(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{seedLead("x", model.SubScores{})})[0].ID

	var l model.Lead
	var err error
	for i := 0; i < 4; i++ {
		l, err = b.Advance(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, model.PhaseClose, l.Phase)

	// Fifth advance is a no-op.
	before, _ := b.Get(id)
	after, err := b.Advance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAdvance_NotFound(t *testing.T) {
	b, _, _ := newTestBoard(t)
	_, err := b.Advance(context.Background(), 99)
	assert.True(t, eris.Is(err, model.ErrLeadNotFound))
}

func TestRecordLost_ThenAdvanceRejected(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{seedLead("x", model.SubScores{})})[0].ID

	// Walk to SEND.
	for i := 0; i < 3; i++ {
		_, err := b.Advance(ctx, id)
		require.NoError(t, err)
	}

	lost, err := b.RecordLost(ctx, id, "budget")
	require.NoError(t, err)
	assert.Equal(t, model.StatusLost, lost.Status)
	assert.Equal(t, "budget", lost.LostReason)

	_, err = b.Advance(ctx, id)
	assert.True(t, eris.Is(err, model.ErrTerminalLead))

	cur, _ := b.Get(id)
	assert.Equal(t, model.PhaseSend, cur.Phase, "phase unchanged after rejected advance")
}

func TestRecordWon_FromAnyPhase(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	id := b.InsertMany(ctx, []model.Lead{seedLead("x", model.SubScores{})})[0].ID

	won, err := b.RecordWon(ctx, id, 9000)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWon, won.Status)
	assert.Equal(t, 9000.0, won.DealValue)
	assert.Equal(t, model.PhaseScan, won.Phase)
}

func TestReorder_SpliceBeforeTarget(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()

	var seeds []model.Lead
	for i := 1; i <= 5; i++ {
		seeds = append(seeds, seedLead(fmt.Sprintf("lead-%d", i), model.SubScores{Visual: i}))
	}
	b.InsertMany(ctx, seeds)

	before := b.List()
	require.NoError(t, b.Reorder(ctx, 5, 1))

	after := b.List()
	wantOrder := []int64{5, 1, 2, 3, 4}
	for i, id := range wantOrder {
		assert.Equal(t, id, after[i].ID)
	}

	// Reorder is purely positional: every lead's fields are unchanged.
	byID := map[int64]model.Lead{}
	for _, l := range before {
		byID[l.ID] = l
	}
	for _, l := range after {
		assert.Equal(t, byID[l.ID], l)
	}
}

func TestReorder_MidList(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	b.InsertMany(ctx, []model.Lead{
		seedLead("a", model.SubScores{}), seedLead("b", model.SubScores{}),
		seedLead("c", model.SubScores{}), seedLead("d", model.SubScores{}),
	})

	// Move 1 before 4: order becomes 2,3,1,4.
	require.NoError(t, b.Reorder(ctx, 1, 4))
	got := b.List()
	want := []int64{2, 3, 1, 4}
	for i, id := range want {
		assert.Equal(t, id, got[i].ID)
	}
}

func TestReorder_SelfIsNoOp(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	b.InsertMany(ctx, []model.Lead{seedLead("a", model.SubScores{}), seedLead("b", model.SubScores{})})

	require.NoError(t, b.Reorder(ctx, 1, 1))
	got := b.List()
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestReorder_UnknownIDFails(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	b.InsertMany(ctx, []model.Lead{seedLead("a", model.SubScores{})})

	err := b.Reorder(ctx, 1, 42)
	assert.True(t, eris.Is(err, model.ErrLeadNotFound))
	err = b.Reorder(ctx, 42, 1)
	assert.True(t, eris.Is(err, model.ErrLeadNotFound))
}

func TestByPhase_LiveView(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	b.InsertMany(ctx, []model.Lead{
		seedLead("a", model.SubScores{}), seedLead("b", model.SubScores{}), seedLead("c", model.SubScores{}),
	})

	scans := b.ByPhase(model.PhaseScan)

	count := func() int {
		n := 0
		for range scans {
			n++
		}
		return n
	}
	assert.Equal(t, 3, count())

	_, err := b.Advance(ctx, 2)
	require.NoError(t, err)

	// Same sequence value reflects the live collection.
	assert.Equal(t, 2, count())

	var scoreIDs []int64
	for l := range b.ByPhase(model.PhaseScore) {
		scoreIDs = append(scoreIDs, l.ID)
	}
	assert.Equal(t, []int64{2}, scoreIDs)
}

func TestByPhase_PreservesDisplayOrder(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()
	b.InsertMany(ctx, []model.Lead{
		seedLead("a", model.SubScores{}), seedLead("b", model.SubScores{}), seedLead("c", model.SubScores{}),
	})
	require.NoError(t, b.Reorder(ctx, 3, 1))

	var ids []int64
	for l := range b.ByPhase(model.PhaseScan) {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestPersistenceFailure_DoesNotBlockMutation(t *testing.T) {
	st := store.NewMemory()
	st.FailSaves = true
	b := New(st, WithClock(newFakeClock().Now))
	ctx := context.Background()

	inserted := b.InsertMany(ctx, []model.Lead{seedLead("offline", model.SubScores{})})
	require.Len(t, inserted, 1)
	assert.Error(t, b.LastSaveErr(), "store outage surfaces as a warning condition")

	_, err := b.Advance(ctx, inserted[0].ID)
	assert.NoError(t, err, "in-memory operations keep succeeding")

	st.FailSaves = false
	assert.NoError(t, b.Flush(ctx))
	assert.NoError(t, b.LastSaveErr())
}

func TestLoad_RestoresOrderAndNextID(t *testing.T) {
	st := store.NewMemory()
	clock := newFakeClock()
	first := New(st, WithClock(clock.Now))
	ctx := context.Background()

	first.InsertMany(ctx, []model.Lead{
		seedLead("a", model.SubScores{Visual: 10}),
		seedLead("b", model.SubScores{Visual: 20}),
	})
	require.NoError(t, first.Reorder(ctx, 2, 1))

	second := New(st, WithClock(clock.Now))
	require.NoError(t, second.Load(ctx))

	got := second.List()
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)

	// Fresh inserts continue above the restored ids.
	ins := second.InsertMany(ctx, []model.Lead{seedLead("c", model.SubScores{})})
	assert.Equal(t, int64(3), ins[0].ID)
}

func TestConcurrentMutationsStayConsistent(t *testing.T) {
	b, _, _ := newTestBoard(t)
	ctx := context.Background()

	var seeds []model.Lead
	for i := 0; i < 10; i++ {
		seeds = append(seeds, seedLead(fmt.Sprintf("lead-%d", i), model.SubScores{Visual: i}))
	}
	b.InsertMany(ctx, seeds)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := int64(n%10 + 1)
			switch n % 3 {
			case 0:
				_, _ = b.Advance(ctx, id)
			case 1:
				v := n % 41
				_, _ = b.UpdateLead(ctx, id, Patch{Visual: &v})
			case 2:
				_ = b.Reorder(ctx, id, int64((n+3)%10+1))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, b.Len())
	seen := map[int64]bool{}
	for _, l := range b.List() {
		assert.False(t, seen[l.ID], "no duplicate ids after concurrent churn")
		seen[l.ID] = true
		d := l.Diagnostics
		assert.Equal(t, d.Total, d.Visual+d.Social+d.Ticket+d.Reach, "total stays in sync")
	}
}
