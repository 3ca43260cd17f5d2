// Package board owns the ordered lead collection. It is the single
// writer for lead mutation: every operation that touches a lead goes
// through the board's lock, so two mutations on the same lead can never
// interleave. Display order is user-controlled and independent of phase.
package board

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadops-cli/internal/heat"
	"github.com/sells-group/leadops-cli/internal/lifecycle"
	"github.com/sells-group/leadops-cli/internal/model"
	"github.com/sells-group/leadops-cli/internal/scoring"
	"github.com/sells-group/leadops-cli/internal/store"
)

// Notifier receives the board's side-effect signals. Implementations run
// the actual work asynchronously and merge results back through
// UpdateLead; the board only announces that the work is wanted.
type Notifier interface {
	// StrategizeEntered fires when a lead transitions into STRATEGIZE.
	// The receiver decides whether regeneration is actually needed.
	StrategizeEntered(lead model.Lead)

	// LeadLost fires when a lost outcome is recorded, so a recovery
	// narrative can optionally be generated and attached later.
	LeadLost(lead model.Lead)
}

// Option configures a Board.
type Option func(*Board)

// WithNotifier attaches the side-effect listener.
func WithNotifier(n Notifier) Option {
	return func(b *Board) { b.notifier = n }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(b *Board) { b.clock = clock }
}

// Board is the ordered, mutex-serialized lead collection with injected
// persistence. One board serves one owning session.
type Board struct {
	mu     sync.RWMutex
	leads  []*model.Lead
	byID   map[int64]*model.Lead
	nextID int64

	store    store.Store
	notifier Notifier
	clock    func() time.Time

	saveMu      sync.Mutex
	lastSaveErr error
}

// New creates an empty board backed by the given store.
func New(st store.Store, opts ...Option) *Board {
	b := &Board{
		byID:   make(map[int64]*model.Lead),
		nextID: 1,
		store:  st,
		clock:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load replaces the board's contents with the persisted snapshot. Called
// once at session start; a missing snapshot leaves the board empty.
func (b *Board) Load(ctx context.Context) error {
	leads, err := b.store.LoadBoard(ctx)
	if err != nil {
		return eris.Wrap(err, "board: load")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.leads = b.leads[:0]
	b.byID = make(map[int64]*model.Lead, len(leads))
	b.nextID = 1
	for i := range leads {
		l := leads[i].Clone()
		b.leads = append(b.leads, &l)
		b.byID[l.ID] = &l
		if l.ID >= b.nextID {
			b.nextID = l.ID + 1
		}
	}
	return nil
}

// InsertMany appends a discovery batch to the board. Leads arriving with
// a zero or already-taken id get a fresh one; existing leads are never
// overwritten. Returns the inserted leads with their final ids.
func (b *Board) InsertMany(ctx context.Context, incoming []model.Lead) []model.Lead {
	now := b.clock()

	b.mu.Lock()
	inserted := make([]model.Lead, 0, len(incoming))
	for i := range incoming {
		l := incoming[i].Clone()
		if l.ID <= 0 || b.byID[l.ID] != nil {
			l.ID = b.nextID
		}
		if l.ID >= b.nextID {
			b.nextID = l.ID + 1
		}
		if !l.Phase.Valid() {
			l.Phase = model.PhaseScan
		}
		if l.Status == "" {
			l.Status = model.StatusIdle
		}
		if l.FirstSeenAt.IsZero() {
			l.FirstSeenAt = now
		}
		if l.PhaseChangedAt.IsZero() {
			l.PhaseChangedAt = now
		}
		if l.LastTouchAt.IsZero() {
			l.LastTouchAt = now
		}

		b.leads = append(b.leads, &l)
		b.byID[l.ID] = &l
		inserted = append(inserted, l.Clone())
	}
	b.mu.Unlock()

	b.save(ctx)
	return inserted
}

// Get returns a snapshot of one lead.
func (b *Board) Get(id int64) (model.Lead, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.byID[id]
	if !ok {
		return model.Lead{}, eris.Wrapf(model.ErrLeadNotFound, "id %d", id)
	}
	return l.Clone(), nil
}

// List returns snapshots of all leads in display order.
func (b *Board) List() []model.Lead {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Lead, len(b.leads))
	for i, l := range b.leads {
		out[i] = l.Clone()
	}
	return out
}

// Len returns the number of leads on the board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.leads)
}

// ByPhase returns a view of the leads currently in the given phase, in
// display order. The sequence reads the live collection each time it is
// ranged over, so re-iterating reflects phase changes made in between.
func (b *Board) ByPhase(phase model.Phase) iter.Seq[model.Lead] {
	return func(yield func(model.Lead) bool) {
		b.mu.RLock()
		matched := make([]model.Lead, 0)
		for _, l := range b.leads {
			if l.Phase == phase {
				matched = append(matched, l.Clone())
			}
		}
		b.mu.RUnlock()

		for _, l := range matched {
			if !yield(l) {
				return
			}
		}
	}
}

// Heat classifies a lead's urgency at the current instant. Derived on
// every call, never stored.
func (b *Board) Heat(id int64) (model.Heat, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.byID[id]
	if !ok {
		return "", eris.Wrapf(model.ErrLeadNotFound, "id %d", id)
	}
	return heat.Classify(l, b.clock()), nil
}

// Advance moves a lead to its next phase. Entering STRATEGIZE notifies
// the strategy listener.
func (b *Board) Advance(ctx context.Context, id int64) (model.Lead, error) {
	now := b.clock()

	b.mu.Lock()
	l, ok := b.byID[id]
	if !ok {
		b.mu.Unlock()
		return model.Lead{}, eris.Wrapf(model.ErrLeadNotFound, "id %d", id)
	}
	if err := lifecycle.Advance(l, now); err != nil {
		b.mu.Unlock()
		return model.Lead{}, err
	}
	snap := l.Clone()
	b.mu.Unlock()

	b.save(ctx)
	if b.notifier != nil && snap.Phase == model.PhaseStrategize {
		b.notifier.StrategizeEntered(snap)
	}
	return snap, nil
}

// AssignPhase sets a lead's phase directly (administrative correction).
func (b *Board) AssignPhase(ctx context.Context, id int64, phase model.Phase) (model.Lead, error) {
	now := b.clock()

	b.mu.Lock()
	l, ok := b.byID[id]
	if !ok {
		b.mu.Unlock()
		return model.Lead{}, eris.Wrapf(model.ErrLeadNotFound, "id %d", id)
	}
	if err := lifecycle.AssignPhase(l, phase, now); err != nil {
		b.mu.Unlock()
		return model.Lead{}, err
	}
	snap := l.Clone()
	b.mu.Unlock()

	b.save(ctx)
	if b.notifier != nil && snap.Phase == model.PhaseStrategize {
		b.notifier.StrategizeEntered(snap)
	}
	return snap, nil
}

// Reorder splices the source lead out of the display order and reinserts
// it immediately before the target's original position. Purely an
// ordering operation: no phase, score, or timestamp changes. A self-move
// is a no-op.
func (b *Board) Reorder(ctx context.Context, sourceID, targetID int64) error {
	if sourceID == targetID {
		return nil
	}

	b.mu.Lock()
	srcIdx, tgtIdx := -1, -1
	for i, l := range b.leads {
		switch l.ID {
		case sourceID:
			srcIdx = i
		case targetID:
			tgtIdx = i
		}
	}
	if srcIdx < 0 {
		b.mu.Unlock()
		return eris.Wrapf(model.ErrLeadNotFound, "source id %d", sourceID)
	}
	if tgtIdx < 0 {
		b.mu.Unlock()
		return eris.Wrapf(model.ErrLeadNotFound, "target id %d", targetID)
	}

	moved := b.leads[srcIdx]
	b.leads = append(b.leads[:srcIdx], b.leads[srcIdx+1:]...)
	if srcIdx < tgtIdx {
		tgtIdx--
	}
	b.leads = append(b.leads[:tgtIdx], append([]*model.Lead{moved}, b.leads[tgtIdx:]...)...)
	b.mu.Unlock()

	b.save(ctx)
	return nil
}

// RecordWon finalizes a lead as won with its deal value.
func (b *Board) RecordWon(ctx context.Context, id int64, dealValue float64) (model.Lead, error) {
	now := b.clock()

	b.mu.Lock()
	l, ok := b.byID[id]
	if !ok {
		b.mu.Unlock()
		return model.Lead{}, eris.Wrapf(model.ErrLeadNotFound, "id %d", id)
	}
	if err := lifecycle.RecordWon(l, dealValue, now); err != nil {
		b.mu.Unlock()
		return model.Lead{}, err
	}
	snap := l.Clone()
	b.mu.Unlock()

	b.save(ctx)
	return snap, nil
}

// RecordLost finalizes a lead as lost and notifies the narrative listener.
func (b *Board) RecordLost(ctx context.Context, id int64, reason string) (model.Lead, error) {
	now := b.clock()

	b.mu.Lock()
	l, ok := b.byID[id]
	if !ok {
		b.mu.Unlock()
		return model.Lead{}, eris.Wrapf(model.ErrLeadNotFound, "id %d", id)
	}
	if err := lifecycle.RecordLost(l, reason, now); err != nil {
		b.mu.Unlock()
		return model.Lead{}, err
	}
	snap := l.Clone()
	b.mu.Unlock()

	b.save(ctx)
	if b.notifier != nil {
		b.notifier.LeadLost(snap)
	}
	return snap, nil
}

// LastSaveErr returns the error from the most recent persistence attempt,
// or nil when it succeeded. A failed save never fails the operation that
// triggered it; the in-memory board stays authoritative.
func (b *Board) LastSaveErr() error {
	b.saveMu.Lock()
	defer b.saveMu.Unlock()
	return b.lastSaveErr
}

// Flush forces a save of the current board, returning the store error.
func (b *Board) Flush(ctx context.Context) error {
	b.save(ctx)
	return b.LastSaveErr()
}

func (b *Board) save(ctx context.Context) {
	snapshot := b.List()

	b.saveMu.Lock()
	defer b.saveMu.Unlock()
	if err := b.store.SaveBoard(ctx, snapshot); err != nil {
		b.lastSaveErr = err
		zap.L().Warn("board persistence degraded, serving from memory",
			zap.Int("leads", len(snapshot)),
			zap.Error(err),
		)
		return
	}
	b.lastSaveErr = nil
}

// Scoring uses the same derivation everywhere a sub-score changes.
func recompute(l *model.Lead) {
	conf := l.Diagnostics.Confidence
	l.Diagnostics = scoring.Compute(l.Diagnostics.SubScores, &conf)
}
