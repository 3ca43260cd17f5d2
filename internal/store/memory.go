package store

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadops-cli/internal/model"
)

// MemoryStore keeps the board snapshot in process memory. It is the
// default backend for tests and for sessions that opt out of persistence.
type MemoryStore struct {
	mu    sync.Mutex
	board []model.Lead
	saved bool

	// FailSaves forces SaveBoard to error, for exercising the board's
	// degraded-persistence path in tests.
	FailSaves bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadBoard(_ context.Context) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, nil
	}
	out := make([]model.Lead, len(s.board))
	for i := range s.board {
		out[i] = s.board[i].Clone()
	}
	return out, nil
}

func (s *MemoryStore) SaveBoard(_ context.Context, leads []model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSaves {
		return eris.New("memory: saves disabled")
	}
	board := make([]model.Lead, len(leads))
	for i := range leads {
		board[i] = leads[i].Clone()
	}
	s.board = board
	s.saved = true
	return nil
}

func (s *MemoryStore) Migrate(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
