// Package store persists the board snapshot. The board is the single
// core-owned piece of state: one key holding the full lead collection as
// a JSON array. Backends differ only in where that key lives.
package store

import (
	"context"

	"github.com/sells-group/leadops-cli/internal/model"
)

// BoardKey is the single key under which the lead collection is stored.
const BoardKey = "board"

// Store defines the persistence boundary for the lead board.
// LoadBoard returns (nil, nil) when no snapshot has been saved yet.
type Store interface {
	LoadBoard(ctx context.Context) ([]model.Lead, error)
	SaveBoard(ctx context.Context, leads []model.Lead) error
	Migrate(ctx context.Context) error
	Close() error
}
