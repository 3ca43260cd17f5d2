package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadops-cli/internal/board"
	"github.com/sells-group/leadops-cli/internal/fetcher"
	"github.com/sells-group/leadops-cli/internal/forge"
	"github.com/sells-group/leadops-cli/internal/store"
	anthropicpkg "github.com/sells-group/leadops-cli/pkg/anthropic"
)

// boardEnv holds the initialized store, board, and optional forge
// dispatcher needed by the lead commands.
type boardEnv struct {
	Store      store.Store
	Board      *board.Board
	Dispatcher *forge.Dispatcher // nil when anthropic.key is unset
}

// Close drains in-flight forge work and releases the store.
func (be *boardEnv) Close() {
	if be.Dispatcher != nil {
		be.Dispatcher.Wait()
	}
	if be.Board != nil {
		if err := be.Board.Flush(context.Background()); err != nil {
			zap.L().Warn("final board flush failed", zap.Error(err))
		}
	}
	if be.Store != nil {
		_ = be.Store.Close()
	}
}

// initStore builds the persistence backend selected by cfg.Store.Driver.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "leadops.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "redis":
		return store.NewRedis(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initBoard sets up the store, loads the saved board, and wires the forge
// dispatcher when an Anthropic key is configured. Callers should defer
// env.Close().
func initBoard(ctx context.Context) (*boardEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var opts []board.Option
	var dispatcher *forge.Dispatcher

	if cfg.Anthropic.Key != "" {
		ai := anthropicpkg.NewClient(cfg.Anthropic.Key)
		gen := forge.NewClaudeGenerator(ai, cfg.Anthropic.SonnetModel, cfg.Forge.Version)
		siteFetcher := fetcher.New(cfg.Discovery.FetchRatePerSec)
		timeout := time.Duration(cfg.Forge.TimeoutSecs) * time.Second

		dispatcher = forge.NewDispatcher(gen, siteFetcher, timeout)
		opts = append(opts, board.WithNotifier(dispatcher))
		zap.L().Info("forge dispatcher enabled", zap.Int("generator_version", cfg.Forge.Version))
	} else {
		zap.L().Debug("LEADOPS_ANTHROPIC_KEY not set, strategy generation disabled")
	}

	b := board.New(st, opts...)
	if err := b.Load(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load board")
	}

	if dispatcher != nil {
		dispatcher.Bind(b)
	}

	return &boardEnv{Store: st, Board: b, Dispatcher: dispatcher}, nil
}
