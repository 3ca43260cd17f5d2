package forge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadops-cli/internal/board"
	"github.com/sells-group/leadops-cli/internal/lifecycle"
	"github.com/sells-group/leadops-cli/internal/model"
	"github.com/sells-group/leadops-cli/internal/resilience"
)

// Updater is the slice of the board the dispatcher merges results
// through. Merging via the update path keeps the version-check and
// score-resync invariants even for late-arriving results.
type Updater interface {
	UpdateLead(ctx context.Context, id int64, patch board.Patch) (model.Lead, error)
}

// ContextFetcher optionally supplies homepage text for strategy prompts.
type ContextFetcher interface {
	Homepage(ctx context.Context, website string) (string, error)
}

// Dispatcher listens to board side-effect signals and runs generations
// asynchronously. It satisfies board.Notifier.
type Dispatcher struct {
	gen     Generator
	fetcher ContextFetcher // may be nil
	updater Updater
	breaker *resilience.Breaker
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Bind must be called with the board
// before any signals arrive.
func NewDispatcher(gen Generator, fetcher ContextFetcher, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Dispatcher{
		gen:     gen,
		fetcher: fetcher,
		breaker: resilience.NewBreaker(5, 30*time.Second),
		timeout: timeout,
	}
}

// Bind attaches the board the dispatcher merges results into. Separate
// from the constructor because the board itself is constructed with the
// dispatcher as its notifier.
func (d *Dispatcher) Bind(u Updater) {
	d.updater = u
}

// StrategizeEntered implements board.Notifier. Generation only runs when
// the lead actually needs one for the current generator version.
func (d *Dispatcher) StrategizeEntered(lead model.Lead) {
	if !lifecycle.NeedsStrategy(&lead, d.gen.Version()) {
		return
	}
	d.dispatch("strategy", lead, func(ctx context.Context, log *zap.Logger) error {
		siteContext := ""
		if d.fetcher != nil && lead.Contact.Website != "" {
			text, err := d.fetcher.Homepage(ctx, lead.Contact.Website)
			if err != nil {
				log.Debug("homepage context unavailable", zap.Error(err))
			} else {
				siteContext = text
			}
		}

		payload, err := d.gen.Strategy(ctx, lead, siteContext)
		if err != nil {
			return err
		}

		_, err = d.updater.UpdateLead(ctx, lead.ID, board.Patch{Strategy: &payload})
		if eris.Is(err, model.ErrStaleStrategy) {
			log.Debug("strategy result superseded by newer version")
			return nil
		}
		return err
	})
}

// LeadLost implements board.Notifier: generate the optional recovery
// narrative and attach it.
func (d *Dispatcher) LeadLost(lead model.Lead) {
	d.dispatch("narrative", lead, func(ctx context.Context, log *zap.Logger) error {
		narrative, err := d.gen.Narrative(ctx, lead)
		if err != nil {
			return err
		}
		_, err = d.updater.UpdateLead(ctx, lead.ID, board.Patch{RecoveryNarrative: &narrative})
		return err
	})
}

func (d *Dispatcher) dispatch(kind string, lead model.Lead, run func(ctx context.Context, log *zap.Logger) error) {
	log := zap.L().With(
		zap.String("kind", kind),
		zap.Int64("lead_id", lead.ID),
		zap.String("request_id", uuid.New().String()),
	)

	if !d.breaker.Allow() {
		log.Warn("generation skipped, circuit open")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := run(ctx, log)
		d.breaker.Record(err)
		if err != nil {
			log.Warn("generation failed", zap.Error(err))
			return
		}
		log.Info("generation merged")
	}()
}

// Wait blocks until all in-flight generations finish. Used on shutdown
// and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
