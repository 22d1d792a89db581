package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Warmer precomputes results for a set of symbols
type Warmer interface {
	Warm(ctx context.Context, symbols []string) (int, error)
}

// SymbolLister supplies the symbols to warm when no watchlist is configured
type SymbolLister interface {
	Symbols(ctx context.Context) ([]string, error)
}

// Scheduler runs the cache warm-up on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	warmer    Warmer
	lister    SymbolLister
	watchlist []string
	timeout   time.Duration
	ctx       context.Context
}

// New creates a Scheduler. An empty watchlist warms every symbol lister
// reports. Jobs run under ctx.
func New(ctx context.Context, warmer Warmer, lister SymbolLister, watchlist []string) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		warmer:    warmer,
		lister:    lister,
		watchlist: watchlist,
		timeout:   10 * time.Minute,
		ctx:       ctx,
	}
}

// Register adds the warm-up job on spec, a six-field cron expression
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register warm-up task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the warm-up immediately and returns how many symbols
// were warmed
func (s *Scheduler) RunNow() int {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	symbols := s.watchlist
	if len(symbols) == 0 && s.lister != nil {
		all, err := s.lister.Symbols(ctx)
		if err != nil {
			log.Error().Err(err).Msg("warm-up: failed to list symbols")
			return 0
		}
		symbols = all
	}
	if len(symbols) == 0 {
		log.Debug().Msg("warm-up: nothing to warm")
		return 0
	}

	started := time.Now()
	warmed, err := s.warmer.Warm(ctx, symbols)
	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Int("symbols", len(symbols)).
		Int("warmed", warmed).
		Dur("took", time.Since(started)).
		Msg("cache warm-up finished")
	return warmed
}
