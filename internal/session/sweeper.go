package session

import (
	"context"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/termsite/internal/foundation/errors"
)

// Sweeper runs Store.Sweep on a fixed interval.
type Sweeper struct {
	scheduler gocron.Scheduler
	store     *Store
}

// NewSweeper creates a scheduler driven by the store's clock.
func NewSweeper(store *Store) (*Sweeper, error) {
	s, err := gocron.NewScheduler(gocron.WithClock(store.opts.Clock))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "create session sweeper").Build()
	}

	_, err = s.NewJob(
		gocron.DurationJob(store.opts.SweepInterval),
		gocron.NewTask(func() { store.Sweep() }),
		gocron.WithName("session-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryInternal, "schedule session sweep").Build()
	}

	return &Sweeper{scheduler: s, store: store}, nil
}

// Start begins sweeping.
func (s *Sweeper) Start(ctx context.Context) {
	slog.Info("Starting session sweeper",
		slog.Duration("interval", s.store.opts.SweepInterval),
		slog.Duration("ttl", s.store.opts.TTL))
	s.scheduler.Start()
}

// Stop shuts the scheduler down.
func (s *Sweeper) Stop(ctx context.Context) error {
	slog.Info("Stopping session sweeper")
	return s.scheduler.Shutdown()
}
