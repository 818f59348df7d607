package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feedkeep/internal/observability/metrics"
	"feedkeep/internal/repository"

	"github.com/robfig/cron/v3"
)

// DefaultInterval is the sweep interval applied when none is configured.
const DefaultInterval = 3000 * time.Second

// Scheduler is the long-running sweep loop: on every tick it lists active
// feeds and spawns one Task per feed, without awaiting them. Tasks spawned
// in one sweep may still be retrying when later sweeps fire; a feed is not
// re-enqueued until its Task reactivates it and a new sweep begins.
type Scheduler struct {
	store    repository.Store
	ingestor Ingestor
	interval time.Duration

	cronSched *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewScheduler returns a Scheduler that sweeps store's active feeds every
// interval, running each feed's refresh through ingestor.
func NewScheduler(store repository.Store, ingestor Ingestor, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:     store,
		ingestor:  ingestor,
		interval:  interval,
		cronSched: cron.New(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs an immediate sweep and schedules subsequent sweeps at the
// configured interval.
func (s *Scheduler) Start() error {
	s.sweep()

	spec := fmt.Sprintf("@every %ds", int(s.interval.Seconds()))
	if _, err := s.cronSched.AddFunc(spec, s.sweep); err != nil {
		return fmt.Errorf("scheduler: schedule sweep: %w", err)
	}
	s.cronSched.Start()
	return nil
}

// sweep lists every active feed and spawns a Task for each, concurrently and
// without waiting for any of them to finish.
func (s *Scheduler) sweep() {
	feeds, err := s.store.ListActiveFeeds(s.ctx)
	if err != nil {
		slog.Error("scheduler: list active feeds failed", slog.Any("error", err))
		return
	}

	slog.Info("scheduler: sweep started", slog.Int("feeds", len(feeds)))
	metrics.RecordSweep(len(feeds))
	metrics.FeedsActive.Set(float64(len(feeds)))
	for _, feed := range feeds {
		s.wg.Add(1)
		go func(feed repository.ActiveFeedRef) {
			defer s.wg.Done()
			task := New(feed.PK, feed.Link, s.ingestor, s.store)
			if err := task.Run(s.ctx); err != nil {
				slog.Error("scheduler: task failed",
					slog.Int64("feed_pk", feed.PK),
					slog.String("feed_link", feed.Link),
					slog.Any("error", err))
			}
		}(feed)
	}
}

// Shutdown cancels the sweep loop and every in-flight Task, then waits for
// them to terminate or ctx to expire, whichever comes first.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.cronSched.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
