// Package refresh drives the per-feed retry-with-backoff refresh cycle and
// the sweep loop that schedules it.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/observability/metrics"
	"feedkeep/internal/repository"
)

// backoffSchedule holds the sleep applied after each failed attempt,
// indexed by attempt number (0-based).
var backoffSchedule = [3]time.Duration{2 * time.Minute, 5 * time.Minute, 8 * time.Minute}

// Ingestor fetches and materialises a single feed URL.
type Ingestor interface {
	Ingest(ctx context.Context, url string) (int64, error)
}

// Task is the per-feed refresh state machine for one sweep: up to three
// fetch attempts on a 2/5/8-minute backoff schedule, deactivating the feed
// after the first failed attempt and reactivating it on success. A Task instance is single-use; a new one is
// created per feed per sweep.
type Task struct {
	feedPK   int64
	feedLink string
	ingestor Ingestor
	store    repository.Store
}

// New returns a Task for the given feed.
func New(feedPK int64, feedLink string, ingestor Ingestor, store repository.Store) *Task {
	return &Task{feedPK: feedPK, feedLink: feedLink, ingestor: ingestor, store: store}
}

// Run drives the task to completion: Succeeded (feed reactivated) or
// Abandoned (feed left inactive after the third failed attempt). It returns
// early, without error, if ctx is cancelled during a backoff sleep or fetch.
// A Store error during upsert or activation propagates and ends the Task
// immediately, leaving the feed's activation state as it was at that point.
func (t *Task) Run(ctx context.Context) error {
	for attempt, failSleep := range backoffSchedule {
		_, err := t.ingestor.Ingest(ctx, t.feedLink)
		if err == nil {
			metrics.RecordTaskOutcome(attempt+1, "success")
			if err := t.store.SetFeedActive(ctx, t.feedPK, true); err != nil {
				return err
			}
			return nil
		}

		if !errors.Is(err, entity.ErrFetchFailure) {
			// A Store error during ingest's upsert: propagate, no further retry.
			metrics.RecordTaskOutcome(attempt+1, "store_error")
			return err
		}

		result := "retry"
		if attempt == len(backoffSchedule)-1 {
			result = "failure"
		}
		metrics.RecordTaskOutcome(attempt+1, result)

		slog.Warn("feed refresh attempt failed",
			slog.Int64("feed_pk", t.feedPK),
			slog.String("feed_link", t.feedLink),
			slog.Int("attempt", attempt+1))

		if attempt == 0 {
			if err := t.store.SetFeedActive(ctx, t.feedPK, false); err != nil {
				return err
			}
		}

		// After the third failed attempt this sleep is followed by no
		// further attempt; Run simply returns once it ends.
		if err := sleepOrCancel(ctx, failSleep); err != nil {
			return nil
		}
	}

	return nil
}

// sleepOrCancel sleeps for d or returns ctx.Err() if ctx is cancelled first.
func sleepOrCancel(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
