package refresh_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"
	"feedkeep/internal/usecase/refresh"
)

type countingIngestor struct {
	calls int32
}

func (c *countingIngestor) Ingest(ctx context.Context, url string) (int64, error) {
	atomic.AddInt32(&c.calls, 1)
	return 1, nil
}

type sweepStore struct {
	repository.Store
	mu    sync.Mutex
	feeds []repository.ActiveFeedRef
}

func (s *sweepStore) ListActiveFeeds(ctx context.Context) ([]repository.ActiveFeedRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds, nil
}

func (s *sweepStore) SetFeedActive(ctx context.Context, pk int64, active bool) error {
	return nil
}

func TestScheduler_Start_SpawnsOneTaskPerActiveFeed(t *testing.T) {
	store := &sweepStore{feeds: []repository.ActiveFeedRef{
		{PK: 1, Link: "http://x/a", Active: true},
		{PK: 2, Link: "http://x/b", Active: true},
	}}
	ingestor := &countingIngestor{}

	sched := refresh.NewScheduler(store, ingestor, time.Hour)
	if err := sched.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sched.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if got := atomic.LoadInt32(&ingestor.calls); got != 2 {
		t.Errorf("ingest calls = %d, want 2", got)
	}
}

func TestScheduler_Start_NoActiveFeedsSpawnsNothing(t *testing.T) {
	store := &sweepStore{}
	ingestor := &countingIngestor{}

	sched := refresh.NewScheduler(store, ingestor, time.Hour)
	if err := sched.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := sched.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if got := atomic.LoadInt32(&ingestor.calls); got != 0 {
		t.Errorf("ingest calls = %d, want 0", got)
	}
}

type alwaysFailIngestor struct{}

func (alwaysFailIngestor) Ingest(ctx context.Context, url string) (int64, error) {
	return 0, entity.ErrFetchFailure
}

func TestScheduler_Shutdown_CancelsInFlightTasks(t *testing.T) {
	store := &sweepStore{feeds: []repository.ActiveFeedRef{
		{PK: 1, Link: "http://x/a", Active: true},
	}}
	ingestor := alwaysFailIngestor{}

	sched := refresh.NewScheduler(store, ingestor, time.Hour)
	if err := sched.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	start := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sched.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Shutdown should cancel the task's backoff sleep rather than waiting it out")
	}
}
