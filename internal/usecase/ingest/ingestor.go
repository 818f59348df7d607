// Package ingest composes Fetcher and Store into a single feed refresh step.
package ingest

import (
	"context"
	"fmt"
	"time"

	"feedkeep/internal/domain/snapshot"
	"feedkeep/internal/observability/metrics"
	"feedkeep/internal/repository"
)

// Fetcher retrieves and normalises the syndication document at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*snapshot.Feed, error)
}

// Ingestor fetches a single feed URL and materialises it into the Store.
// It holds no state of its own; every call is independent.
type Ingestor struct {
	fetcher Fetcher
	store   repository.Store
}

// New returns an Ingestor backed by the given Fetcher and Store.
func New(fetcher Fetcher, store repository.Store) *Ingestor {
	return &Ingestor{fetcher: fetcher, store: store}
}

// Ingest fetches url and upserts the resulting feed and its postings,
// returning the feed's pk on success.
//
// On fetch failure the returned error wraps entity.ErrFetchFailure and the
// Store is never touched. A Store error during upsert is returned wrapped,
// distinguishable from a fetch failure by callers that need to treat the two
// differently (Task retries on fetch failure but terminates on a Store error).
func (i *Ingestor) Ingest(ctx context.Context, url string) (int64, error) {
	start := time.Now()

	feed, err := i.fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.RecordIngestDuration("fetch_failure", time.Since(start))
		return 0, err
	}

	pk, err := i.store.UpsertFeedWithPostings(ctx, feed)
	if err != nil {
		metrics.RecordIngestDuration("store_failure", time.Since(start))
		return 0, fmt.Errorf("ingest: upsert %s: %w", url, err)
	}

	metrics.RecordIngestDuration("success", time.Since(start))
	return pk, nil
}
