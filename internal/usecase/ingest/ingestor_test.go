package ingest_test

import (
	"context"
	"errors"
	"testing"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/domain/snapshot"
	"feedkeep/internal/repository"
	"feedkeep/internal/usecase/ingest"
)

type fakeFetcher struct {
	feed *snapshot.Feed
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*snapshot.Feed, error) {
	return f.feed, f.err
}

type fakeStore struct {
	repository.Store
	upsertPK  int64
	upsertErr error
	gotFeed   *snapshot.Feed
}

func (s *fakeStore) UpsertFeedWithPostings(ctx context.Context, feed *snapshot.Feed) (int64, error) {
	s.gotFeed = feed
	return s.upsertPK, s.upsertErr
}

func TestIngestor_Ingest_Success(t *testing.T) {
	feed := &snapshot.Feed{Link: "http://x/f", Title: "F"}
	fetcher := &fakeFetcher{feed: feed}
	store := &fakeStore{upsertPK: 42}

	ing := ingest.New(fetcher, store)
	pk, err := ing.Ingest(context.Background(), "http://x/f")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if pk != 42 {
		t.Errorf("pk = %d, want 42", pk)
	}
	if store.gotFeed != feed {
		t.Error("expected upsert to receive the fetched feed")
	}
}

func TestIngestor_Ingest_FetchFailureDoesNotTouchStore(t *testing.T) {
	fetcher := &fakeFetcher{err: entity.ErrFetchFailure}
	store := &fakeStore{}

	ing := ingest.New(fetcher, store)
	_, err := ing.Ingest(context.Background(), "http://x/f")
	if !errors.Is(err, entity.ErrFetchFailure) {
		t.Fatalf("expected ErrFetchFailure, got %v", err)
	}
	if store.gotFeed != nil {
		t.Error("expected Store to never be called on fetch failure")
	}
}

func TestIngestor_Ingest_StoreErrorPropagates(t *testing.T) {
	storeErr := errors.New("connection refused")
	fetcher := &fakeFetcher{feed: &snapshot.Feed{Link: "http://x/f"}}
	store := &fakeStore{upsertErr: storeErr}

	ing := ingest.New(fetcher, store)
	_, err := ing.Ingest(context.Background(), "http://x/f")
	if err == nil || errors.Is(err, entity.ErrFetchFailure) {
		t.Fatalf("expected a non-fetch-failure error, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}
