// Package fetcher retrieves and parses remote syndication feeds.
// It wraps the gofeed library with circuit breaker and retry logic so a
// single slow or broken upstream cannot stall the caller indefinitely.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/domain/snapshot"
	"feedkeep/internal/resilience/circuitbreaker"
	"feedkeep/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

// fetchTimeout bounds a single parse attempt so a dead upstream cannot
// block a Task indefinitely.
const fetchTimeout = 30 * time.Second

// maxBodySize caps how much of a feed document we read into memory.
const maxBodySize = 10 * 1024 * 1024 // 10MB

// Fetcher retrieves the syndication document at a URL and normalises it
// into a FeedSnapshot. All transport, HTTP-status, and parse failures are
// folded into a single entity.ErrFetchFailure; callers never see the
// underlying error kind.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*snapshot.Feed, error)
}

// GofeedFetcher implements Fetcher using the gofeed library, guarded by a
// circuit breaker and an exponential-backoff retry loop.
type GofeedFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// New creates a GofeedFetcher using the given HTTP client. It configures
// circuit breaker and retry behaviour tuned for RSS/Atom fetching.
func New(client *http.Client) *GofeedFetcher {
	return &GofeedFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch retrieves and parses the feed at url, returning a normalised snapshot.
func (f *GofeedFetcher) Fetch(ctx context.Context, url string) (*snapshot.Feed, error) {
	var parsed *gofeed.Feed

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, url)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("url", url),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		parsed = result.(*gofeed.Feed)
		return nil
	})

	if retryErr != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrFetchFailure, url)
	}

	return normalize(url, parsed), nil
}

// doFetch performs a single unguarded fetch-and-parse attempt. It fetches
// the document itself, rather than delegating to gofeed's ParseURLWithContext,
// so that a non-2xx response can be surfaced as a *retry.HTTPError — the
// retry loop only retries 5xx/429/408 responses, and needs the status code
// to tell those apart from a permanent 4xx failure.
func (f *GofeedFetcher) doFetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "feedkeep/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, errors.New("empty feed document")
	}
	return feed, nil
}

// normalize converts a parsed gofeed document into a FeedSnapshot. The
// requested URL, not any self-link in the document, becomes the feed's
// link identity; missing string fields default to "-".
func normalize(requestedURL string, feed *gofeed.Feed) *snapshot.Feed {
	s := &snapshot.Feed{
		Link:          requestedURL,
		Title:         orDash(feed.Title),
		Lang:          orDash(feed.Language),
		CopyrightText: orDash(feed.Copyright),
		Description:   orDash(feed.Description),
		Category:      orDash(firstCategory(feed.Categories)),
		Postings:      make([]snapshot.Posting, 0, len(feed.Items)),
	}

	for _, item := range feed.Items {
		publishedAt := time.Now().UTC()
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		}

		s.Postings = append(s.Postings, snapshot.Posting{
			Link:        orDash(item.Link),
			Title:       orDash(item.Title),
			Description: orDash(item.Description),
			Author:      orDash(authorName(item)),
			PublishedAt: publishedAt,
		})
	}

	return s
}

func orDash(v string) string {
	if v == "" {
		return snapshot.MissingField()
	}
	return v
}

func firstCategory(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	return categories[0]
}

func authorName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	if len(item.Authors) > 0 && item.Authors[0].Name != "" {
		return item.Authors[0].Name
	}
	return ""
}
