// Package repository defines the persistence contract the core components
// depend on. Concrete implementations live under internal/infra/adapter/persistence.
package repository

import (
	"context"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/domain/snapshot"
)

// OrderDirection selects the sort direction for paginated posting queries.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// ActiveFeedRef is the lightweight projection the Scheduler needs to spawn a
// Task per feed without loading the feed's full posting graph.
type ActiveFeedRef struct {
	PK     int64
	Link   string
	Active bool
}

// FeedSummary is the minimal feed projection embedded in a user's followed-feeds listing.
type FeedSummary struct {
	Title string
	Link  string
}

// UserWithFeeds pairs a user with the feeds they currently follow.
type UserWithFeeds struct {
	Username      string
	FollowedFeeds []FeedSummary
}

// PostingFilter describes a filter_postings query: restricted to feeds the
// given user follows, optionally intersected with a single feed link and a
// read/unread state, ordered by updated_at and paginated.
type PostingFilter struct {
	UserPK   int64
	FeedLink string // empty means no feed restriction
	IsRead   *bool  // nil means no read-state restriction
	Order    OrderDirection
	Offset   int
	Limit    int
}

// Store is the persistence boundary for the entire domain: users, feeds,
// postings, and the follow/read junction relations. All multi-statement
// operations are transactional; single-statement operations rely on the
// database's own atomicity.
type Store interface {
	// UpsertFeedWithPostings upserts the feed keyed by link, then each of its
	// postings keyed by link, in a single transaction. Returns the feed's pk.
	UpsertFeedWithPostings(ctx context.Context, feed *snapshot.Feed) (int64, error)

	// GetFeedByPK returns a feed with its postings eagerly loaded, or nil if absent.
	GetFeedByPK(ctx context.Context, pk int64) (*entity.Feed, error)

	// GetFeedByLink returns a feed by its unique link, or nil if absent.
	// Postings are not loaded.
	GetFeedByLink(ctx context.Context, link string) (*entity.Feed, error)

	// ListActiveFeeds returns every feed currently marked active.
	ListActiveFeeds(ctx context.Context) ([]ActiveFeedRef, error)

	// SetFeedActive updates a feed's active flag. Idempotent; a no-op if
	// the feed does not exist.
	SetFeedActive(ctx context.Context, pk int64, active bool) error

	// GetUserByUsername returns a user by username, or nil if absent.
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)

	// CreateUser inserts a new user. Returns entity.ErrAlreadyExists on a
	// unique-constraint violation.
	CreateUser(ctx context.Context, username string) (*entity.User, error)

	// ListUsers returns a page of users with their followed feeds eagerly loaded.
	ListUsers(ctx context.Context, offset, limit int) ([]UserWithFeeds, error)

	// Follow inserts a follow relation, conflict-ignore (idempotent).
	Follow(ctx context.Context, userPK, feedPK int64) error

	// Unfollow removes the follow relation and every read row the user holds
	// on that feed's postings, in a single transaction.
	Unfollow(ctx context.Context, userPK, feedPK int64) error

	// IsFollowing reports whether the user currently follows the feed.
	IsFollowing(ctx context.Context, userPK, feedPK int64) (bool, error)

	// GetPostingByLink returns a posting by its unique link, or nil if absent.
	GetPostingByLink(ctx context.Context, link string) (*entity.Posting, error)

	// MarkRead inserts a read row, conflict-ignore (idempotent).
	MarkRead(ctx context.Context, userPK, postingPK int64) error

	// MarkUnread deletes the read row for exactly this (user, posting) pair.
	MarkUnread(ctx context.Context, userPK, postingPK int64) error

	// FilterPostings returns postings restricted to feeds the user follows,
	// further filtered and paginated per the given PostingFilter.
	FilterPostings(ctx context.Context, filter PostingFilter) ([]entity.Posting, error)
}
