package follow

import (
	"context"
	"fmt"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"
)

// Ingestor fetches and materialises a single feed URL.
type Ingestor interface {
	Ingest(ctx context.Context, url string) (int64, error)
}

// Service implements the user-facing follow/read-tracking operations. Every
// method runs its own Store calls; multi-statement consistency (e.g. the
// read-row cleanup on unfollow) is the Store's responsibility.
type Service struct {
	Store    repository.Store
	Ingestor Ingestor
}

// New returns a Service backed by store and ingestor.
func New(store repository.Store, ingestor Ingestor) *Service {
	return &Service{Store: store, Ingestor: ingestor}
}

// Follow subscribes username to the feed at link. If the user already
// follows a feed with that link, the existing feed is returned unchanged
// and no fetch is performed. Otherwise Ingestor is invoked; on Ingestor
// failure ErrIngestFailed is returned.
func (s *Service) Follow(ctx context.Context, username, link string) (*entity.Feed, error) {
	user, err := s.Store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("follow: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if existing, err := s.Store.GetFeedByLink(ctx, link); err != nil {
		return nil, fmt.Errorf("follow: %w", err)
	} else if existing != nil {
		following, err := s.Store.IsFollowing(ctx, user.PK, existing.PK)
		if err != nil {
			return nil, fmt.Errorf("follow: %w", err)
		}
		if following {
			return s.Store.GetFeedByPK(ctx, existing.PK)
		}
	}

	feedPK, err := s.Ingestor.Ingest(ctx, link)
	if err != nil {
		return nil, ErrIngestFailed
	}

	if err := s.Store.Follow(ctx, user.PK, feedPK); err != nil {
		return nil, fmt.Errorf("follow: %w", err)
	}

	return s.Store.GetFeedByPK(ctx, feedPK)
}

// Unfollow removes username's subscription to the feed at link, along with
// every read row the user holds on that feed's postings. It reports false,
// without error, if the user or feed does not exist.
func (s *Service) Unfollow(ctx context.Context, username, link string) (bool, error) {
	user, err := s.Store.GetUserByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("unfollow: %w", err)
	}
	if user == nil {
		return false, nil
	}

	feed, err := s.Store.GetFeedByLink(ctx, link)
	if err != nil {
		return false, fmt.Errorf("unfollow: %w", err)
	}
	if feed == nil {
		return false, nil
	}

	if err := s.Store.Unfollow(ctx, user.PK, feed.PK); err != nil {
		return false, fmt.Errorf("unfollow: %w", err)
	}
	return true, nil
}

// MarkRead marks the posting at postingLink as read for username. It
// requires the user and posting to exist and the user to currently follow
// the posting's feed; any failing check reports false without error.
func (s *Service) MarkRead(ctx context.Context, username, postingLink string) (bool, error) {
	user, err := s.Store.GetUserByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("mark_read: %w", err)
	}
	if user == nil {
		return false, nil
	}

	posting, err := s.Store.GetPostingByLink(ctx, postingLink)
	if err != nil {
		return false, fmt.Errorf("mark_read: %w", err)
	}
	if posting == nil {
		return false, nil
	}

	following, err := s.Store.IsFollowing(ctx, user.PK, posting.FeedID)
	if err != nil {
		return false, fmt.Errorf("mark_read: %w", err)
	}
	if !following {
		return false, nil
	}

	if err := s.Store.MarkRead(ctx, user.PK, posting.PK); err != nil {
		return false, fmt.Errorf("mark_read: %w", err)
	}
	return true, nil
}

// MarkUnread marks the posting at postingLink as unread for username. It
// requires the user and posting to exist; any failing check reports false
// without error.
//
// The read row deleted is scoped to exactly (user, posting) — unlike the
// unscoped by-link deletion this operation's name might suggest, which
// would incorrectly clear every user's read state for any posting sharing
// that link history. See mark_unread's Store contract.
func (s *Service) MarkUnread(ctx context.Context, username, postingLink string) (bool, error) {
	user, err := s.Store.GetUserByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("mark_unread: %w", err)
	}
	if user == nil {
		return false, nil
	}

	posting, err := s.Store.GetPostingByLink(ctx, postingLink)
	if err != nil {
		return false, fmt.Errorf("mark_unread: %w", err)
	}
	if posting == nil {
		return false, nil
	}

	if err := s.Store.MarkUnread(ctx, user.PK, posting.PK); err != nil {
		return false, fmt.Errorf("mark_unread: %w", err)
	}
	return true, nil
}

// FilterPostings lists postings from feeds username follows, optionally
// narrowed to a single feed link and a read/unread state, ordered and
// paginated per filter.
func (s *Service) FilterPostings(ctx context.Context, username string, filter repository.PostingFilter) ([]entity.Posting, error) {
	user, err := s.Store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("filter_postings: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	filter.UserPK = user.PK
	postings, err := s.Store.FilterPostings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("filter_postings: %w", err)
	}
	return postings, nil
}

// ForceUpdate re-fetches the feed at link regardless of its current active
// state and ensures username follows it. It reports false, without error,
// on Ingestor failure.
func (s *Service) ForceUpdate(ctx context.Context, username, link string) (bool, error) {
	user, err := s.Store.GetUserByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("force_update: %w", err)
	}
	if user == nil {
		return false, nil
	}

	feedPK, err := s.Ingestor.Ingest(ctx, link)
	if err != nil {
		return false, nil
	}

	if err := s.Store.Follow(ctx, user.PK, feedPK); err != nil {
		return false, fmt.Errorf("force_update: %w", err)
	}
	return true, nil
}
