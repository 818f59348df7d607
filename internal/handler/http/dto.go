package http

import (
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"
)

// feedSummaryDTO is the {title, link} projection embedded in a user's
// followed-feeds listing.
type feedSummaryDTO struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// userDTO is the {username, followed_feeds} shape returned by list_users.
type userDTO struct {
	Username      string           `json:"username"`
	FollowedFeeds []feedSummaryDTO `json:"followed_feeds"`
}

func newUserDTO(u repository.UserWithFeeds) userDTO {
	feeds := make([]feedSummaryDTO, 0, len(u.FollowedFeeds))
	for _, f := range u.FollowedFeeds {
		feeds = append(feeds, feedSummaryDTO{Title: f.Title, Link: f.Link})
	}
	return userDTO{Username: u.Username, FollowedFeeds: feeds}
}

// feedDTO is the feed shape returned by follow.
type feedDTO struct {
	PK            int64     `json:"pk"`
	Link          string    `json:"link"`
	Title         string    `json:"title"`
	Lang          string    `json:"lang"`
	CopyrightText string    `json:"copyright_text"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
	Active        bool      `json:"active"`
}

func newFeedDTO(f *entity.Feed) feedDTO {
	return feedDTO{
		PK:            f.PK,
		Link:          f.Link,
		Title:         f.Title,
		Lang:          f.Lang,
		CopyrightText: f.CopyrightText,
		Description:   f.Description,
		Category:      f.Category,
		CreatedAt:     f.CreatedAt,
		Active:        f.Active,
	}
}

// postingDTO is a single entry in filter_postings' response.
type postingDTO struct {
	PK          int64     `json:"pk"`
	Link        string    `json:"link"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	FeedID      int64     `json:"feed_id"`
}

func newPostingDTO(p entity.Posting) postingDTO {
	return postingDTO{
		PK:          p.PK,
		Link:        p.Link,
		Title:       p.Title,
		Description: p.Description,
		Author:      p.Author,
		PublishedAt: p.PublishedAt,
		UpdatedAt:   p.UpdatedAt,
		FeedID:      p.FeedID,
	}
}

// createUserRequest is the body of POST /v1.0/users/.
type createUserRequest struct {
	Username string `json:"username"`
}

// followRequest is the body of POST /v1.0/feeds/follow, DELETE
// /v1.0/feeds/unfollow, and POST /v1.0/feeds/feed/force-update.
type followRequest struct {
	Username string `json:"username"`
	Link     string `json:"link"`
}

// postingActionRequest is the body of the mark_read/mark_unread endpoints.
type postingActionRequest struct {
	Username string `json:"username"`
	Link     string `json:"link"`
}
