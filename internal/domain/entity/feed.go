package entity

import "time"

// Feed is a subscribed syndication source identified by its globally unique link.
// Active toggles under Task's control: a fetch failure deactivates the feed so the
// Scheduler stops re-enqueueing it; a later success or a force-update reactivates it.
type Feed struct {
	PK            int64
	Link          string
	Title         string
	Lang          string
	CopyrightText string
	Description   string
	Category      string
	CreatedAt     time.Time
	Active        bool
	Postings      []Posting
}

// Posting is a single entry within a Feed, identified by its globally unique link.
// UpdatedAt advances on every upsert, independent of whether any user has read it.
type Posting struct {
	PK          int64
	Link        string
	Title       string
	Description string
	Author      string
	PublishedAt time.Time
	UpdatedAt   time.Time
	FeedID      int64
}
