// Package snapshot holds the value types a Fetcher yields from a syndication
// document. Snapshots are owned by their caller and discarded after ingestion;
// they are never persisted directly, only translated into entity rows.
package snapshot

import "time"

// missingField is substituted for any string field the source document omits.
const missingField = "-"

// MissingField returns the placeholder used for absent string fields.
func MissingField() string {
	return missingField
}

// Feed is the normalised representation of a syndication feed's channel-level
// metadata, keyed by the URL the Fetcher was asked to retrieve rather than
// any self-link the document itself declares.
type Feed struct {
	Link          string
	Title         string
	Lang          string
	CopyrightText string
	Description   string
	Category      string
	Postings      []Posting
}

// Posting is the normalised representation of a single feed entry.
type Posting struct {
	Link        string
	Title       string
	Description string
	Author      string
	PublishedAt time.Time
}
