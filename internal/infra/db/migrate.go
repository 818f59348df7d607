package db

import "database/sql"

// MigrateUp creates the schema: users, feeds, postings, and the follow/read
// junction tables. All statements are idempotent so MigrateUp is safe to run
// on every boot.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id       BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feeds (
    id             BIGSERIAL PRIMARY KEY,
    link           TEXT NOT NULL UNIQUE,
    title          TEXT NOT NULL DEFAULT '-',
    lang           TEXT NOT NULL DEFAULT '-',
    copyright_text TEXT NOT NULL DEFAULT '-',
    description    TEXT NOT NULL DEFAULT '-',
    category       TEXT NOT NULL DEFAULT '-',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    active         BOOLEAN NOT NULL DEFAULT TRUE
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS postings (
    id           BIGSERIAL PRIMARY KEY,
    feed_id      BIGINT NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    link         TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL DEFAULT '-',
    description  TEXT NOT NULL DEFAULT '-',
    author       TEXT NOT NULL DEFAULT '-',
    published_at TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS follows (
    user_pk BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    feed_pk BIGINT NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    PRIMARY KEY (user_pk, feed_pk)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS reads (
    user_pk    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    posting_pk BIGINT NOT NULL REFERENCES postings(id) ON DELETE CASCADE,
    PRIMARY KEY (user_pk, posting_pk)
)`); err != nil {
		return err
	}

	indexes := []string{
		// Scheduler sweeps active feeds every tick.
		`CREATE INDEX IF NOT EXISTS idx_feeds_active ON feeds(active) WHERE active = TRUE`,
		// filter_postings orders and joins on these.
		`CREATE INDEX IF NOT EXISTS idx_postings_feed_id ON postings(feed_id)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_updated_at ON postings(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_follows_feed_pk ON follows(feed_pk)`,
		`CREATE INDEX IF NOT EXISTS idx_reads_posting_pk ON reads(posting_pk)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops every table this package creates, in dependency order.
// Use with caution: this deletes all data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS reads CASCADE`,
		`DROP TABLE IF EXISTS follows CASCADE`,
		`DROP TABLE IF EXISTS postings CASCADE`,
		`DROP TABLE IF EXISTS feeds CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
