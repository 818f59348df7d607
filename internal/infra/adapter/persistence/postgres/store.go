// Package postgres implements the repository.Store contract against a
// PostgreSQL database using database/sql and raw SQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/domain/snapshot"
	"feedkeep/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// Store implements repository.Store against a PostgreSQL database.
type Store struct{ db *sql.DB }

// New returns a Store backed by db.
func New(db *sql.DB) repository.Store {
	return &Store{db: db}
}

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

/* ──────────────────────────────── Feed ──────────────────────────────── */

func (s *Store) UpsertFeedWithPostings(ctx context.Context, feed *snapshot.Feed) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("UpsertFeedWithPostings: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsertFeed = `
INSERT INTO feeds (link, title, lang, copyright_text, description, category, created_at, active)
VALUES ($1, $2, $3, $4, $5, $6, now(), true)
ON CONFLICT (link) DO UPDATE SET
	title          = EXCLUDED.title,
	lang           = EXCLUDED.lang,
	copyright_text = EXCLUDED.copyright_text,
	description    = EXCLUDED.description,
	category       = EXCLUDED.category
RETURNING id`

	var feedPK int64
	if err := tx.QueryRowContext(ctx, upsertFeed,
		feed.Link, feed.Title, feed.Lang, feed.CopyrightText, feed.Description, feed.Category,
	).Scan(&feedPK); err != nil {
		return 0, fmt.Errorf("UpsertFeedWithPostings: upsert feed: %w", err)
	}

	const upsertPosting = `
INSERT INTO postings (link, title, description, author, published_at, updated_at, feed_id)
VALUES ($1, $2, $3, $4, $5, now(), $6)
ON CONFLICT (link) DO UPDATE SET
	title        = EXCLUDED.title,
	description  = EXCLUDED.description,
	author       = EXCLUDED.author,
	published_at = EXCLUDED.published_at,
	updated_at   = now(),
	feed_id      = EXCLUDED.feed_id`

	for _, posting := range feed.Postings {
		if _, err := tx.ExecContext(ctx, upsertPosting,
			posting.Link, posting.Title, posting.Description, posting.Author, posting.PublishedAt, feedPK,
		); err != nil {
			return 0, fmt.Errorf("UpsertFeedWithPostings: upsert posting %s: %w", posting.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("UpsertFeedWithPostings: commit: %w", err)
	}
	return feedPK, nil
}

func (s *Store) GetFeedByPK(ctx context.Context, pk int64) (*entity.Feed, error) {
	const feedQuery = `
SELECT id, link, title, lang, copyright_text, description, category, created_at, active
FROM feeds
WHERE id = $1`

	feed, err := scanFeedRow(s.db.QueryRowContext(ctx, feedQuery, pk))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetFeedByPK: %w", err)
	}

	postings, err := s.listPostingsByFeed(ctx, pk)
	if err != nil {
		return nil, fmt.Errorf("GetFeedByPK: %w", err)
	}
	feed.Postings = postings
	return feed, nil
}

func (s *Store) GetFeedByLink(ctx context.Context, link string) (*entity.Feed, error) {
	const query = `
SELECT id, link, title, lang, copyright_text, description, category, created_at, active
FROM feeds
WHERE link = $1`

	feed, err := scanFeedRow(s.db.QueryRowContext(ctx, query, link))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetFeedByLink: %w", err)
	}
	return feed, nil
}

func (s *Store) listPostingsByFeed(ctx context.Context, feedPK int64) ([]entity.Posting, error) {
	const query = `
SELECT id, link, title, description, author, published_at, updated_at, feed_id
FROM postings
WHERE feed_id = $1
ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, feedPK)
	if err != nil {
		return nil, fmt.Errorf("listPostingsByFeed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	postings := make([]entity.Posting, 0, 16)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("listPostingsByFeed: scan: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func (s *Store) ListActiveFeeds(ctx context.Context) ([]repository.ActiveFeedRef, error) {
	const query = `SELECT id, link, active FROM feeds WHERE active = true ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActiveFeeds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	refs := make([]repository.ActiveFeedRef, 0, 32)
	for rows.Next() {
		var ref repository.ActiveFeedRef
		if err := rows.Scan(&ref.PK, &ref.Link, &ref.Active); err != nil {
			return nil, fmt.Errorf("ListActiveFeeds: scan: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) SetFeedActive(ctx context.Context, pk int64, active bool) error {
	const query = `UPDATE feeds SET active = $1 WHERE id = $2`
	if _, err := s.db.ExecContext(ctx, query, active, pk); err != nil {
		return fmt.Errorf("SetFeedActive: %w", err)
	}
	return nil
}

func scanFeedRow(row *sql.Row) (*entity.Feed, error) {
	var feed entity.Feed
	if err := row.Scan(&feed.PK, &feed.Link, &feed.Title, &feed.Lang, &feed.CopyrightText,
		&feed.Description, &feed.Category, &feed.CreatedAt, &feed.Active); err != nil {
		return nil, err
	}
	return &feed, nil
}

func scanPosting(rows *sql.Rows) (entity.Posting, error) {
	var p entity.Posting
	err := rows.Scan(&p.PK, &p.Link, &p.Title, &p.Description, &p.Author,
		&p.PublishedAt, &p.UpdatedAt, &p.FeedID)
	return p, err
}

/* ──────────────────────────────── User ──────────────────────────────── */

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	const query = `SELECT id, username FROM users WHERE username = $1`

	var user entity.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(&user.PK, &user.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByUsername: %w", err)
	}
	return &user, nil
}

func (s *Store) CreateUser(ctx context.Context, username string) (*entity.User, error) {
	const query = `INSERT INTO users (username) VALUES ($1) RETURNING id`

	var pk int64
	err := s.db.QueryRowContext(ctx, query, username).Scan(&pk)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, entity.ErrAlreadyExists
		}
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return &entity.User{PK: pk, Username: username}, nil
}

func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]repository.UserWithFeeds, error) {
	const userQuery = `
SELECT id, username
FROM users
ORDER BY id ASC
LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, userQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}

	type row struct {
		pk       int64
		username string
	}
	userRows := make([]row, 0, limit)
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.pk, &r.username); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("ListUsers: scan: %w", err)
		}
		userRows = append(userRows, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	_ = rows.Close()

	const feedsQuery = `
SELECT f.title, f.link
FROM follows fo
JOIN feeds f ON f.id = fo.feed_pk
WHERE fo.user_pk = $1
ORDER BY f.id ASC`

	result := make([]repository.UserWithFeeds, 0, len(userRows))
	for _, r := range userRows {
		feedRows, err := s.db.QueryContext(ctx, feedsQuery, r.pk)
		if err != nil {
			return nil, fmt.Errorf("ListUsers: followed feeds: %w", err)
		}
		feeds := make([]repository.FeedSummary, 0, 8)
		for feedRows.Next() {
			var fs repository.FeedSummary
			if err := feedRows.Scan(&fs.Title, &fs.Link); err != nil {
				_ = feedRows.Close()
				return nil, fmt.Errorf("ListUsers: followed feeds: scan: %w", err)
			}
			feeds = append(feeds, fs)
		}
		if err := feedRows.Err(); err != nil {
			_ = feedRows.Close()
			return nil, fmt.Errorf("ListUsers: followed feeds: %w", err)
		}
		_ = feedRows.Close()

		result = append(result, repository.UserWithFeeds{
			Username:      r.username,
			FollowedFeeds: feeds,
		})
	}
	return result, nil
}

/* ──────────────────────────────── Follow / Read ──────────────────────────────── */

func (s *Store) Follow(ctx context.Context, userPK, feedPK int64) error {
	const query = `
INSERT INTO follows (user_pk, feed_pk)
VALUES ($1, $2)
ON CONFLICT (user_pk, feed_pk) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, userPK, feedPK); err != nil {
		return fmt.Errorf("Follow: %w", err)
	}
	return nil
}

func (s *Store) Unfollow(ctx context.Context, userPK, feedPK int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Unfollow: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const deleteReads = `
DELETE FROM reads
WHERE user_pk = $1
AND posting_pk IN (SELECT id FROM postings WHERE feed_id = $2)`
	if _, err := tx.ExecContext(ctx, deleteReads, userPK, feedPK); err != nil {
		return fmt.Errorf("Unfollow: delete reads: %w", err)
	}

	const deleteFollow = `DELETE FROM follows WHERE user_pk = $1 AND feed_pk = $2`
	if _, err := tx.ExecContext(ctx, deleteFollow, userPK, feedPK); err != nil {
		return fmt.Errorf("Unfollow: delete follow: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Unfollow: commit: %w", err)
	}
	return nil
}

func (s *Store) IsFollowing(ctx context.Context, userPK, feedPK int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM follows WHERE user_pk = $1 AND feed_pk = $2)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, userPK, feedPK).Scan(&exists); err != nil {
		return false, fmt.Errorf("IsFollowing: %w", err)
	}
	return exists, nil
}

func (s *Store) GetPostingByLink(ctx context.Context, link string) (*entity.Posting, error) {
	const query = `
SELECT id, link, title, description, author, published_at, updated_at, feed_id
FROM postings
WHERE link = $1`

	var p entity.Posting
	err := s.db.QueryRowContext(ctx, query, link).Scan(&p.PK, &p.Link, &p.Title, &p.Description,
		&p.Author, &p.PublishedAt, &p.UpdatedAt, &p.FeedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetPostingByLink: %w", err)
	}
	return &p, nil
}

func (s *Store) MarkRead(ctx context.Context, userPK, postingPK int64) error {
	const query = `
INSERT INTO reads (user_pk, posting_pk)
VALUES ($1, $2)
ON CONFLICT (user_pk, posting_pk) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, userPK, postingPK); err != nil {
		return fmt.Errorf("MarkRead: %w", err)
	}
	return nil
}

func (s *Store) MarkUnread(ctx context.Context, userPK, postingPK int64) error {
	const query = `DELETE FROM reads WHERE user_pk = $1 AND posting_pk = $2`
	if _, err := s.db.ExecContext(ctx, query, userPK, postingPK); err != nil {
		return fmt.Errorf("MarkUnread: %w", err)
	}
	return nil
}

/* ──────────────────────────────── Postings listing ──────────────────────────────── */

func (s *Store) FilterPostings(ctx context.Context, filter repository.PostingFilter) ([]entity.Posting, error) {
	order := "DESC"
	if filter.Order == repository.OrderAsc {
		order = "ASC"
	}

	query := fmt.Sprintf(`
SELECT p.id, p.link, p.title, p.description, p.author, p.published_at, p.updated_at, p.feed_id
FROM postings p
JOIN feeds f ON f.id = p.feed_id
JOIN follows fo ON fo.feed_pk = f.id AND fo.user_pk = $1
WHERE f.active = true`)

	args := []interface{}{filter.UserPK}
	argIndex := 2

	if filter.FeedLink != "" {
		query += fmt.Sprintf(" AND f.link = $%d", argIndex)
		args = append(args, filter.FeedLink)
		argIndex++
	}

	if filter.IsRead != nil {
		if *filter.IsRead {
			query += " AND EXISTS (SELECT 1 FROM reads r WHERE r.user_pk = $1 AND r.posting_pk = p.id)"
		} else {
			query += " AND NOT EXISTS (SELECT 1 FROM reads r WHERE r.user_pk = $1 AND r.posting_pk = p.id)"
		}
	}

	query += fmt.Sprintf(" ORDER BY p.updated_at %s LIMIT $%d OFFSET $%d", order, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("FilterPostings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	postings := make([]entity.Posting, 0, filter.Limit)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("FilterPostings: scan: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}
