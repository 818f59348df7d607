package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/domain/snapshot"
	"feedkeep/internal/infra/adapter/persistence/postgres"
	"feedkeep/internal/repository"
)

func newStore(t *testing.T) (repository.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() err=%v", err)
	}
	return postgres.New(db), mock, func() { _ = db.Close() }
}

func TestStore_UpsertFeedWithPostings(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO feeds")).
		WithArgs("http://x/f", "F", "en", "c", "d", "g").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO postings")).
		WithArgs("http://x/p1", "P", "d", "a", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	feed := &snapshot.Feed{
		Link: "http://x/f", Title: "F", Lang: "en", CopyrightText: "c", Description: "d", Category: "g",
		Postings: []snapshot.Posting{
			{Link: "http://x/p1", Title: "P", Description: "d", Author: "a", PublishedAt: time.Now()},
		},
	}

	pk, err := store.UpsertFeedWithPostings(context.Background(), feed)
	if err != nil {
		t.Fatalf("UpsertFeedWithPostings err=%v", err)
	}
	if pk != 1 {
		t.Errorf("pk = %d, want 1", pk)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStore_UpsertFeedWithPostings_RollsBackOnPostingError(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO feeds")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO postings")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	feed := &snapshot.Feed{
		Link: "http://x/f",
		Postings: []snapshot.Posting{
			{Link: "http://x/p1", PublishedAt: time.Now()},
		},
	}

	_, err := store.UpsertFeedWithPostings(context.Background(), feed)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStore_GetFeedByPK_NotFound(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, link, title")).
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "link", "title", "lang", "copyright_text", "description", "category", "created_at", "active",
		}))

	feed, err := store.GetFeedByPK(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetFeedByPK err=%v", err)
	}
	if feed != nil {
		t.Errorf("expected nil feed, got %+v", feed)
	}
}

func TestStore_GetFeedByPK_WithPostings(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, link, title")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "link", "title", "lang", "copyright_text", "description", "category", "created_at", "active",
		}).AddRow(int64(1), "http://x/f", "F", "en", "c", "d", "g", now, true))

	mock.ExpectQuery(`FROM postings`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "link", "title", "description", "author", "published_at", "updated_at", "feed_id",
		}).AddRow(int64(10), "http://x/p1", "P", "d", "a", now, now, int64(1)))

	feed, err := store.GetFeedByPK(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetFeedByPK err=%v", err)
	}
	if feed == nil {
		t.Fatal("expected feed, got nil")
	}

	want := &entity.Feed{
		PK: 1, Link: "http://x/f", Title: "F", Lang: "en", CopyrightText: "c", Description: "d", Category: "g",
		CreatedAt: now, Active: true,
		Postings: []entity.Posting{
			{PK: 10, Link: "http://x/p1", Title: "P", Description: "d", Author: "a", PublishedAt: now, UpdatedAt: now, FeedID: 1},
		},
	}
	if diff := cmp.Diff(want, feed); diff != "" {
		t.Errorf("feed mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ListActiveFeeds(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectQuery(`FROM feeds WHERE active`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "link", "active"}).
			AddRow(int64(1), "http://x/a", true).
			AddRow(int64(2), "http://x/b", true))

	refs, err := store.ListActiveFeeds(context.Background())
	if err != nil {
		t.Fatalf("ListActiveFeeds err=%v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("len(refs) = %d, want 2", len(refs))
	}
}

func TestStore_SetFeedActive(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectExec(`UPDATE feeds SET active`).
		WithArgs(false, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.SetFeedActive(context.Background(), 1, false); err != nil {
		t.Fatalf("SetFeedActive err=%v", err)
	}
}

func TestStore_SetFeedActive_NoOpOnMissingRow(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectExec(`UPDATE feeds SET active`).
		WithArgs(true, int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.SetFeedActive(context.Background(), 999, true); err != nil {
		t.Fatalf("SetFeedActive should not fail on missing row, err=%v", err)
	}
}

func TestStore_CreateUser(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	user, err := store.CreateUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("CreateUser err=%v", err)
	}
	if user.Username != "alice" || user.PK != 1 {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestStore_CreateUser_AlreadyExists(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := store.CreateUser(context.Background(), "alice")
	if !errors.Is(err, entity.ErrAlreadyExists) {
		t.Fatalf("err = %v, want entity.ErrAlreadyExists", err)
	}
}

func TestStore_GetUserByUsername_NotFound(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectQuery(`FROM users`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	user, err := store.GetUserByUsername(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetUserByUsername err=%v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

func TestStore_Follow_Idempotent(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO follows")).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Follow(context.Background(), 1, 2); err != nil {
		t.Fatalf("Follow err=%v", err)
	}
}

func TestStore_Unfollow(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM reads`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM follows`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.Unfollow(context.Background(), 1, 2); err != nil {
		t.Fatalf("Unfollow err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStore_IsFollowing(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectQuery(`FROM follows`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.IsFollowing(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("IsFollowing err=%v", err)
	}
	if !ok {
		t.Error("expected true")
	}
}

func TestStore_MarkRead(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reads")).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.MarkRead(context.Background(), 1, 2); err != nil {
		t.Fatalf("MarkRead err=%v", err)
	}
}

func TestStore_MarkUnread_ScopedToUserAndPosting(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reads WHERE user_pk = $1 AND posting_pk = $2")).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.MarkUnread(context.Background(), 1, 2); err != nil {
		t.Fatalf("MarkUnread err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStore_FilterPostings_DefaultOrderDesc(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	now := time.Now()
	mock.ExpectQuery(`ORDER BY p.updated_at DESC`).
		WithArgs(int64(1), 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "link", "title", "description", "author", "published_at", "updated_at", "feed_id",
		}).AddRow(int64(1), "http://x/p1", "P", "d", "a", now, now, int64(1)))

	postings, err := store.FilterPostings(context.Background(), repository.PostingFilter{
		UserPK: 1, Order: repository.OrderDesc, Offset: 0, Limit: 20,
	})
	if err != nil {
		t.Fatalf("FilterPostings err=%v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("len(postings) = %d, want 1", len(postings))
	}
}

func TestStore_FilterPostings_WithFeedLinkAndReadState(t *testing.T) {
	store, mock, closeFn := newStore(t)
	defer closeFn()

	isRead := true
	mock.ExpectQuery(`ORDER BY p.updated_at ASC`).
		WithArgs(int64(1), "http://x/f", 10, 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "link", "title", "description", "author", "published_at", "updated_at", "feed_id",
		}))

	_, err := store.FilterPostings(context.Background(), repository.PostingFilter{
		UserPK: 1, FeedLink: "http://x/f", IsRead: &isRead,
		Order: repository.OrderAsc, Offset: 5, Limit: 10,
	})
	if err != nil {
		t.Fatalf("FilterPostings err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

var _ = entity.ErrAlreadyExists
