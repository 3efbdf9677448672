package shortener

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/shortlinks/internal/db"
	"github.com/sundayezeilo/shortlinks/internal/errx"
)

func TestMapRepoError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errx.Kind
	}{
		{"pgx no rows", pgx.ErrNoRows, errx.NotFound},
		{"sql no rows", sql.ErrNoRows, errx.NotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), errx.NotFound},
		{
			"postgres token unique violation",
			&pgconn.PgError{Code: "23505", ConstraintName: db.TokenUniqueConstraint},
			errx.DuplicateToken,
		},
		{
			"postgres unique violation on other constraint",
			&pgconn.PgError{Code: "23505", ConstraintName: "links_pkey"},
			errx.Unavailable,
		},
		{
			"postgres check violation",
			&pgconn.PgError{Code: "23514", ConstraintName: "links_target_url_not_empty"},
			errx.Unavailable,
		},
		{
			"libsql unique violation text",
			errors.New("SQLITE_CONSTRAINT: SQLite error: UNIQUE constraint failed: links.token"),
			errx.DuplicateToken,
		},
		{"context canceled", context.Canceled, errx.Unavailable},
		{"anything else", errors.New("connection reset"), errx.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapRepoError("shortener.repo.Test", tt.err)
			if got := errx.KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Error("mapped error does not unwrap to the driver error")
			}
		})
	}
}

func TestNewRepository(t *testing.T) {
	t.Run("nil config uses v7 ids", func(t *testing.T) {
		r := NewRepository(&mockQuerier{}, nil).(*repo)
		id, err := r.ids.Generate()
		if err != nil {
			t.Fatalf("Generate() unexpected error: %v", err)
		}
		if id.Version() != 7 {
			t.Errorf("id version = %d, want 7", id.Version())
		}
	})

	t.Run("custom generator is used", func(t *testing.T) {
		want := uuid.New()
		var got uuid.UUID
		q := &mockQuerier{createLinkFunc: func(ctx context.Context, arg db.CreateLinkParams) (db.Link, error) {
			got = arg.ID
			return db.Link{ID: arg.ID}, nil
		}}
		r := NewRepository(q, &RepositoryConfig{IDGenerator: &mockIDGenerator{id: want}})

		if _, err := r.Create(context.Background(), Link{Token: "abc123", TargetURL: "https://x.example"}); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("inserted id = %v, want %v", got, want)
		}
	})
}

func TestRepo_Create(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now().UTC()

	t.Run("maps row to domain", func(t *testing.T) {
		q := &mockQuerier{createLinkFunc: func(ctx context.Context, arg db.CreateLinkParams) (db.Link, error) {
			return db.Link{
				ID: arg.ID, OwnerID: arg.OwnerID, Token: arg.Token, TargetUrl: arg.TargetUrl,
				CreatedAt: now, UpdatedAt: now,
			}, nil
		}}
		r := NewRepository(q, nil)

		link, err := r.Create(ctx, Link{OwnerID: owner, Token: "abc123", TargetURL: "https://example.com"})
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if link.ID == uuid.Nil {
			t.Error("ID = nil, want generated id")
		}
		if link.OwnerID != owner || link.Token != "abc123" || link.TargetURL != "https://example.com" {
			t.Errorf("Create() = %+v, want request fields", link)
		}
		if !link.CreatedAt.Equal(now) {
			t.Errorf("CreatedAt = %v, want %v", link.CreatedAt, now)
		}
	})

	t.Run("keeps explicit id", func(t *testing.T) {
		id := uuid.New()
		q := &mockQuerier{createLinkFunc: func(ctx context.Context, arg db.CreateLinkParams) (db.Link, error) {
			if arg.ID != id {
				t.Errorf("ID = %v, want %v", arg.ID, id)
			}
			return db.Link{ID: arg.ID}, nil
		}}
		r := NewRepository(q, &RepositoryConfig{IDGenerator: &mockIDGenerator{err: errors.New("must not be called")}})

		if _, err := r.Create(ctx, Link{ID: id, Token: "abc123", TargetURL: "https://x.example"}); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
	})

	t.Run("id generation failure is unavailable", func(t *testing.T) {
		r := NewRepository(&mockQuerier{}, &RepositoryConfig{IDGenerator: &mockIDGenerator{err: errors.New("clock")}})

		_, err := r.Create(ctx, Link{Token: "abc123", TargetURL: "https://x.example"})
		if !errx.Is(err, errx.Unavailable) {
			t.Errorf("Create() error kind = %v, want Unavailable", errx.KindOf(err))
		}
	})

	t.Run("duplicate token", func(t *testing.T) {
		q := &mockQuerier{createLinkFunc: func(ctx context.Context, arg db.CreateLinkParams) (db.Link, error) {
			return db.Link{}, &pgconn.PgError{Code: "23505", ConstraintName: db.TokenUniqueConstraint}
		}}
		r := NewRepository(q, nil)

		_, err := r.Create(ctx, Link{Token: "abc123", TargetURL: "https://x.example"})
		if !errx.Is(err, errx.DuplicateToken) {
			t.Errorf("Create() error kind = %v, want DuplicateToken", errx.KindOf(err))
		}
		if got := errx.OpOf(err); got != "shortener.repo.Create" {
			t.Errorf("OpOf() = %q, want shortener.repo.Create", got)
		}
	})
}

func TestRepo_UpdateDeleteResolve(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	q := &mockQuerier{
		updateLinkFunc: func(ctx context.Context, arg db.UpdateLinkParams) (db.Link, error) {
			if arg.OwnerID != owner {
				return db.Link{}, pgx.ErrNoRows
			}
			return db.Link{OwnerID: arg.OwnerID, Token: arg.NewToken, TargetUrl: arg.TargetUrl}, nil
		},
		deleteLinkFunc: func(ctx context.Context, arg db.DeleteLinkParams) error {
			if arg.OwnerID != owner {
				return pgx.ErrNoRows
			}
			return nil
		},
		resolveLinkFunc: func(ctx context.Context, token string) (db.Link, error) {
			if token != "abc123" {
				return db.Link{}, sql.ErrNoRows
			}
			return db.Link{Token: token, TargetUrl: "https://example.com", ClickCount: 3}, nil
		},
	}
	r := NewRepository(q, nil)

	link, err := r.Update(ctx, UpdateLink{OwnerID: owner, Token: "old", NewToken: "new", TargetURL: "https://n.example"})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if link.Token != "new" || link.TargetURL != "https://n.example" {
		t.Errorf("Update() = %+v, want new token and target", link)
	}

	_, err = r.Update(ctx, UpdateLink{OwnerID: uuid.New(), Token: "old", NewToken: "new", TargetURL: "https://n.example"})
	if !errx.Is(err, errx.NotFound) {
		t.Errorf("Update(foreign) error kind = %v, want NotFound", errx.KindOf(err))
	}

	if err := r.Delete(ctx, owner, "new"); err != nil {
		t.Errorf("Delete() unexpected error: %v", err)
	}
	if err := r.Delete(ctx, uuid.New(), "new"); !errx.Is(err, errx.NotFound) {
		t.Errorf("Delete(foreign) error kind = %v, want NotFound", errx.KindOf(err))
	}

	resolved, err := r.ResolveAndTrack(ctx, "abc123")
	if err != nil {
		t.Fatalf("ResolveAndTrack() unexpected error: %v", err)
	}
	if resolved.ClickCount != 3 {
		t.Errorf("ClickCount = %d, want 3", resolved.ClickCount)
	}
	if _, err := r.ResolveAndTrack(ctx, "zzz"); !errx.Is(err, errx.NotFound) {
		t.Errorf("ResolveAndTrack(missing) error kind = %v, want NotFound", errx.KindOf(err))
	}
}

func TestRepo_ListByOwner(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	var gotLimit int32
	q := &mockQuerier{listLinksByOwnerFunc: func(ctx context.Context, arg db.ListLinksByOwnerParams) ([]db.Link, error) {
		gotLimit = arg.Limit
		return []db.Link{{Token: "b"}, {Token: "a"}}, nil
	}}
	r := NewRepository(q, nil)

	tests := []struct {
		name      string
		limit     int
		wantLimit int32
	}{
		{"zero lists all", 0, 0},
		{"small limit", 5, 5},
		{"clamped to max", MaxListLimit * 10, MaxListLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := r.ListByOwner(ctx, owner, tt.limit)
			if err != nil {
				t.Fatalf("ListByOwner() unexpected error: %v", err)
			}
			if gotLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", gotLimit, tt.wantLimit)
			}
			if len(links) != 2 || links[0].Token != "b" {
				t.Errorf("ListByOwner() = %+v, want rows in order", links)
			}
		})
	}

	if _, err := r.ListByOwner(ctx, owner, -1); !errx.Is(err, errx.Invalid) {
		t.Errorf("ListByOwner(-1) error kind = %v, want Invalid", errx.KindOf(err))
	}
}

func TestRepo_CountAndClicks(t *testing.T) {
	ctx := context.Background()
	q := &mockQuerier{
		countLinksByOwnerFunc: func(ctx context.Context, ownerID uuid.UUID) (int64, error) { return 4, nil },
		getLinkClicksFunc: func(ctx context.Context, token string) (int64, error) {
			return 0, pgx.ErrNoRows
		},
	}
	r := NewRepository(q, nil)

	n, err := r.CountByOwner(ctx, uuid.New())
	if err != nil {
		t.Fatalf("CountByOwner() unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("CountByOwner() = %d, want 4", n)
	}

	if _, err := r.Clicks(ctx, "gone"); !errx.Is(err, errx.NotFound) {
		t.Errorf("Clicks() error kind = %v, want NotFound", errx.KindOf(err))
	}
}
