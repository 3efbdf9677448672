package shortener

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/db"
	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/idgen"
)

// querier is satisfied by *pgdb.Queries and *sqlitedb.Queries.
type querier interface {
	CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error)
	GetLinkByToken(ctx context.Context, token string) (db.Link, error)
	ResolveLink(ctx context.Context, token string) (db.Link, error)
	UpdateLink(ctx context.Context, arg db.UpdateLinkParams) (db.Link, error)
	DeleteLink(ctx context.Context, arg db.DeleteLinkParams) error
	ListLinksByOwner(ctx context.Context, arg db.ListLinksByOwnerParams) ([]db.Link, error)
	CountLinksByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	GetLinkClicks(ctx context.Context, token string) (int64, error)
}

type repo struct {
	q   querier
	ids idgen.Generator
}

// RepositoryConfig holds configuration for the repository
type RepositoryConfig struct {
	IDGenerator idgen.Generator
}

// NewRepository creates a new Repository implementation
func NewRepository(q querier, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	if config.IDGenerator == nil {
		config.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}

	return &repo{
		q:   q,
		ids: config.IDGenerator,
	}
}

func toDomainLink(x db.Link) Link {
	return Link{
		ID:             x.ID,
		OwnerID:        x.OwnerID,
		Token:          x.Token,
		TargetURL:      x.TargetUrl,
		ClickCount:     x.ClickCount,
		CreatedAt:      x.CreatedAt,
		UpdatedAt:      x.UpdatedAt,
		LastAccessedAt: x.LastAccessedAt,
	}
}

func mapRepoError(op string, err error) error {
	switch {
	case isNoRows(err):
		return errx.E(op, errx.NotFound, err)

	case isTokenUniqueViolation(err):
		return errx.E(op, errx.DuplicateToken, err)

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func (r *repo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.repo.Create"

	if link.ID == uuid.Nil {
		id, err := r.ids.Generate()
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}
		link.ID = id
	}

	row, err := r.q.CreateLink(ctx, db.CreateLinkParams{
		ID:        link.ID,
		OwnerID:   link.OwnerID,
		Token:     link.Token,
		TargetUrl: link.TargetURL,
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return toDomainLink(row), nil
}

func (r *repo) GetByToken(ctx context.Context, token string) (Link, error) {
	const op = "shortener.repo.GetByToken"

	row, err := r.q.GetLinkByToken(ctx, token)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return toDomainLink(row), nil
}

func (r *repo) ResolveAndTrack(ctx context.Context, token string) (Link, error) {
	const op = "shortener.repo.ResolveAndTrack"

	row, err := r.q.ResolveLink(ctx, token)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return toDomainLink(row), nil
}

func (r *repo) Update(ctx context.Context, upd UpdateLink) (Link, error) {
	const op = "shortener.repo.Update"

	row, err := r.q.UpdateLink(ctx, db.UpdateLinkParams{
		OwnerID:   upd.OwnerID,
		Token:     upd.Token,
		NewToken:  upd.NewToken,
		TargetUrl: upd.TargetURL,
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return toDomainLink(row), nil
}

func (r *repo) Delete(ctx context.Context, ownerID uuid.UUID, token string) error {
	const op = "shortener.repo.Delete"

	err := r.q.DeleteLink(ctx, db.DeleteLinkParams{OwnerID: ownerID, Token: token})
	if err != nil {
		return mapRepoError(op, err)
	}
	return nil
}

func (r *repo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Link, error) {
	const op = "shortener.repo.ListByOwner"

	if limit < 0 {
		return nil, errx.E(op, errx.Invalid, errors.New("limit cannot be negative"))
	}

	rows, err := r.q.ListLinksByOwner(ctx, db.ListLinksByOwnerParams{
		OwnerID: ownerID,
		Limit:   int32(min(limit, MaxListLimit)),
	})
	if err != nil {
		return nil, mapRepoError(op, err)
	}

	links := make([]Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, toDomainLink(row))
	}
	return links, nil
}

func (r *repo) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	const op = "shortener.repo.CountByOwner"

	n, err := r.q.CountLinksByOwner(ctx, ownerID)
	if err != nil {
		return 0, mapRepoError(op, err)
	}
	return n, nil
}

func (r *repo) Clicks(ctx context.Context, token string) (int64, error) {
	const op = "shortener.repo.Clicks"

	n, err := r.q.GetLinkClicks(ctx, token)
	if err != nil {
		return 0, mapRepoError(op, err)
	}
	return n, nil
}
