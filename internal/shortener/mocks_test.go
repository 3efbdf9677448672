package shortener

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/db"
	"github.com/sundayezeilo/shortlinks/internal/errx"
)

/***************
 * Mocks
 ***************/

// mockRepository implements Repository for testing.
type mockRepository struct {
	createFunc          func(ctx context.Context, link Link) (Link, error)
	getByTokenFunc      func(ctx context.Context, token string) (Link, error)
	resolveAndTrackFunc func(ctx context.Context, token string) (Link, error)
	updateFunc          func(ctx context.Context, upd UpdateLink) (Link, error)
	deleteFunc          func(ctx context.Context, ownerID uuid.UUID, token string) error
	listByOwnerFunc     func(ctx context.Context, ownerID uuid.UUID, limit int) ([]Link, error)
	countByOwnerFunc    func(ctx context.Context, ownerID uuid.UUID) (int64, error)
	clicksFunc          func(ctx context.Context, token string) (int64, error)
}

func notFound(op string) error {
	return errx.E(op, errx.NotFound, errors.New("not found"))
}

func (m *mockRepository) Create(ctx context.Context, link Link) (Link, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, link)
	}
	link.ID = uuid.New()
	link.CreatedAt = time.Now()
	link.UpdatedAt = link.CreatedAt
	return link, nil
}

func (m *mockRepository) GetByToken(ctx context.Context, token string) (Link, error) {
	if m.getByTokenFunc != nil {
		return m.getByTokenFunc(ctx, token)
	}
	return Link{}, notFound("repo.GetByToken")
}

func (m *mockRepository) ResolveAndTrack(ctx context.Context, token string) (Link, error) {
	if m.resolveAndTrackFunc != nil {
		return m.resolveAndTrackFunc(ctx, token)
	}
	return Link{}, notFound("repo.ResolveAndTrack")
}

func (m *mockRepository) Update(ctx context.Context, upd UpdateLink) (Link, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, upd)
	}
	return Link{}, notFound("repo.Update")
}

func (m *mockRepository) Delete(ctx context.Context, ownerID uuid.UUID, token string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, ownerID, token)
	}
	return nil
}

func (m *mockRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Link, error) {
	if m.listByOwnerFunc != nil {
		return m.listByOwnerFunc(ctx, ownerID, limit)
	}
	return []Link{}, nil
}

func (m *mockRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	if m.countByOwnerFunc != nil {
		return m.countByOwnerFunc(ctx, ownerID)
	}
	return 0, nil
}

func (m *mockRepository) Clicks(ctx context.Context, token string) (int64, error) {
	if m.clicksFunc != nil {
		return m.clicksFunc(ctx, token)
	}
	return 0, notFound("repo.Clicks")
}

// mockTokenGenerator hands out tokens in order and echoes custom aliases.
type mockTokenGenerator struct {
	mu           sync.Mutex
	generateFunc func(alias string) (string, error)
	tokens       []string
	calls        int
}

func (m *mockTokenGenerator) Generate(alias string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.generateFunc != nil {
		return m.generateFunc(alias)
	}
	if alias != "" {
		return alias, nil
	}
	if idx := m.calls - 1; idx < len(m.tokens) {
		return m.tokens[idx], nil
	}
	return "abc123", nil
}

func (m *mockTokenGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockQuerier implements querier for repository tests.
type mockQuerier struct {
	createLinkFunc        func(ctx context.Context, arg db.CreateLinkParams) (db.Link, error)
	getLinkByTokenFunc    func(ctx context.Context, token string) (db.Link, error)
	resolveLinkFunc       func(ctx context.Context, token string) (db.Link, error)
	updateLinkFunc        func(ctx context.Context, arg db.UpdateLinkParams) (db.Link, error)
	deleteLinkFunc        func(ctx context.Context, arg db.DeleteLinkParams) error
	listLinksByOwnerFunc  func(ctx context.Context, arg db.ListLinksByOwnerParams) ([]db.Link, error)
	countLinksByOwnerFunc func(ctx context.Context, ownerID uuid.UUID) (int64, error)
	getLinkClicksFunc     func(ctx context.Context, token string) (int64, error)
}

var errNotMocked = errors.New("not mocked")

func (m *mockQuerier) CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error) {
	if m.createLinkFunc != nil {
		return m.createLinkFunc(ctx, arg)
	}
	return db.Link{}, errNotMocked
}

func (m *mockQuerier) GetLinkByToken(ctx context.Context, token string) (db.Link, error) {
	if m.getLinkByTokenFunc != nil {
		return m.getLinkByTokenFunc(ctx, token)
	}
	return db.Link{}, errNotMocked
}

func (m *mockQuerier) ResolveLink(ctx context.Context, token string) (db.Link, error) {
	if m.resolveLinkFunc != nil {
		return m.resolveLinkFunc(ctx, token)
	}
	return db.Link{}, errNotMocked
}

func (m *mockQuerier) UpdateLink(ctx context.Context, arg db.UpdateLinkParams) (db.Link, error) {
	if m.updateLinkFunc != nil {
		return m.updateLinkFunc(ctx, arg)
	}
	return db.Link{}, errNotMocked
}

func (m *mockQuerier) DeleteLink(ctx context.Context, arg db.DeleteLinkParams) error {
	if m.deleteLinkFunc != nil {
		return m.deleteLinkFunc(ctx, arg)
	}
	return errNotMocked
}

func (m *mockQuerier) ListLinksByOwner(ctx context.Context, arg db.ListLinksByOwnerParams) ([]db.Link, error) {
	if m.listLinksByOwnerFunc != nil {
		return m.listLinksByOwnerFunc(ctx, arg)
	}
	return nil, errNotMocked
}

func (m *mockQuerier) CountLinksByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	if m.countLinksByOwnerFunc != nil {
		return m.countLinksByOwnerFunc(ctx, ownerID)
	}
	return 0, errNotMocked
}

func (m *mockQuerier) GetLinkClicks(ctx context.Context, token string) (int64, error) {
	if m.getLinkClicksFunc != nil {
		return m.getLinkClicksFunc(ctx, token)
	}
	return 0, errNotMocked
}

// mockIDGenerator implements idgen.Generator.
type mockIDGenerator struct {
	id  uuid.UUID
	err error
}

func (m *mockIDGenerator) Generate() (uuid.UUID, error) {
	return m.id, m.err
}
