package pgdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sundayezeilo/shortlinks/internal/db"
)

const linkColumns = `id, owner_id, token, target_url, click_count, created_at, updated_at, last_accessed_at`

func scanLink(row pgx.Row) (db.Link, error) {
	var l db.Link
	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Token,
		&l.TargetUrl,
		&l.ClickCount,
		&l.CreatedAt,
		&l.UpdatedAt,
		&l.LastAccessedAt,
	)
	return l, err
}

const createLink = `
INSERT INTO links (id, owner_id, token, target_url)
VALUES ($1, $2, $3, $4)
RETURNING ` + linkColumns

func (q *Queries) CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error) {
	row := q.db.QueryRow(ctx, createLink, arg.ID, arg.OwnerID, arg.Token, arg.TargetUrl)
	return scanLink(row)
}

const getLinkByToken = `
SELECT ` + linkColumns + `
FROM links
WHERE token = $1`

func (q *Queries) GetLinkByToken(ctx context.Context, token string) (db.Link, error) {
	row := q.db.QueryRow(ctx, getLinkByToken, token)
	return scanLink(row)
}

// The increment and the read happen in one statement under the row lock.
const resolveLink = `
UPDATE links
SET click_count = click_count + 1,
    last_accessed_at = now()
WHERE token = $1
RETURNING ` + linkColumns

func (q *Queries) ResolveLink(ctx context.Context, token string) (db.Link, error) {
	row := q.db.QueryRow(ctx, resolveLink, token)
	return scanLink(row)
}

const updateLink = `
UPDATE links
SET token = $3,
    target_url = $4,
    updated_at = now()
WHERE token = $1 AND owner_id = $2
RETURNING ` + linkColumns

func (q *Queries) UpdateLink(ctx context.Context, arg db.UpdateLinkParams) (db.Link, error) {
	row := q.db.QueryRow(ctx, updateLink, arg.Token, arg.OwnerID, arg.NewToken, arg.TargetUrl)
	return scanLink(row)
}

const deleteLink = `
DELETE FROM links
WHERE token = $1 AND owner_id = $2`

// DeleteLink returns pgx.ErrNoRows when no owned link matched.
func (q *Queries) DeleteLink(ctx context.Context, arg db.DeleteLinkParams) error {
	tag, err := q.db.Exec(ctx, deleteLink, arg.Token, arg.OwnerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const listLinksByOwner = `
SELECT ` + linkColumns + `
FROM links
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC
LIMIT NULLIF($2::int, 0)`

func (q *Queries) ListLinksByOwner(ctx context.Context, arg db.ListLinksByOwnerParams) ([]db.Link, error) {
	limit := arg.Limit
	if limit < 0 {
		limit = 0
	}

	rows, err := q.db.Query(ctx, listLinksByOwner, arg.OwnerID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (db.Link, error) {
		return scanLink(row)
	})
}

const countLinksByOwner = `
SELECT count(*)
FROM links
WHERE owner_id = $1`

func (q *Queries) CountLinksByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countLinksByOwner, ownerID).Scan(&n)
	return n, err
}

const getLinkClicks = `
SELECT click_count
FROM links
WHERE token = $1`

func (q *Queries) GetLinkClicks(ctx context.Context, token string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, getLinkClicks, token).Scan(&n)
	return n, err
}
