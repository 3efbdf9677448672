package sqlitedb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/db"
)

const linkColumns = `id, owner_id, token, target_url, click_count, created_at, updated_at, last_accessed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// Timestamps are stored as unix microseconds.
func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func scanLink(row rowScanner) (db.Link, error) {
	var (
		l            db.Link
		createdAt    int64
		updatedAt    int64
		lastAccessed sql.NullInt64
	)
	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Token,
		&l.TargetUrl,
		&l.ClickCount,
		&createdAt,
		&updatedAt,
		&lastAccessed,
	)
	if err != nil {
		return db.Link{}, err
	}

	l.CreatedAt = fromMicros(createdAt)
	l.UpdatedAt = fromMicros(updatedAt)
	if lastAccessed.Valid {
		t := fromMicros(lastAccessed.Int64)
		l.LastAccessedAt = &t
	}
	return l, nil
}

const createLink = `
INSERT INTO links (id, owner_id, token, target_url, click_count, created_at, updated_at)
VALUES (?, ?, ?, ?, 0, ?, ?)
RETURNING ` + linkColumns

func (q *Queries) CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error) {
	now := q.now().UnixMicro()
	row := q.db.QueryRowContext(ctx, createLink,
		arg.ID.String(), arg.OwnerID.String(), arg.Token, arg.TargetUrl, now, now)
	return scanLink(row)
}

const getLinkByToken = `
SELECT ` + linkColumns + `
FROM links
WHERE token = ?`

func (q *Queries) GetLinkByToken(ctx context.Context, token string) (db.Link, error) {
	row := q.db.QueryRowContext(ctx, getLinkByToken, token)
	return scanLink(row)
}

const resolveLink = `
UPDATE links
SET click_count = click_count + 1,
    last_accessed_at = ?
WHERE token = ?
RETURNING ` + linkColumns

func (q *Queries) ResolveLink(ctx context.Context, token string) (db.Link, error) {
	row := q.db.QueryRowContext(ctx, resolveLink, q.now().UnixMicro(), token)
	return scanLink(row)
}

const updateLink = `
UPDATE links
SET token = ?,
    target_url = ?,
    updated_at = ?
WHERE token = ? AND owner_id = ?
RETURNING ` + linkColumns

func (q *Queries) UpdateLink(ctx context.Context, arg db.UpdateLinkParams) (db.Link, error) {
	row := q.db.QueryRowContext(ctx, updateLink,
		arg.NewToken, arg.TargetUrl, q.now().UnixMicro(), arg.Token, arg.OwnerID.String())
	return scanLink(row)
}

const deleteLink = `
DELETE FROM links
WHERE token = ? AND owner_id = ?`

// DeleteLink returns sql.ErrNoRows when no owned link matched.
func (q *Queries) DeleteLink(ctx context.Context, arg db.DeleteLinkParams) error {
	res, err := q.db.ExecContext(ctx, deleteLink, arg.Token, arg.OwnerID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const listLinksByOwner = `
SELECT ` + linkColumns + `
FROM links
WHERE owner_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`

func (q *Queries) ListLinksByOwner(ctx context.Context, arg db.ListLinksByOwnerParams) ([]db.Link, error) {
	limit := int64(arg.Limit)
	if limit <= 0 {
		limit = -1
	}

	rows, err := q.db.QueryContext(ctx, listLinksByOwner, arg.OwnerID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []db.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

const countLinksByOwner = `
SELECT count(*)
FROM links
WHERE owner_id = ?`

func (q *Queries) CountLinksByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countLinksByOwner, ownerID.String()).Scan(&n)
	return n, err
}

const getLinkClicks = `
SELECT click_count
FROM links
WHERE token = ?`

func (q *Queries) GetLinkClicks(ctx context.Context, token string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, getLinkClicks, token).Scan(&n)
	return n, err
}
