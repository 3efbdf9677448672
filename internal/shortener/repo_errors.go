package shortener

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sundayezeilo/shortlinks/internal/db"
)

const (
	pgUniqueViolation = "23505"

	// libSQL reports constraint failures as plain text.
	sqliteTokenUniqueMsg = "UNIQUE constraint failed: links.token"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

func isTokenUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation &&
			pgErr.ConstraintName == db.TokenUniqueConstraint
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}

	return err != nil && strings.Contains(err.Error(), sqliteTokenUniqueMsg)
}
