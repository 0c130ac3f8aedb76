package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	pgInvalidTextRepresentation = "22P02"
	pgForeignKeyViolation       = "23503"
	pgUniqueViolation           = "23505"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isNotFound reports whether err means the addressed row cannot exist, either
// because no row matched or because the id is not a valid uuid.
func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == pgInvalidTextRepresentation
}
