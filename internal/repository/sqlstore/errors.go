package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/tenxdev/internal/apperror"
)

// Postgres SQLSTATE codes we translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type violation int

const (
	noViolation violation = iota
	uniqueViolation
	foreignKeyViolation
)

// classify inspects a driver error for the constraint violations we care about.
func classify(err error) violation {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return uniqueViolation
		case pgForeignKeyViolation:
			return foreignKeyViolation
		}
		return noViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return uniqueViolation
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return foreignKeyViolation
		case sqlite3.SQLITE_CONSTRAINT:
			// primary result code only: fall back to the message
			msg := liteErr.Error()
			switch {
			case strings.Contains(msg, "UNIQUE constraint failed"):
				return uniqueViolation
			case strings.Contains(msg, "FOREIGN KEY constraint failed"):
				return foreignKeyViolation
			}
		}
	}
	return noViolation
}

// translate maps a driver error to the apperror taxonomy. conflict is the
// message used for a uniqueness violation. Errors that are not constraint
// violations are wrapped with op and stay Internal.
func translate(err error, op, conflict string) error {
	if err == nil {
		return nil
	}
	switch classify(err) {
	case uniqueViolation:
		return apperror.AlreadyExists(conflict)
	case foreignKeyViolation:
		return apperror.ValidationFailed("", "referenced record does not exist")
	}
	return fmt.Errorf("sqlstore: %s: %w", op, err)
}

// notFoundOr returns a NotFound error for sql.ErrNoRows and wraps anything else.
func notFoundOr(err error, resource, id, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	return fmt.Errorf("sqlstore: %s: %w", op, err)
}

// expectAffected turns a zero-row result into NotFound.
func expectAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
