package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row addressed by id or slug does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMissingTable is returned when the backing table has not been created.
	ErrMissingTable = errors.New("table missing")
	// ErrConflict is returned when a unique column already holds the value.
	ErrConflict = errors.New("already exists")
)

const (
	pgUndefinedTable   = "42P01"
	pgUniqueViolation  = "23505"
	sqliteNoSuchTable  = "no such table"
	sqliteUniqueFailed = "UNIQUE constraint failed"
)

// IsMissingTable reports whether err means a table does not exist.
func IsMissingTable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingTable) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedTable
	}
	return strings.Contains(err.Error(), sqliteNoSuchTable)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), sqliteUniqueFailed)
}

// classify wraps driver errors in the store sentinels callers branch on.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsMissingTable(err):
		return fmt.Errorf("%s: %w: %v", op, ErrMissingTable, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %v", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
