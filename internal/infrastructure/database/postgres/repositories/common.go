// Package repositories provides the PostgreSQL-backed implementations of the
// document and comparison-run repository interfaces.
package repositories

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories map onto application errors.
const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation reports whether err is a duplicate-key failure.
func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == uniqueViolation
}

// isMalformedID reports whether err came from comparing a UUID column against
// a value that is not a UUID.  Lookups treat such ids as simply absent.
func isMalformedID(err error) bool {
	return pgErrorCode(err) == invalidTextRepresentation
}

// escapeLike escapes LIKE metacharacters in user-supplied match text.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// nilIfZero maps the zero time onto NULL for nullable timestamp columns.
func nilIfZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// timeOrZero maps NULL back onto the zero time.
func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
