package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/keelson/folio-api/internal/store"
)

// PostgreSQL error codes this package maps to store errors.
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// mapError translates driver errors into the store error taxonomy. Unique
// violations become ErrDuplicate, foreign key violations become
// ErrRelatedNotFound (the referenced resource does not exist), and anything
// else is wrapped as an opaque store failure.
func mapError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return store.ErrDuplicate
		case foreignKeyViolationCode:
			return store.ErrRelatedNotFound
		}
	}
	return store.Failure(operation, err)
}
