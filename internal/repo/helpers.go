package repo

import (
	"errors"

	"prospect-api/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that surface as ConflictError to callers. The
// core never retries these.
const (
	pgCodeUniqueViolation      = "23505"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
)

// classifyError converts store-level concurrency failures into the
// domain conflict type and passes everything else through.
func classifyError(err error, message string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeUniqueViolation, pgCodeSerializationFailure, pgCodeDeadlockDetected:
			return &domain.ConflictError{Message: message + ": " + pgErr.Message}
		}
	}
	return err
}
