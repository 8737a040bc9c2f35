package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the services care about.
const (
	pgUniqueViolation = "23505"
)

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Callers use it to map insert races onto domain errors
// instead of leaking driver errors to the client.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
