package service

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// isInvalidUUID detecta ids mal formados rechazados por Postgres (22P02).
func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
