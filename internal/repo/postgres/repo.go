package postgres

import (
	"errors"

	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound     = user.ErrNotFound
	ErrEmailAlreadyUsed = user.ErrEmailTaken
)

const uniqueViolation = "23505"

// base holds what every repo needs: the pool and optional DB metrics.
type base struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (b base) observe(op string, fn func() error) error {
	if b.prom != nil {
		return b.prom.ObserveDB(op, fn)
	}
	return fn()
}

// IsUniqueViolation reports a 23505 error, optionally restricted to one
// constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError

	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}
