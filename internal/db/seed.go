package db

import (
	"context"

	"github.com/geocoder89/medconnect/internal/domain/category"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureCategories inserts the default specialisations that are missing.
// Existing rows are left untouched, so it is safe on every start.
func EnsureCategories(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var inserted int64

	for _, name := range category.Defaults {
		tag, err := pool.Exec(ctx,
			`INSERT INTO categories (id, name)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), name,
		)
		if err != nil {
			return inserted, err
		}
		inserted += tag.RowsAffected()
	}

	return inserted, nil
}
