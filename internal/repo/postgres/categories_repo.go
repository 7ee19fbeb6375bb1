package postgres

import (
	"context"

	"github.com/geocoder89/medconnect/internal/domain/category"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoriesRepo struct {
	base
}

func NewCategoriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{base{pool: pool, prom: prom}}
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	output := make([]category.Category, 0, len(category.Defaults))

	err := r.observe("categories.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c category.Category
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return err
			}
			output = append(output, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return output, nil
}
