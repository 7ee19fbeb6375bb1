package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/medconnect/internal/domain/provider"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProvidersRepo struct {
	base
}

func NewProvidersRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProvidersRepo {
	return &ProvidersRepo{base{pool: pool, prom: prom}}
}

func (r *ProvidersRepo) GetByUserID(ctx context.Context, userID string) (provider.Provider, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return provider.Provider{}, provider.ErrNotFound
	}

	var p provider.Provider

	err := r.observe("providers.get_by_user_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, user_id, name, phone, address, description, created_at, updated_at
			FROM providers
			WHERE user_id = $1`,
			userID,
		).Scan(&p.ID, &p.UserID, &p.Name, &p.Phone, &p.Address, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return provider.Provider{}, provider.ErrNotFound
		}
		return provider.Provider{}, err
	}
	return p, nil
}
