package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/medconnect/internal/domain/category"
	"github.com/geocoder89/medconnect/internal/domain/signup"
	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	base
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{base{pool: pool, prom: prom}}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `WHERE email = $1`, user.NormalizeEmail(email))
}

func (r *UsersRepo) getOne(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, email, password_hash, role, created_at, updated_at
			FROM users `+where,
			arg,
		).Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// CreateAccount inserts the user and its role profile in one transaction.
// A duplicate email surfaces as ErrEmailAlreadyUsed whether it is caught by
// the pre-check or by the unique constraint.
func (r *UsersRepo) CreateAccount(ctx context.Context, reg signup.Registration, passwordHash string) (user.User, error) {
	creds := reg.Creds()
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        user.NormalizeEmail(creds.Email),
		PasswordHash: passwordHash,
		Role:         reg.Role(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("accounts.create", func() error {
		return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			var exists bool

			err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, u.Email).Scan(&exists)
			if err != nil {
				return err
			}

			if exists {
				return ErrEmailAlreadyUsed
			}

			_, err = tx.Exec(ctx,
				`INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				u.ID, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
			)
			if err != nil {
				return err
			}

			return insertProfile(ctx, tx, u.ID, reg, now)
		})
	})

	if err != nil {
		if errors.Is(err, ErrEmailAlreadyUsed) || IsUniqueViolation(err, "users_email_key") {
			return user.User{}, ErrEmailAlreadyUsed
		}
		return user.User{}, err
	}

	return u, nil
}

func insertProfile(ctx context.Context, tx pgx.Tx, userID string, reg signup.Registration, now time.Time) error {
	switch p := reg.(type) {
	case signup.PatientRegistration:
		_, err := tx.Exec(ctx,
			`INSERT INTO patients (id, user_id, full_name, phone, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)`,
			uuid.NewString(), userID, p.FullName, p.Phone, now,
		)
		return err

	case signup.DoctorRegistration:
		doctorID := uuid.NewString()

		_, err := tx.Exec(ctx,
			`INSERT INTO doctors (id, user_id, full_name, phone, degree, experience, description, profile_image, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
			doctorID, userID, p.FullName, p.Phone, p.Degree, *p.Experience, p.Description, p.ProfileImage, now,
		)
		if err != nil {
			return err
		}

		return linkCategories(ctx, tx, doctorID, p.Categories)

	case signup.ProviderRegistration:
		_, err := tx.Exec(ctx,
			`INSERT INTO providers (id, user_id, name, phone, address, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			uuid.NewString(), userID, p.Name, p.Phone, p.Address, p.Description, now,
		)
		return err

	default:
		return fmt.Errorf("insert profile: %w", signup.ErrUnknownRole)
	}
}

func linkCategories(ctx context.Context, tx pgx.Tx, doctorID string, names []string) error {
	names = dedupe(names)
	if len(names) == 0 {
		return nil
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO doctor_categories (doctor_id, category_id)
		SELECT $1, id FROM categories WHERE name = ANY($2::text[])`,
		doctorID, names,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() != int64(len(names)) {
		return category.ErrUnknown
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))

	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
