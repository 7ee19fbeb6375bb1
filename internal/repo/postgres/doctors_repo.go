package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/medconnect/internal/domain/category"
	"github.com/geocoder89/medconnect/internal/domain/doctor"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DoctorsRepo struct {
	base
}

func NewDoctorsRepo(pool *pgxpool.Pool, prom *observability.Prom) *DoctorsRepo {
	return &DoctorsRepo{base{pool: pool, prom: prom}}
}

const doctorColumns = `d.id, d.user_id, d.full_name, d.phone, d.degree, d.experience,
	d.description, d.profile_image, d.created_at, d.updated_at`

func scanDoctor(row pgx.Row, d *doctor.Doctor) error {
	return row.Scan(
		&d.ID,
		&d.UserID,
		&d.FullName,
		&d.Phone,
		&d.Degree,
		&d.Experience,
		&d.Description,
		&d.ProfileImage,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
}

// List returns doctors with their categories. A category filter matches the
// category name exactly.
func (r *DoctorsRepo) List(ctx context.Context, filter doctor.ListFilter) ([]doctor.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors d`
	var args []any

	if filter.Category != nil {
		query += ` WHERE EXISTS (
			SELECT 1 FROM doctor_categories dc
			JOIN categories c ON c.id = dc.category_id
			WHERE dc.doctor_id = d.id AND c.name = $1
		)`
		args = append(args, *filter.Category)
	}

	query += ` ORDER BY d.created_at ASC, d.id ASC`

	output := make([]doctor.Doctor, 0)

	err := r.observe("doctors.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var d doctor.Doctor
			if err := scanDoctor(rows, &d); err != nil {
				return err
			}
			output = append(output, d)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if err := r.attachCategories(ctx, output); err != nil {
		return nil, err
	}

	return output, nil
}

func (r *DoctorsRepo) GetByID(ctx context.Context, id string) (doctor.Doctor, error) {
	// non-uuid ids cannot exist; answer like any other unknown id
	if _, err := uuid.Parse(id); err != nil {
		return doctor.Doctor{}, doctor.ErrNotFound
	}

	var d doctor.Doctor

	err := r.observe("doctors.get_by_id", func() error {
		return scanDoctor(r.pool.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors d WHERE d.id = $1`, id), &d)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return doctor.Doctor{}, doctor.ErrNotFound
		}
		return doctor.Doctor{}, err
	}

	list := []doctor.Doctor{d}
	if err := r.attachCategories(ctx, list); err != nil {
		return doctor.Doctor{}, err
	}

	return list[0], nil
}

// attachCategories loads categories for all doctors in one query.
func (r *DoctorsRepo) attachCategories(ctx context.Context, doctors []doctor.Doctor) error {
	if len(doctors) == 0 {
		return nil
	}

	ids := make([]string, 0, len(doctors))
	index := make(map[string]int, len(doctors))

	for i := range doctors {
		doctors[i].Categories = make([]category.Category, 0)
		ids = append(ids, doctors[i].ID)
		index[doctors[i].ID] = i
	}

	return r.observe("doctors.list_categories", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT dc.doctor_id::text, c.id::text, c.name
			FROM doctor_categories dc
			JOIN categories c ON c.id = dc.category_id
			WHERE dc.doctor_id::text = ANY($1::text[])
			ORDER BY c.name ASC`,
			ids,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var doctorID string
			var c category.Category

			if err := rows.Scan(&doctorID, &c.ID, &c.Name); err != nil {
				return err
			}

			if i, ok := index[doctorID]; ok {
				doctors[i].Categories = append(doctors[i].Categories, c)
			}
		}
		return rows.Err()
	})
}
