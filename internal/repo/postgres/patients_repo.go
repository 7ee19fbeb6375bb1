package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/medconnect/internal/domain/patient"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PatientsRepo struct {
	base
}

func NewPatientsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PatientsRepo {
	return &PatientsRepo{base{pool: pool, prom: prom}}
}

const patientSelect = `SELECT p.id, p.user_id, p.full_name, p.phone, p.created_at, p.updated_at, u.email
	FROM patients p
	JOIN users u ON u.id = p.user_id`

func scanPatient(row pgx.Row, p *patient.Patient) error {
	return row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Phone, &p.CreatedAt, &p.UpdatedAt, &p.User.Email)
}

func (r *PatientsRepo) List(ctx context.Context) ([]patient.Patient, error) {
	output := make([]patient.Patient, 0)

	err := r.observe("patients.list", func() error {
		rows, err := r.pool.Query(ctx, patientSelect+` ORDER BY p.created_at ASC, p.id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p patient.Patient
			if err := scanPatient(rows, &p); err != nil {
				return err
			}
			output = append(output, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return output, nil
}

func (r *PatientsRepo) GetByUserID(ctx context.Context, userID string) (patient.Patient, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return patient.Patient{}, patient.ErrNotFound
	}

	var p patient.Patient

	err := r.observe("patients.get_by_user_id", func() error {
		return scanPatient(r.pool.QueryRow(ctx, patientSelect+` WHERE p.user_id = $1`, userID), &p)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return patient.Patient{}, patient.ErrNotFound
		}
		return patient.Patient{}, err
	}
	return p, nil
}
