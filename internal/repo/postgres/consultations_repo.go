package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/medconnect/internal/domain/consultation"
	"github.com/geocoder89/medconnect/internal/domain/doctor"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConsultationsRepo struct {
	base
}

func NewConsultationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ConsultationsRepo {
	return &ConsultationsRepo{base{pool: pool, prom: prom}}
}

// ListForDoctorUser returns the queue of the doctor owned by userID, earliest
// first. doctor.ErrNotFound means the user has no doctor profile.
func (r *ConsultationsRepo) ListForDoctorUser(ctx context.Context, userID string) ([]consultation.Consultation, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, doctor.ErrNotFound
	}

	var doctorID string

	err := r.observe("consultations.doctor_lookup", func() error {
		return r.pool.QueryRow(ctx, `SELECT id FROM doctors WHERE user_id = $1`, userID).Scan(&doctorID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, doctor.ErrNotFound
		}
		return nil, err
	}

	output := make([]consultation.Consultation, 0)

	err = r.observe("consultations.list_for_doctor", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT c.id, c.doctor_id, c.patient_id, c.scheduled_time, c.status, c.notes, c.prescription,
				c.created_at, c.updated_at, p.full_name, p.phone, u.email
			FROM consultations c
			JOIN patients p ON p.id = c.patient_id
			JOIN users u ON u.id = p.user_id
			WHERE c.doctor_id = $1
			ORDER BY c.scheduled_time ASC, c.id ASC`,
			doctorID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c consultation.Consultation

			err := rows.Scan(
				&c.ID,
				&c.DoctorID,
				&c.PatientID,
				&c.ScheduledTime,
				&c.Status,
				&c.Notes,
				&c.Prescription,
				&c.CreatedAt,
				&c.UpdatedAt,
				&c.Patient.FullName,
				&c.Patient.Phone,
				&c.Patient.User.Email,
			)
			if err != nil {
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

// Create books a consultation between existing doctor and patient profiles.
func (r *ConsultationsRepo) Create(ctx context.Context, doctorID, patientID string, at time.Time) (consultation.Consultation, error) {
	now := time.Now().UTC()

	c := consultation.Consultation{
		ID:            uuid.NewString(),
		DoctorID:      doctorID,
		PatientID:     patientID,
		ScheduledTime: at.UTC(),
		Status:        consultation.StatusScheduled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := r.observe("consultations.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO consultations (id, doctor_id, patient_id, scheduled_time, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			c.ID, c.DoctorID, c.PatientID, c.ScheduledTime, c.Status, now,
		)
		return err
	})

	if err != nil {
		return consultation.Consultation{}, err
	}
	return c, nil
}
