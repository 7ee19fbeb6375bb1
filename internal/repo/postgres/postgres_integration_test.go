package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/medconnect/internal/db"
	"github.com/geocoder89/medconnect/internal/domain/category"
	"github.com/geocoder89/medconnect/internal/domain/doctor"
	"github.com/geocoder89/medconnect/internal/domain/patient"
	"github.com/geocoder89/medconnect/internal/domain/signup"
	"github.com/geocoder89/medconnect/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func dsnForTest(t *testing.T) string {
	t.Helper()

	if dsn := os.Getenv("TEST_DB_DSN"); dsn != "" {
		return dsn
	}

	if os.Getenv("MEDCONNECT_INTEGRATION") != "1" {
		t.Skip("set TEST_DB_DSN or MEDCONNECT_INTEGRATION=1 to run postgres tests")
	}

	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "medconnect",
				"POSTGRES_PASSWORD": "medconnect",
				"POSTGRES_DB":       "medconnect",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://medconnect:medconnect@%s:%s/medconnect?sslmode=disable", host, port.Port())
}

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	dsn := dsnForTest(t)
	require.NoError(t, db.Migrate(dsn))

	pool, err := db.NewPool(ctx, dsn, 5)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE consultations, doctor_categories, doctors, patients, providers, users CASCADE`)
	require.NoError(t, err)

	_, err = db.EnsureCategories(ctx, pool)
	require.NoError(t, err)

	return pool
}

func intPtr(n int) *int { return &n }

func doctorReg(email string, categories ...string) signup.DoctorRegistration {
	return signup.DoctorRegistration{
		Credentials: signup.Credentials{Email: email, Password: "secret1"},
		FullName:    "Dr " + email,
		Phone:       "1234567890",
		Degree:      "MBBS",
		Experience:  intPtr(3),
		Description: "General practice",
		Categories:  categories,
	}
}

func patientReg(email string) signup.PatientRegistration {
	return signup.PatientRegistration{
		Credentials: signup.Credentials{Email: email, Password: "secret1"},
		FullName:    "Patient " + email,
		Phone:       "5550001",
	}
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool, nil)

	u, err := users.CreateAccount(ctx, patientReg("dup@example.com"), "hash")
	require.NoError(t, err)

	got, err := users.GetByEmail(ctx, "DUP@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "hash", got.PasswordHash)

	_, err = users.CreateAccount(ctx, doctorReg("dup@example.com"), "hash")
	require.ErrorIs(t, err, postgres.ErrEmailAlreadyUsed)

	var doctors int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&doctors))
	require.Zero(t, doctors)
}

func TestCreateAccount_UnknownCategoryRollsBack(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool, nil)

	_, err := users.CreateAccount(ctx, doctorReg("doc@example.com", "Cardiology", "Astrology"), "hash")
	require.ErrorIs(t, err, category.ErrUnknown)

	_, err = users.GetByEmail(ctx, "doc@example.com")
	require.ErrorIs(t, err, postgres.ErrUserNotFound)
}

func TestDoctors_ListAndFilter(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool, nil)
	doctors := postgres.NewDoctorsRepo(pool, nil)

	_, err := users.CreateAccount(ctx, doctorReg("heart@example.com", "Cardiology", "Oncology"), "hash")
	require.NoError(t, err)
	_, err = users.CreateAccount(ctx, doctorReg("skin@example.com", "Dermatology"), "hash")
	require.NoError(t, err)

	all, err := doctors.List(ctx, doctor.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	cardio := "Cardiology"
	filtered, err := doctors.List(ctx, doctor.ListFilter{Category: &cardio})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "Dr heart@example.com", filtered[0].FullName)
	require.Len(t, filtered[0].Categories, 2)

	got, err := doctors.GetByID(ctx, filtered[0].ID)
	require.NoError(t, err)
	require.Equal(t, filtered[0].ID, got.ID)

	_, err = doctors.GetByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, doctor.ErrNotFound)
}

func TestConsultations_OrderedQueueWithPatient(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	users := postgres.NewUsersRepo(pool, nil)
	doctors := postgres.NewDoctorsRepo(pool, nil)
	patients := postgres.NewPatientsRepo(pool, nil)
	consultations := postgres.NewConsultationsRepo(pool, nil)

	docUser, err := users.CreateAccount(ctx, doctorReg("doc@example.com"), "hash")
	require.NoError(t, err)
	patUser, err := users.CreateAccount(ctx, patientReg("pat@example.com"), "hash")
	require.NoError(t, err)

	list, err := doctors.List(ctx, doctor.ListFilter{})
	require.NoError(t, err)
	p, err := patients.GetByUserID(ctx, patUser.ID)
	require.NoError(t, err)
	require.Equal(t, "pat@example.com", p.User.Email)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err = consultations.Create(ctx, list[0].ID, p.ID, base.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = consultations.Create(ctx, list[0].ID, p.ID, base)
	require.NoError(t, err)

	queue, err := consultations.ListForDoctorUser(ctx, docUser.ID)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.True(t, queue[0].ScheduledTime.Before(queue[1].ScheduledTime))
	require.Equal(t, "pat@example.com", queue[0].Patient.User.Email)

	_, err = consultations.ListForDoctorUser(ctx, patUser.ID)
	require.ErrorIs(t, err, doctor.ErrNotFound)

	_, err = patients.GetByUserID(ctx, docUser.ID)
	require.ErrorIs(t, err, patient.ErrNotFound)
}

func TestCategories_SeededAndSorted(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	inserted, err := db.EnsureCategories(ctx, pool)
	require.NoError(t, err)
	require.Zero(t, inserted)

	list, err := postgres.NewCategoriesRepo(pool, nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, len(category.Defaults))
	require.Equal(t, "Cardiology", list[0].Name)
}
