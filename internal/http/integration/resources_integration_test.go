package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocoder89/medconnect/internal/domain/doctor"
	"github.com/geocoder89/medconnect/internal/domain/user"
	apphttp "github.com/geocoder89/medconnect/internal/http"
	"github.com/geocoder89/medconnect/internal/http/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorOnlyListing(t *testing.T) {
	app := newTestApp(t)
	patientToken := app.signupAndLogin(t, "PATIENT", "pat@b.com")
	doctorToken := app.signupAndLogin(t, "DOCTOR", "doc@b.com")

	w := app.do(t, http.MethodGet, "/patients", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodGet, "/patients", patientToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "forbidden", decodeError(t, w).Error.Code)

	w = app.do(t, http.MethodGet, "/patients", doctorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Patients []struct {
			FullName string `json:"fullName"`
			User     struct {
				Email string `json:"email"`
			} `json:"user"`
		} `json:"patients"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Patients, 1)
	require.Equal(t, "pat@b.com", resp.Patients[0].User.Email)
}

func TestProtectedRoutes_RejectBadTokensUniformly(t *testing.T) {
	app := newTestApp(t)
	token := app.signupAndLogin(t, "DOCTOR", "doc@b.com")

	// flip one signature character that carries only significant bits
	i := len(token) - 10
	swap := "A"
	if token[i] == 'A' {
		swap = "B"
	}
	tampered := token[:i] + swap + token[i+1:]

	var messages []string
	for _, tok := range []string{"", "garbage", tampered} {
		w := app.do(t, http.MethodGet, "/consultations", tok, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		env := decodeError(t, w)
		require.Equal(t, "unauthorized", env.Error.Code)
		messages = append(messages, env.Error.Message)
	}
	require.Equal(t, messages[0], messages[1])
	require.Equal(t, messages[0], messages[2])
}

func TestConsultations_DoctorQueue(t *testing.T) {
	app := newTestApp(t)
	doctorToken := app.signupAndLogin(t, "DOCTOR", "doc@b.com")
	patientToken := app.signupAndLogin(t, "PATIENT", "pat@b.com")

	ctx := context.Background()
	docs, err := app.store.Doctors().List(ctx, doctor.ListFilter{})
	require.NoError(t, err)
	pu, err := app.store.Users().GetByEmail(ctx, "pat@b.com")
	require.NoError(t, err)
	p, err := app.store.Patients().GetByUserID(ctx, pu.ID)
	require.NoError(t, err)

	later := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)
	sooner := later.Add(-3 * time.Hour)
	_, err = app.store.Consultations().Create(ctx, docs[0].ID, p.ID, later)
	require.NoError(t, err)
	_, err = app.store.Consultations().Create(ctx, docs[0].ID, p.ID, sooner)
	require.NoError(t, err)

	require.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, "/consultations", patientToken, nil).Code)

	w := app.do(t, http.MethodGet, "/consultations", doctorToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Consultations []struct {
			ScheduledTime time.Time `json:"scheduledTime"`
			Status        string    `json:"status"`
			Patient       struct {
				FullName string `json:"fullName"`
				User     struct {
					Email string `json:"email"`
				} `json:"user"`
			} `json:"patient"`
		} `json:"consultations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Consultations, 2)
	assert.True(t, resp.Consultations[0].ScheduledTime.Equal(sooner))
	assert.Equal(t, "SCHEDULED", resp.Consultations[0].Status)
	assert.Equal(t, "pat@b.com", resp.Consultations[0].Patient.User.Email)
}

func TestConsultations_DoctorTokenWithoutProfile(t *testing.T) {
	app := newTestApp(t)

	// a signed token for a doctor id that has no profile
	token, err := app.jwt.Issue("00000000-0000-0000-0000-000000000000", user.RoleDoctor)
	require.NoError(t, err)

	w := app.do(t, http.MethodGet, "/consultations", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMe_Endpoints(t *testing.T) {
	app := newTestApp(t)
	patientToken := app.signupAndLogin(t, "PATIENT", "pat@b.com")
	doctorToken := app.signupAndLogin(t, "DOCTOR", "doc@b.com")
	providerToken := app.signupAndLogin(t, "PROVIDER", "clinic@b.com")

	w := app.do(t, http.MethodGet, "/patients/me", patientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"email":"pat@b.com"`)

	w = app.do(t, http.MethodGet, "/patients/me", doctorToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_found", decodeError(t, w).Error.Code)

	w = app.do(t, http.MethodGet, "/providers/me", providerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"address":"1 Main St"`)

	require.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/providers/me", patientToken, nil).Code)
	require.Equal(t, http.StatusUnauthorized, app.do(t, http.MethodGet, "/providers/me", "", nil).Code)
}

func TestDoctors_PublicListingCachedWithETag(t *testing.T) {
	app := newTestApp(t)

	body := signupBody("DOCTOR", "heart@b.com")
	body["categories"] = []string{"Cardiology"}
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/auth/signup", "", body).Code)

	w := app.do(t, http.MethodGet, "/doctors", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)

	w = app.do(t, http.MethodGet, "/doctors?category=Cardiology", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Doctors []doctor.Doctor `json:"doctors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Doctors, 1)
	require.Equal(t, "Cardiology", resp.Doctors[0].Categories[0].Name)

	w = app.do(t, http.MethodGet, "/doctors?category=Neurology", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Empty(t, resp.Doctors)

	// a new doctor must show up despite the cached listing
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/auth/signup", "", signupBody("DOCTOR", "gp@b.com")).Code)

	w = app.do(t, http.MethodGet, "/doctors", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Doctors, 2)
	require.NotEqual(t, etag, w.Header().Get("ETag"))

	w = app.do(t, http.MethodGet, "/doctors/"+resp.Doctors[0].ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/doctors/not-a-uuid", "", nil).Code)
}

func TestCategories(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Categories, 8)
	require.Equal(t, "Cardiology", resp.Categories[0].Name)
}

func TestPreflightSkipsAuth(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/patients", "/consultations", "/auth/signup", "/doctors"} {
		w := app.do(t, http.MethodOptions, path, "", nil)
		require.Equal(t, http.StatusNoContent, w.Code, path)
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), path)
		require.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"), path)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/healthz", "", nil).Code)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/readyz", "", nil).Code)

	app.do(t, http.MethodGet, "/doctors", "", nil)
	w := app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "medconnect_http_requests_total")

	w = app.do(t, http.MethodGet, "/docs/openapi.yaml", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "/auth/signup")

	w = app.do(t, http.MethodGet, "/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "not_found", decodeError(t, w).Error.Code)
}

func TestReadyz_ReportsFailingDependency(t *testing.T) {
	failing := newTestAppWithChecks(t, map[string]handlers.Check{
		"postgres": func(context.Context) error { return errors.New("down") },
	})

	w := failing.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "postgres")
}

func TestReadyz_NotReadyWhileDraining(t *testing.T) {
	var draining atomic.Bool
	app := buildAppWith(t, func(d *apphttp.Deps) { d.Draining = draining.Load })

	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/readyz", "", nil).Code)

	draining.Store(true)
	w := app.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "shutting_down")
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/healthz", "", nil).Code)
}
