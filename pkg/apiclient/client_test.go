package apiclient_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/geocoder89/medconnect/internal/auth"
	"github.com/geocoder89/medconnect/internal/cache"
	"github.com/geocoder89/medconnect/internal/config"
	apphttp "github.com/geocoder89/medconnect/internal/http"
	"github.com/geocoder89/medconnect/internal/repo/memory"
	"github.com/geocoder89/medconnect/internal/security"
	"github.com/geocoder89/medconnect/pkg/apiclient"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Env:                "test",
		StoreDriver:        "memory",
		DBTimeout:          2 * time.Second,
		JWTSecret:          "client-test-secret",
		BcryptCost:         4,
		ServiceName:        "medconnect-test",
		ProtectedPrefixes:  []string{"/patients", "/providers", "/consultations"},
		CORSAllowedOrigins: []string{"*"},
		AuthRatePerMinute:  600,
		AuthRateBurst:      100,
		MaxBodyBytes:       1 << 20,
	}

	jwtManager, err := auth.NewManager(cfg.JWTSecret)
	require.NoError(t, err)

	store := memory.NewStore()
	router := apphttp.NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), apphttp.Deps{
		Config:        cfg,
		Accounts:      store.Users(),
		Doctors:       store.Doctors(),
		Patients:      store.Patients(),
		Providers:     store.Providers(),
		Consultations: store.Consultations(),
		Categories:    store.Categories(),
		Hasher:        security.NewHasher(cfg.BcryptCost),
		Tokens:        jwtManager,
		Cache:         cache.NewMemory(time.Minute),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func intPtr(n int) *int { return &n }

func TestClient_EndToEnd(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	tokenPath := filepath.Join(t.TempDir(), "medconnect", "token.json")

	c := apiclient.New(srv.URL, apiclient.NewSession(apiclient.NewFileTokenStore(tokenPath)))

	_, err := c.Signup(ctx, apiclient.SignupRequest{
		Email:       "doc@b.com",
		Password:    "secret1",
		Role:        apiclient.RoleDoctor,
		FullName:    "Dr C",
		Phone:       "1234567890",
		Degree:      "MBBS",
		Experience:  intPtr(0),
		Description: "General practice",
		Categories:  []string{"Cardiology"},
	})
	require.NoError(t, err)

	_, err = c.Signup(ctx, apiclient.SignupRequest{
		Email: "pat@b.com", Password: "secret1", Role: apiclient.RolePatient, FullName: "P", Phone: "1",
	})
	require.NoError(t, err)

	_, err = c.Patients(ctx)
	require.ErrorIs(t, err, apiclient.ErrNotLoggedIn)

	u, err := c.Login(ctx, "doc@b.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, apiclient.RoleDoctor, u.Role)

	patients, err := c.Patients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	require.Equal(t, "pat@b.com", patients[0].User.Email)

	consultations, err := c.Consultations(ctx)
	require.NoError(t, err)
	require.Empty(t, consultations)

	// a second process sharing the token file is already logged in
	other := apiclient.New(srv.URL, apiclient.NewSession(apiclient.NewFileTokenStore(tokenPath)))
	require.True(t, other.Session().LoggedIn(ctx))
	_, err = other.Patients(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Patients(ctx)
	require.ErrorIs(t, err, apiclient.ErrNotLoggedIn)
}

func TestClient_PublicCatalogue(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := apiclient.New(srv.URL, nil)

	_, err := c.Signup(ctx, apiclient.SignupRequest{
		Email: "doc@b.com", Password: "secret1", Role: apiclient.RoleDoctor, FullName: "Dr C",
		Phone: "1", Degree: "MBBS", Experience: intPtr(2), Description: "Skin", Categories: []string{"Dermatology"},
	})
	require.NoError(t, err)

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 8)

	docs, err := c.Doctors(ctx, "Dermatology")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	d, err := c.Doctor(ctx, docs[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Dr C", d.FullName)

	docs, err = c.Doctors(ctx, "Radiology")
	require.NoError(t, err)
	require.Empty(t, docs)

	_, err = c.Doctor(ctx, "missing")
	require.True(t, apiclient.IsStatus(err, http.StatusNotFound))
}

func TestClient_ErrorsAreTyped(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	c := apiclient.New(srv.URL, nil)

	_, err := c.Login(ctx, "ghost@b.com", "secret1")

	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "invalid_credentials", apiErr.Code)
	require.NotEmpty(t, apiErr.RequestID)
	require.False(t, c.Session().LoggedIn(ctx))

	_, err = c.Signup(ctx, apiclient.SignupRequest{Email: "p@b.com", Password: "secret1", Role: apiclient.RolePatient})
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "validation_error", apiErr.Code)
	require.Contains(t, string(apiErr.Details), "fullName")

	_, err = c.Login(ctx, "p@b.com", "secret1")
	require.True(t, apiclient.IsStatus(err, http.StatusUnauthorized))

	_, err = c.Signup(ctx, apiclient.SignupRequest{Email: "p@b.com", Password: "secret1", Role: apiclient.RolePatient, FullName: "P", Phone: "1"})
	require.NoError(t, err)
	_, err = c.Login(ctx, "p@b.com", "secret1")
	require.NoError(t, err)

	_, err = c.Patients(ctx)
	require.True(t, apiclient.IsStatus(err, http.StatusForbidden))

	me, err := c.MyPatientProfile(ctx)
	require.NoError(t, err)
	require.Equal(t, "P", me.FullName)
}
