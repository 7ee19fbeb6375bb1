package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/medconnect/internal/auth"
	"github.com/geocoder89/medconnect/internal/cache"
	"github.com/geocoder89/medconnect/internal/config"
	apphttp "github.com/geocoder89/medconnect/internal/http"
	"github.com/geocoder89/medconnect/internal/http/handlers"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/geocoder89/medconnect/internal/repo/memory"
	"github.com/geocoder89/medconnect/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		StoreDriver:        "memory",
		DBTimeout:          2 * time.Second,
		JWTSecret:          testSecret,
		BcryptCost:         4,
		ServiceName:        "medconnect-test",
		ProtectedPrefixes:  []string{"/patients", "/providers", "/consultations"},
		CORSAllowedOrigins: []string{"*"},
		AuthRatePerMinute:  600,
		AuthRateBurst:      100,
		MaxBodyBytes:       1 << 20,
	}
}

type testApp struct {
	router http.Handler
	store  *memory.Store
	jwt    *auth.Manager
	prom   *observability.Prom
	reg    *prometheus.Registry
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()

	return buildAppWith(t, func(d *apphttp.Deps) {
		for _, m := range mutate {
			m(&d.Config)
		}
	})
}

// newTestAppWithChecks replaces the default readiness checks.
func newTestAppWithChecks(t *testing.T, checks map[string]handlers.Check) *testApp {
	t.Helper()
	return buildAppWith(t, func(d *apphttp.Deps) { d.Checks = checks })
}

// buildAppWith wires the router over a fresh memory store; mutate may
// adjust the dependencies before the router is built.
func buildAppWith(t *testing.T, mutate func(*apphttp.Deps)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	jwtManager, err := auth.NewManager(cfg.JWTSecret)
	require.NoError(t, err)

	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps := apphttp.Deps{
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
		Prom:          prom,
		Gatherer:      reg,
		Checks:        map[string]handlers.Check{"store": store.Ping},
	}
	if mutate != nil {
		mutate(&deps)
	}

	router := apphttp.NewRouter(logger, deps)

	return &testApp{router: router, store: store, jwt: jwtManager, prom: prom, reg: reg}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"requestId"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body=%s", w.Body.String())
	return env
}

func signupBody(role, email string) map[string]any {
	body := map[string]any{
		"email":    email,
		"password": "secret1",
		"role":     role,
	}

	switch role {
	case "PATIENT":
		body["fullName"] = "A B"
		body["phone"] = "1234567890"
	case "DOCTOR":
		body["fullName"] = "Dr C"
		body["phone"] = "1234567890"
		body["degree"] = "MBBS"
		body["experience"] = 5
		body["description"] = "General practice"
	case "PROVIDER":
		body["name"] = "Clinic"
		body["phone"] = "1234567890"
		body["address"] = "1 Main St"
		body["description"] = "Walk-in clinic"
	}
	return body
}

func (a *testApp) signupAndLogin(t *testing.T, role, email string) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/auth/signup", "", signupBody(role, email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}
