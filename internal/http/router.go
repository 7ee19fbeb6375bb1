package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/medconnect/internal/cache"
	"github.com/geocoder89/medconnect/internal/config"
	"github.com/geocoder89/medconnect/internal/http/handlers"
	"github.com/geocoder89/medconnect/internal/http/middlewares"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the collaborators the router wires into handlers. Cache, Prom,
// Gatherer, Checks and Draining are optional.
type Deps struct {
	Config config.Config

	Accounts      handlers.AccountStore
	Doctors       handlers.DoctorReader
	Patients      handlers.PatientReader
	Providers     handlers.ProviderReader
	Consultations handlers.ConsultationReader
	Categories    handlers.CategoryReader

	Hasher handlers.PasswordHasher
	Tokens interface {
		handlers.TokenIssuer
		middlewares.TokenVerifier
	}

	Cache    cache.Store
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Check
	Draining func() bool
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	cfg := deps.Config

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	authMw := middlewares.NewAuthMiddleware(deps.Tokens, log, deps.Prom)
	r.Use(authMw.Protect(cfg.ProtectedPrefixes))

	// ops
	h := handlers.NewHealthHandler(deps.Checks, deps.Draining)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	timeout := cfg.DBTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	// Wire up handlers
	doctorsHandler := handlers.NewDoctorsHandler(deps.Doctors, deps.Cache, deps.Prom, log, timeout)
	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Hasher, deps.Tokens, handlers.AuthOptions{
		Listings: doctorsHandler,
		Prom:     deps.Prom,
		Log:      log,
		Timeout:  timeout,
	})
	patientsHandler := handlers.NewPatientsHandler(deps.Patients, log, timeout)
	providersHandler := handlers.NewProvidersHandler(deps.Providers, log, timeout)
	consultationsHandler := handlers.NewConsultationsHandler(deps.Consultations, log, timeout)
	categoriesHandler := handlers.NewCategoriesHandler(deps.Categories, log, timeout)

	// auth routes, throttled per client IP
	limiter := middlewares.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	authGroup := r.Group("/auth", middlewares.RequireJSON(), limiter.RateLimiterMiddleware(middlewares.KeyByIP, deps.Prom))
	authGroup.POST("/signup", authHandler.SignUp)
	authGroup.POST("/login", authHandler.Login)

	// public
	r.GET("/doctors", doctorsHandler.ListDoctors)
	r.GET("/doctors/:id", doctorsHandler.GetDoctorByID)
	r.GET("/categories", categoriesHandler.ListCategories)

	// under the protected prefixes; roles are checked in the handlers
	r.GET("/patients", patientsHandler.ListPatients)
	r.GET("/patients/me", patientsHandler.Me)
	r.GET("/providers/me", providersHandler.Me)
	r.GET("/consultations", consultationsHandler.ListConsultations)

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	return r
}
