package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/medconnect/internal/auth"
	"github.com/geocoder89/medconnect/internal/cache"
	"github.com/geocoder89/medconnect/internal/config"
	"github.com/geocoder89/medconnect/internal/db"
	httpx "github.com/geocoder89/medconnect/internal/http"
	"github.com/geocoder89/medconnect/internal/http/handlers"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/geocoder89/medconnect/internal/redisclient"
	"github.com/geocoder89/medconnect/internal/repo/memory"
	"github.com/geocoder89/medconnect/internal/repo/postgres"
	"github.com/geocoder89/medconnect/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing disabled", "err", err)
		} else {
			defer func() {
				sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracer(sctx)
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	jwtManager, err := auth.NewManager(cfg.JWTSecret)
	if err != nil {
		log.Error("jwt setup failed", "err", err)
		os.Exit(1)
	}

	var draining atomic.Bool

	deps := httpx.Deps{
		Config:   cfg,
		Hasher:   security.NewHasher(cfg.BcryptCost),
		Tokens:   jwtManager,
		Prom:     prom,
		Gatherer: reg,
		Checks:   map[string]handlers.Check{},
		Draining: draining.Load,
	}

	closeStore, err := wireStore(ctx, cfg, log, prom, &deps)
	if err != nil {
		log.Error("store setup failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pctx); err != nil {
			log.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		deps.Cache = cache.NewRedis(rdb.Raw(), cfg.ServiceName, cfg.CacheTTL)
		deps.Checks["redis"] = rdb.Ping
	} else {
		deps.Cache = cache.NewMemory(cfg.CacheTTL)
	}

	router := httpx.NewRouter(log, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")
	draining.Store(true)

	if cfg.ShutdownDrainDelay > 0 {
		log.Info("draining before shutdown", "delay", cfg.ShutdownDrainDelay)
		waitForDrain(cfg.ShutdownDrainDelay, stop)
	}

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// waitForDrain keeps the listener open while readiness reports draining.
// A second signal cuts the wait short.
func waitForDrain(delay time.Duration, stop <-chan os.Signal) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-stop:
	}
}

// wireStore fills the repository fields of deps for the configured driver
// and returns a func releasing its resources.
func wireStore(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom, deps *httpx.Deps) (func(), error) {
	switch cfg.StoreDriver {
	case "memory":
		store := memory.NewStore()
		deps.Accounts = store.Users()
		deps.Doctors = store.Doctors()
		deps.Patients = store.Patients()
		deps.Providers = store.Providers()
		deps.Consultations = store.Consultations()
		deps.Categories = store.Categories()
		deps.Checks["store"] = store.Ping
		log.Warn("using in-memory store; data is lost on restart")
		return func() {}, nil

	case "postgres":
		if cfg.DBAutoMigrate {
			if err := db.Migrate(cfg.DBURL); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}

		pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}

		seeded, err := db.EnsureCategories(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed categories: %w", err)
		}
		if seeded > 0 {
			log.Info("categories seeded", "inserted", seeded)
		}

		deps.Accounts = postgres.NewUsersRepo(pool, prom)
		deps.Doctors = postgres.NewDoctorsRepo(pool, prom)
		deps.Patients = postgres.NewPatientsRepo(pool, prom)
		deps.Providers = postgres.NewProvidersRepo(pool, prom)
		deps.Consultations = postgres.NewConsultationsRepo(pool, prom)
		deps.Categories = postgres.NewCategoriesRepo(pool, prom)
		deps.Checks["postgres"] = pool.Ping
		return pool.Close, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
