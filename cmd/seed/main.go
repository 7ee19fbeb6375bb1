// Command seed applies migrations and inserts the default categories.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/geocoder89/medconnect/internal/config"
	"github.com/geocoder89/medconnect/internal/db"
	"github.com/geocoder89/medconnect/internal/observability"
)

func main() {
	cfg, err := config.Load()
	log := observability.NewLogger(cfg.Env)
	// the seeder never signs tokens
	if err != nil && !errors.Is(err, config.ErrMissingJWTSecret) {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.DBURL); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	inserted, err := db.EnsureCategories(ctx, pool)
	if err != nil {
		log.Error("seed failed", "err", err)
		os.Exit(1)
	}

	log.Info("seed complete", "categories_inserted", inserted)
}
