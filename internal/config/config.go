package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

type Config struct {
	Env  string
	Port int

	StoreDriver   string
	DBURL         string
	DBMaxConns    int32
	DBTimeout     time.Duration
	DBAutoMigrate bool

	JWTSecret  string
	BcryptCost int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	OTLPEndpoint string
	ServiceName  string

	ProtectedPrefixes  []string
	CORSAllowedOrigins []string
	AuthRatePerMinute  int
	AuthRateBurst      int
	MaxBodyBytes       int64

	// time /readyz reports draining before the listener closes
	ShutdownDrainDelay time.Duration
}

// Load reads a .env file when one exists and then the process environment.
// A missing signing secret is reported as ErrMissingJWTSecret so the caller
// can refuse to start.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		DBURL:         buildDBURL(),
		DBMaxConns:    int32(getEnvInt("DB_MAX_CONNS", 5)),
		DBTimeout:     getEnvDuration("DB_TIMEOUT", 3*time.Second),
		DBAutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 30*time.Second),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "medconnect-api"),

		ProtectedPrefixes:  getEnvList("PROTECTED_PREFIXES", []string{"/patients", "/providers", "/consultations"}),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AuthRatePerMinute:  getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 20),
		AuthRateBurst:      getEnvInt("AUTH_RATE_LIMIT_BURST", 10),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		ShutdownDrainDelay: getEnvDelay("SHUTDOWN_DRAIN_DELAY", 5*time.Second),
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return cfg, ErrMissingJWTSecret
	}

	switch cfg.StoreDriver {
	case "postgres", "memory":
	default:
		return cfg, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "medconnect")
	pass := getEnv("DB_PASSWORD", "medconnect")
	name := getEnv("DB_NAME", "medconnect")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a single store round trip by the request's own context.
func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fallback
		}
		return d
	}
	return fallback
}

// getEnvDelay is getEnvDuration that also accepts zero.
func getEnvDelay(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}

	if len(out) == 0 {
		return fallback
	}
	return out
}
