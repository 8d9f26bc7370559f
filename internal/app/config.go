package app

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/studentpulse-backend/internal/data/db"
	"github.com/yungbote/studentpulse-backend/internal/http/middleware"
	"github.com/yungbote/studentpulse-backend/internal/observability"
	"github.com/yungbote/studentpulse-backend/internal/platform/envutil"
	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
	"github.com/yungbote/studentpulse-backend/internal/realtime/bus"
	"github.com/yungbote/studentpulse-backend/internal/services"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	LogMode string
	Port    string

	DB    db.Config
	Auth  services.AuthConfig
	Redis bus.RedisConfig
	Otel  observability.OtelConfig

	MetricsEnabled bool
	// MetricsAddr serves /metrics on its own listener; empty mounts it on the API router.
	MetricsAddr string

	CORSOrigins         []string
	BackfillConcurrency int
}

// LoadDotEnv reads .env files when present. Real environment variables win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		LogMode: envutil.String("LOG_MODE", "development"),
		Port:    envutil.String("PORT", "8080"),
		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "studentpulse"),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:       envutil.String("SQLITE_PATH", "studentpulse.db"),
			MaxOpenConns:     envutil.Int("DB_MAX_OPEN_CONNS", 20),
			SlowThreshold:    time.Duration(envutil.Int("DB_SLOW_QUERY_MS", 200)) * time.Millisecond,
		},
		Auth: services.AuthConfig{
			JWTSecretKey:     envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
			AccessTTL:        envutil.Seconds("ACCESS_TOKEN_TTL", 30*time.Minute),
			RefreshTTL:       envutil.Seconds("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			AllowAdminSignup: envutil.Bool("ALLOW_ADMIN_SIGNUP", false),
		},
		Redis: bus.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_CHANNEL", "studentpulse:sse"),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "studentpulse"),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development"),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1.0),
		},
		MetricsEnabled:      envutil.Bool("METRICS_ENABLED", true),
		MetricsAddr:         envutil.String("METRICS_ADDR", ""),
		CORSOrigins:         envutil.List("CORS_ORIGINS", middleware.DefaultCORSOrigins),
		BackfillConcurrency: envutil.Int("BACKFILL_CONCURRENCY", 4),
	}
	if cfg.Auth.JWTSecretKey == defaultJWTSecret && log != nil {
		log.Warn("JWT_SECRET_KEY not set; using insecure default")
	}
	return cfg
}
