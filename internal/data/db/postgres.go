package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

func NewPostgresService(cfg Config, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "PostgresService")

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), gormConfig(logg, cfg.SlowThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	serviceLog.Info("Connected to Postgres", "host", cfg.PostgresHost, "db", cfg.PostgresName)
	return &Service{db: db, driver: DriverPostgres, log: serviceLog}, nil
}
