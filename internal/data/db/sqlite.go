package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
)

// NewSQLiteService opens a file or in-memory SQLite store. The pool is
// pinned to one connection: SQLite serializes writers anyway and an
// in-memory database lives only as long as its connection.
func NewSQLiteService(cfg Config, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "SQLiteService")

	path := strings.TrimSpace(cfg.SQLitePath)
	if path == "" {
		path = "studentpulse.db"
	}
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig(logg, cfg.SlowThreshold))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	serviceLog.Info("Opened SQLite", "path", path)
	return &Service{db: db, driver: DriverSQLite, log: serviceLog}, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if strings.Contains(path, "_foreign_keys") {
		return path
	}
	return path + sep + "_foreign_keys=on"
}
