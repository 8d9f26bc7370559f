package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/studentpulse-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureIndexes adds indexes gorm tags cannot express. The statements are
// valid on both Postgres and SQLite.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_student_email_lower",
			sql:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_student_email_lower ON student (lower(email));`,
		},
		{
			name: "idx_prediction_created_at",
			sql:  `CREATE INDEX IF NOT EXISTS idx_prediction_created_at ON prediction (created_at);`,
		},
		{
			name: "idx_student_user_id_unique",
			sql:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_student_user_id_unique ON student (user_id) WHERE user_id IS NOT NULL;`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(s.db); err != nil {
		s.log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
