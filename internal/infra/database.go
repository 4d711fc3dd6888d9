package infra

import (
	"fmt"
	"strings"
	"time"

	"posengine/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection for the configured driver
// (postgres | mysql | sqlite), runs AutoMigrate for every model, then applies
// the idempotent SQL patches that GORM cannot express (partial indexes).
func NewDatabase(driver, dsn string) (*gorm.DB, error) {
	driver = strings.ToLower(driver)

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// One connection serializes every transaction; SQLite has no row locks.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := Migrate(db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates / updates all tables and applies schema patches.
func Migrate(db *gorm.DB, driver string) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db, driver); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
// MySQL has no partial indexes; there the single-active-shift rule relies on
// the user row lock taken when a shift starts.
func applySchemaPatches(db *gorm.DB, driver string) error {
	if driver == "mysql" {
		return nil
	}
	patches := []string{
		// At most one active shift per user.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_active_per_user
		     ON shifts (user_id) WHERE status = 'active'`,
		`CREATE INDEX IF NOT EXISTS idx_shifts_pending
		     ON shifts (end_time) WHERE status = 'pending_approval'`,
	}
	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
