package db

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/social-graph/internal/config"
	applog "github.com/oggyb/social-graph/internal/logger"
)

// NewDB opens the configured database and migrates the schema.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(applog.Level())),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Dialector picks the gorm driver for the configured backend.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql", "":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// Migrate keeps the schema in sync with the models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SQL statement logging only at debug.
func gormLogLevel(l slog.Level) logger.LogLevel {
	switch {
	case l <= slog.LevelDebug:
		return logger.Info
	case l <= slog.LevelWarn:
		return logger.Warn
	default:
		return logger.Error
	}
}
