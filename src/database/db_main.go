package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ordermonitor/src/model"
)

// MainDB is the exception journal connection. It stays nil when ENABLE_DB
// is false.
var MainDB *gorm.DB

// dialectorFor picks the gorm driver from the DSN.
func dialectorFor(dsn string) (gorm.Dialector, string) {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "postgres://"),
		strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "host="):
		return postgres.Open(dsn), "postgres"
	default:
		return sqlite.Open(dsn), "sqlite"
	}
}

// Open connects to dsn and migrates the journal schema.
func Open(config Config) (*gorm.DB, error) {
	dialector, driver := dialectorFor(config.DatabaseURLMain)
	db, err := gorm.Open(dialector,
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if err := db.AutoMigrate(&model.Exception{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations on %s database: %w", driver, err)
	}

	logrus.WithField("driver", driver).Info("[database] exception journal ready")
	return db, nil
}

// InitMainDB opens the journal when ENABLE_DB is set. With the journal
// disabled MainDB stays nil and captured exceptions are only logged.
func InitMainDB() error {
	config := GetConfig()
	if !config.EnableDB {
		logrus.Info("[database] ENABLE_DB=false, exception journal disabled")
		return nil
	}

	db, err := Open(config)
	if err != nil {
		return err
	}

	// Assign to the global variable only after a successful connection.
	MainDB = db
	return nil
}

// Close releases the journal connection if one is open.
func Close() error {
	if MainDB == nil {
		return nil
	}
	sqlDB, err := MainDB.DB()
	if err != nil {
		return err
	}
	MainDB = nil
	return sqlDB.Close()
}
