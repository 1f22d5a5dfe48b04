// Package database opens the Postgres connection and implements the store
// used by the services.
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/lildude/strengthboard/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrNoDSN is returned by InitDB when no connection string is configured.
	ErrNoDSN = errors.New("DATABASE_URL is not set")
	// ErrExists reports a unique constraint violation.
	ErrExists = errors.New("record already exists")
)

// Config holds the connection settings for InitDB.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// GormConfig is shared by production and test connections.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
}

// InitDB initializes the database connection and performs schema migration.
func InitDB(cfg Config) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, ErrNoDSN
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
