package database

import (
	"fmt"
	"log"

	"kaisey-backend/pkg/config"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// MemoryDSN is an in-process SQLite database shared by all pool connections
const MemoryDSN = "file::memory:?cache=shared"

// NewConnection opens the database selected by cfg.DBDriver
func NewConnection(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for driver %q", cfg.DBDriver)
		}
		dialector = postgres.Open(cfg.DatabaseURL)
	case DriverSQLite:
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "kaisey.db"
		}
		dialector = sqlite.Open(dsn)
	case DriverMemory, "":
		dialector = sqlite.Open(MemoryDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("[Database] Connected using driver %s", driverName(cfg.DBDriver))
	return db, nil
}

func driverName(d string) string {
	if d == "" {
		return DriverMemory
	}
	return d
}
