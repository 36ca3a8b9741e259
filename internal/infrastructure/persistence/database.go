package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database is an open ledger store. PostgreSQL is the production backend;
// SQLite serves single-user ledgers and tests.
type Database struct {
	DB     *gorm.DB
	driver string
}

// OpenDatabase opens the configured driver and applies the pool limits.
// gormCfg carries the caller's logger, which lets the server plug in zap.
func OpenDatabase(cfg *config.DatabaseConfig, gormCfg *gorm.Config) (*Database, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	var dialector gorm.Dialector
	maxOpen := cfg.MaxOpenConns
	switch driver {
	case "sqlite":
		// One connection: sqlite serializes writers anyway, and ":memory:"
		// would otherwise give each connection its own empty ledger.
		dialector = sqlite.Open(cfg.Path)
		maxOpen = 1
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(cfg.MaxIdleConns, maxOpen))
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	d := &Database{DB: db, driver: driver}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s ledger: %w", driver, err)
	}
	return d, nil
}

// IsSQLite reports whether the ledger lives in a sqlite file. Its schema is
// created with AutoMigrate rather than the SQL migrations.
func (d *Database) IsSQLite() bool {
	return d.driver == "sqlite"
}

// System is the OpenTelemetry db.system value of the backend
func (d *Database) System() string {
	if d.IsSQLite() {
		return "sqlite"
	}
	return "postgresql"
}

// PingContext checks that the database answers
func (d *Database) PingContext(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
