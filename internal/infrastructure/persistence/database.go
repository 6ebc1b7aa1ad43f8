package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/vendra/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds one pooled database connection and provides methods
// for transactions and pool diagnostics
type Database struct {
	DB *gorm.DB
}

// PoolBounds holds the connection pool limits applied to a Database
type PoolBounds struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// BoundsFromConfig converts a config database block to PoolBounds
func BoundsFromConfig(cfg *config.DatabaseConfig) PoolBounds {
	return PoolBounds{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetime) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTime) * time.Minute,
	}
}

// NewDatabase creates a new database connection for a configured block
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	return NewDatabaseFromDSN(cfg.DSN(), BoundsFromConfig(cfg), logger.Default.LogMode(logger.Silent))
}

// NewDatabaseWithCustomLogger creates a new database connection with a custom GORM logger
func NewDatabaseWithCustomLogger(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	return NewDatabaseFromDSN(cfg.DSN(), BoundsFromConfig(cfg), gormLogger)
}

// NewDatabaseFromDSN opens a pooled postgres connection for an arbitrary
// DSN. Used for per-tenant databases where the DSN comes from the
// catalog rather than from static configuration.
func NewDatabaseFromDSN(dsn string, bounds PoolBounds, gormLogger logger.Interface) (*Database, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(bounds.MaxOpenConns)
	sqlDB.SetMaxIdleConns(bounds.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(bounds.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(bounds.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// PingContext checks liveness with a bounded wait
func (d *Database) PingContext(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Stats returns connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}
