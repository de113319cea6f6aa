package persistence

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/supportdesk/backend/internal/infrastructure/config"
	applogger "github.com/supportdesk/backend/internal/infrastructure/logger"
	"github.com/supportdesk/backend/internal/infrastructure/persistence/models"
)

// Database wraps the gorm connection shared by all repositories.
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens a connection with query logging silenced, used by
// the migrate command and tests that manage their own logging.
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	return newDatabase(cfg, gormlogger.Default.LogMode(gormlogger.Silent))
}

// NewDatabaseWithLogger opens a connection whose query logging goes
// through the application zap logger at the configured level.
func NewDatabaseWithLogger(cfg *config.DatabaseConfig, zapLogger *zap.Logger, logLevel string) (*Database, error) {
	return newDatabase(cfg, applogger.NewGormLogger(zapLogger, applogger.MapGormLogLevel(logLevel)))
}

func newDatabase(cfg *config.DatabaseConfig, gormLogger gormlogger.Interface) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}

	return &Database{DB: db}, nil
}

func configurePool(db *gorm.DB, cfg *config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// AutoMigrate creates or updates the schema for all persistence models.
// The migrate command applies versioned SQL migrations instead; this
// path covers development and tests.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(
		&models.OutboxEntryModel{},
		&models.QuoteModel{},
		&models.TicketModel{},
	)
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("access sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping reports whether the database connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("access sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
