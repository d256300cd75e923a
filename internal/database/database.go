// Package database handles database connections, schema management and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"foodshare/internal/config"
	"foodshare/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQuery is the latency past which a statement is logged at warn.
const slowQuery = 200 * time.Millisecond

// GormLogger sends gorm's statement log to slog. Record-not-found is not
// treated as an error since lookups return it for every miss.
type GormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// NewGormLogger logs errors and slow statements only.
func NewGormLogger(l *slog.Logger) *GormLogger {
	return &GormLogger{
		logger: l,
		Config: logger.Config{SlowThreshold: slowQuery, LogLevel: logger.Warn, IgnoreRecordNotFoundError: true},
	}
}

// LogMode returns a copy logging at level.
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.Config.LogLevel = level
	return &cp
}

func (l *GormLogger) enabled(level logger.LogLevel) bool {
	return l.Config.LogLevel >= level
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.enabled(logger.Info) {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.enabled(logger.Warn) {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.enabled(logger.Error) {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Trace logs one executed statement.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if !l.enabled(logger.Error) {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.Config.SlowThreshold > 0 && elapsed > l.Config.SlowThreshold

	var level slog.Level
	var msg string
	switch {
	case failed:
		level, msg = slog.LevelError, "sql statement failed"
	case slow && l.enabled(logger.Warn):
		level, msg = slog.LevelWarn, "slow sql statement"
	case l.enabled(logger.Info):
		level, msg = slog.LevelInfo, "sql statement"
	default:
		return
	}

	stmt, rows := fc()
	attrs := []slog.Attr{slog.String("sql", stmt), slog.Int64("rows", rows), slog.Duration("elapsed", elapsed)}
	if failed {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

// PostgresDSN is the key/value connection string for cfg. SSL defaults to off.
func PostgresDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, sslMode)
}

// Connect opens the relational store selected by DB_DRIVER and applies the schema policy.
func Connect(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := ApplySchema(ctx, db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

// Open connects without touching the schema. Migration tooling uses it.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(PostgresDSN(cfg))
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("database driver %q has no relational backend", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(middleware.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	middleware.Logger.Info("database connected", "driver", cfg.DBDriver)

	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

// OpenSQLite opens a sqlite database (":memory:" for an ephemeral one) with
// the full schema auto-migrated. Used by tests and local tooling.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: NewGormLogger(middleware.Logger).LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := runAutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return db, nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	switch cfg.DBDriver {
	case config.DriverSQLite:
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
	default:
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	return nil
}
