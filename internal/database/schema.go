package database

import (
	"context"
	"fmt"
	"strings"

	"foodshare/internal/config"
	"foodshare/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeSQL  = "sql"
	SchemaModeAuto = "auto"
)

// SchemaStatus is what ApplySchema would do for a config plus, in SQL mode,
// the embedded migration version the database is at.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	Version            uint
	Dirty              bool
}

// schemaPlan is the resolved schema strategy. Exactly one of sql and auto is
// set for a valid config.
type schemaPlan struct {
	mode string
	sql  bool
	auto bool
}

var prodLikeEnvs = map[string]bool{"production": true, "prod": true, "staging": true, "stage": true}

func prodLike(env string) bool {
	return prodLikeEnvs[strings.ToLower(strings.TrimSpace(env))]
}

// planSchema resolves DB_SCHEMA_MODE. An empty mode means sql in prod-like
// environments and auto elsewhere. SQL migrations only exist for postgres, and
// AutoMigrate is refused against a prod-like postgres.
func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.mode == "" {
		plan.mode = SchemaModeAuto
		if prodLike(cfg.Env) {
			plan.mode = SchemaModeSQL
		}
	}

	postgres := cfg.DBDriver == config.DriverPostgres
	switch plan.mode {
	case SchemaModeSQL:
		if !postgres {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=sql requires DB_DRIVER=postgres, got %q", cfg.DBDriver)
		}
		plan.sql = true
	case SchemaModeAuto:
		if postgres && prodLike(cfg.Env) {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q; use DB_SCHEMA_MODE=sql", cfg.Env)
		}
		plan.auto = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.mode)
	}
	return plan, nil
}

func runAutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema migrates db with the strategy DB_SCHEMA_MODE selects.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.sql {
		if err := MigrateUp(db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
		return nil
	}

	middleware.Logger.InfoContext(ctx, "auto-migrating schema", "driver", cfg.DBDriver, "env", cfg.Env)
	if err := runAutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan for cfg without applying it.
func GetSchemaStatus(db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.auto,
	}
	if plan.sql {
		if status.Version, status.Dirty, err = MigrationVersion(db); err != nil {
			return nil, err
		}
	}
	return status, nil
}
