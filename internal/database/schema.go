package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"townsquare/internal/config"
	"townsquare/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes accepted in DB_SCHEMA_MODE.
const (
	// SchemaModeHybrid runs the SQL versions, plus AutoMigrate outside production.
	SchemaModeHybrid = "hybrid"
	// SchemaModeSQL runs only the embedded SQL versions.
	SchemaModeSQL = "sql"
	// SchemaModeAuto runs only AutoMigrate and is refused in production.
	SchemaModeAuto = "auto"
)

// SchemaStatus is what ApplySchema would do for a config against a database.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// Current names the newest applied schema version, or "none".
func (s *SchemaStatus) Current() string {
	if len(s.AppliedVersions) == 0 {
		return "none"
	}
	newest := s.AppliedVersions[len(s.AppliedVersions)-1]
	if m := GetMigrationByVersion(newest); m != nil {
		return m.String()
	}
	return fmt.Sprintf("%06d", newest)
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func normalizedSchemaMode(cfg *config.Config) string {
	if mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)); mode != "" {
		return mode
	}
	return SchemaModeHybrid
}

// schemaPolicy decides which schema mechanisms run. AutoMigrate never
// touches a production-like database.
func schemaPolicy(cfg *config.Config) (runSQL bool, runAuto bool, err error) {
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode := normalizedSchemaMode(cfg); mode {
	case SchemaModeSQL:
		return true, false, nil
	case SchemaModeAuto:
		if prodLike {
			return false, false, fmt.Errorf("DB_SCHEMA_MODE=auto is not allowed in %q", cfg.Env)
		}
		return false, true, nil
	case SchemaModeHybrid:
		return true, !prodLike, nil
	default:
		return false, false, fmt.Errorf("unknown DB_SCHEMA_MODE %q (want hybrid, sql or auto)", mode)
	}
}

// AutoMigrate syncs every persistent model's table and indexes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema prepares the townsquare tables according to the schema mode.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return err
	}

	if runAuto {
		middleware.Logger.InfoContext(ctx, "syncing tables from models",
			slog.String("schema_mode", normalizedSchemaMode(cfg)),
			slog.Int("models", len(PersistentModels())),
		)
		if err := AutoMigrate(db); err != nil {
			return fmt.Errorf("sync tables from models: %w", err)
		}
	}
	if runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("upgrade schema: %w", err)
		}
	}
	return nil
}

// GetSchemaStatus reports the schema mode and the SQL versions still to run.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               normalizedSchemaMode(cfg),
		Environment:        cfg.Env,
		WillRunSQL:         runSQL,
		WillRunAutoMigrate: runAuto,
	}
	if !runSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	status.PendingMigrations = pendingMigrations(applied, GetMigrations())
	return status, nil
}
