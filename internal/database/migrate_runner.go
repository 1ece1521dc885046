package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"townsquare/internal/middleware"

	"gorm.io/gorm"
)

// MigrationStore records which schema versions the database carries.
type MigrationStore interface {
	GetAppliedMigrations(ctx context.Context) ([]int, error)
	ApplyMigration(ctx context.Context, m Migration) error
	RemoveMigration(ctx context.Context, version int) error
}

// MigrationLog is one applied schema version.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

type migrationStore struct {
	db *gorm.DB
}

func NewMigrationStore(db *gorm.DB) MigrationStore {
	return &migrationStore{db: db}
}

// GetAppliedMigrations returns applied versions in ascending order. A
// database that has never been migrated has none.
func (s *migrationStore) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	var versions []int
	err := s.db.WithContext(ctx).Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error
	switch {
	case err == nil:
		return versions, nil
	case errors.Is(err, gorm.ErrRecordNotFound), isMissingTableError(err):
		return []int{}, nil
	}
	return nil, fmt.Errorf("read schema versions: %w", err)
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// ApplyMigration runs the up script and records the version atomically.
func (s *migrationStore) ApplyMigration(ctx context.Context, m Migration) error {
	started := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("schema version %s: %w", m.String(), err)
		}
		return tx.Create(&MigrationLog{Version: m.Version, Name: m.Name}).Error
	})
	if err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "schema version applied",
		slog.String("schema_version", m.String()),
		slog.Duration("took", time.Since(started)),
	)
	return nil
}

func (s *migrationStore) RemoveMigration(ctx context.Context, version int) error {
	if err := s.db.WithContext(ctx).Where("version = ?", version).Delete(&MigrationLog{}).Error; err != nil {
		return fmt.Errorf("forget schema version %06d: %w", version, err)
	}
	return nil
}

// RunMigrations brings the database up to the newest embedded schema version.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return runMigrations(ctx, db, migrations)
}

func runMigrations(ctx context.Context, db *gorm.DB, registered []Migration) error {
	if err := db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("create migration_logs: %w", err)
	}

	store := NewMigrationStore(db)
	applied, err := store.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if err := validateAppliedVersions(applied, registered); err != nil {
		return err
	}

	todo := pendingMigrations(applied, registered)
	if len(todo) == 0 {
		middleware.Logger.DebugContext(ctx, "schema is current", slog.Int("versions", len(applied)))
		return nil
	}
	for _, m := range todo {
		if err := store.ApplyMigration(ctx, m); err != nil {
			return err
		}
	}
	middleware.Logger.InfoContext(ctx, "schema upgraded",
		slog.Int("applied", len(todo)),
		slog.String("schema_version", todo[len(todo)-1].String()),
	)
	return nil
}

func pendingMigrations(applied []int, registered []Migration) []Migration {
	var out []Migration
	for _, m := range registered {
		if !slices.Contains(applied, m.Version) {
			out = append(out, m)
		}
	}
	return out
}

// validateAppliedVersions refuses to run against a database migrated by a
// newer build.
func validateAppliedVersions(applied []int, registered []Migration) error {
	var unknown []string
	for _, version := range applied {
		known := slices.ContainsFunc(registered, func(m Migration) bool { return m.Version == version })
		if !known {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("database carries schema versions unknown to this build: %s", strings.Join(unknown, ", "))
}

// RollbackMigration reverts the newest applied schema version. Any other
// version is refused because later versions may depend on it.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("schema version %06d is not embedded in this build", version)
	}

	store := NewMigrationStore(db)
	applied, err := store.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("schema version %s is not applied", m.String())
	}
	if newest := applied[len(applied)-1]; newest != version {
		return fmt.Errorf("schema version %s is not the newest; roll back %06d first", m.String(), newest)
	}

	if err := db.WithContext(ctx).Exec(m.DownScript).Error; err != nil {
		return fmt.Errorf("roll back schema version %s: %w", m.String(), err)
	}
	if err := store.RemoveMigration(ctx, version); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "schema version rolled back", slog.String("schema_version", m.String()))
	return nil
}
