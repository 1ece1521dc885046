// Command migrate manages the townsquare database schema.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"townsquare/internal/config"
	"townsquare/internal/database"

	"gorm.io/gorm"
)

const usageText = `usage: migrate <command> [args]

commands:
  up              apply every pending schema version
  auto            sync tables from the gorm models (refused in production)
  status          show the schema mode, current version and pending versions
  down <version>  roll back the newest schema version
`

var errUsage = errors.New("invalid arguments")

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	flag.Parse()

	if err := run(context.Background(), flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return err
		}
		return printStatus(ctx, db, cfg)
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return err
		}
		log.Println("tables synced from models")
	case "status":
		return printStatus(ctx, db, cfg)
	case "down":
		if len(args) < 2 {
			return errUsage
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("schema version %q is not a number", args[1])
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return err
		}
		return printStatus(ctx, db, cfg)
	default:
		return errUsage
	}
	return nil
}

func printStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return err
	}
	log.Printf("schema mode=%s env=%s current=%s pending=%d",
		status.Mode, status.Environment, status.Current(), len(status.PendingMigrations))
	for _, m := range status.PendingMigrations {
		log.Printf("  pending %s", m.String())
	}
	return nil
}
