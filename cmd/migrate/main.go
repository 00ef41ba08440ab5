package main

import (
	"context"
	"fmt"
	"os"

	"inventory-hub/internal/config"
	"inventory-hub/internal/database"
	"inventory-hub/internal/logger"
	"inventory-hub/migrations"

	"go.uber.org/zap"
)

const usage = "usage: migrate [up|down|status]"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error running migrations: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	dbService, err := database.New(context.Background(), cfg.Database)
	if err != nil {
		return err
	}
	defer dbService.Close()

	db := dbService.DB()
	log.Info("Running migration command", zap.String("command", command), zap.String("database", cfg.Database.Database))

	switch command {
	case "up":
		return database.RunMigrations(db, migrations.FS, log)
	case "down":
		return database.RollbackMigration(db, migrations.FS, log)
	case "status":
		return database.GetMigrationStatus(db, migrations.FS)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}
