package main

import (
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/lumenforge/aac/internal/config"
	"github.com/lumenforge/aac/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Setup(cfg.AppEnv)
	log.Info("migrate_connecting", "database_url", cfg.DatabaseURL)

	m, err := migrate.New("file://"+cfg.MigrationsDir, cfg.DatabaseURL)
	if err != nil {
		log.Error("migrate_init_failed", "error", err)
		os.Exit(1)
	}

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Info("migrate_up_to_date")
			return
		}
		log.Error("migrate_failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrate_applied")
}
