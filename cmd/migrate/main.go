package main

import (
	"fmt"
	"os"

	"github.com/stitts-dev/golf-prize-engine/internal/models"
	"github.com/stitts-dev/golf-prize-engine/pkg/config"
	"github.com/stitts-dev/golf-prize-engine/pkg/database"
	"github.com/stitts-dev/golf-prize-engine/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		logger.WithService("migrate").Fatal("Usage: migrate [up|down]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithService("migrate").Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.WithService("migrate")

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Info("Tables dropped successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}
	return nil
}

// dropTables drops in reverse dependency order.
func dropTables(db *database.DB) error {
	all := models.AllModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}
