package main

import (
	"backoffice_app_go/config"
	"backoffice_app_go/db"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"context"
	"log"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	if err := db.AutoMigrate(database, models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("[MIGRATE] Copying legacy notifications...")

	result, err := services.MigrateLegacyNotifications(context.Background(), database)
	if err != nil {
		log.Fatalf("[MIGRATE] Legacy notification migration failed: %v", err)
	}

	log.Printf("[MIGRATE] Done: %d scanned, %d migrated, %d already present", result.Scanned, result.Migrated, result.Skipped)
}
