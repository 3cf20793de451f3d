package main

import (
	"backoffice_app_go/config"
	"backoffice_app_go/db"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"context"
	"log"
	"time"
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

	log.Println("[MIGRATE] Expanding tender dossier attachments...")

	result, err := services.MigrateDossierFiles(context.Background(), database, time.Now())
	if err != nil {
		log.Fatalf("[MIGRATE] Dossier file migration failed: %v", err)
	}

	log.Printf("[MIGRATE] Done: %d attachments scanned, %d created, %d already present", result.Scanned, result.Migrated, result.Skipped)
}
