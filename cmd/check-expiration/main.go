package main

import (
	"backoffice_app_go/config"
	"backoffice_app_go/db"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"backoffice_app_go/services/jobs"
	"backoffice_app_go/services/realtime"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
)

// Runs one document expiration scan outside the server, e.g. from a
// system cron. Exits 1 when another scan holds the lock or the scan fails.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	if err := db.AutoMigrate(database, models.All()...); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Without Redis nobody is listening in this process: notifications are
	// only persisted and show up on the next list load.
	var broadcaster realtime.Broadcaster
	var locker services.Locker = services.NewDBLocker(database)
	if cfg.RedisURL != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		broadcaster = realtime.NewRedisBroadcaster(client, realtime.DefaultRedisPrefix)
		locker = services.NewRedisLocker(client)
	}

	dispatcher := services.NewDispatcher(database, broadcaster)
	if cfg.EmailCriticalAlerts {
		dispatcher.Mailer = services.NewResendMailer(cfg)
		dispatcher.CriticalEmail = true
	}

	loc := cfg.Location()
	scanner := jobs.NewExpirationScanner(database, dispatcher, services.ThresholdPolicyFromConfig(cfg), locker, loc)
	scanner.LockTTL = cfg.ScanLockTTL

	report, err := scanner.Run(ctx)
	dispatcher.Wait()
	if errors.Is(err, jobs.ErrScanInProgress) {
		fmt.Fprintln(os.Stderr, "Another expiration scan is running, nothing done.")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Expiration scan failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Document expiration scan ===")
	fmt.Printf("  Scanned:       %d\n", report.Scanned)
	fmt.Printf("  Notified:      %d\n", report.Notified)
	fmt.Printf("  Deduplicated:  %d\n", report.Deduplicated)
	fmt.Printf("  Out of window: %d\n", report.OutOfWindow)
	fmt.Printf("  No expiration: %d\n", report.NoExpiration)
	fmt.Printf("  Missing owner: %d\n", report.MissingOwner)
	fmt.Printf("  Failed:        %d\n", report.Failed)
	fmt.Printf("  Duration:      %s\n", report.Duration)
}
