package jobs

import (
	"backoffice_app_go/services"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const sessionCleanupSchedule = "@hourly"

// StartScheduler registers the expiration scan on schedule and an hourly
// session cleanup, then starts the cron. Stop the returned cron on shutdown.
func StartScheduler(database *gorm.DB, scanner *ExpirationScanner, schedule string, loc *time.Location) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(schedule, func() {
		log.Println("[CRON] Running document expiration scan...")
		RunExpirationScan(context.Background(), scanner)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scan schedule %q: %w", schedule, err)
	}

	_, err = c.AddFunc(sessionCleanupSchedule, func() {
		if _, err := services.CleanupExpiredSessions(database); err != nil {
			log.Printf("[CRON] Session cleanup failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule session cleanup: %w", err)
	}

	c.Start()
	log.Printf("[CRON] Scheduler started (scan %q, %s)", schedule, loc)
	return c, nil
}

// RunExpirationScan runs one scan and logs its outcome; for cron callers
// that have nowhere to return an error.
func RunExpirationScan(ctx context.Context, scanner *ExpirationScanner) {
	_, err := scanner.Run(ctx)
	if errors.Is(err, ErrScanInProgress) {
		return
	}
	if err != nil {
		log.Printf("[CRON] Expiration scan failed: %v", err)
	}
}
