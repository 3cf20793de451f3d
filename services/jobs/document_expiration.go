package jobs

import (
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"backoffice_app_go/services/metrics"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// ErrScanInProgress is returned when another scan holds the lock
var ErrScanInProgress = errors.New("expiration scan already in progress")

const (
	scanLockName       = "document-expiration-scan"
	defaultScanLockTTL = 30 * time.Minute
)

// ScanReport counts what one scan did with each active document.
type ScanReport struct {
	StartedAt    time.Time
	Duration     time.Duration
	Scanned      int
	Notified     int
	Deduplicated int
	OutOfWindow  int
	NoExpiration int
	MissingOwner int
	Failed       int
}

func (r *ScanReport) String() string {
	return fmt.Sprintf("scanned=%d notified=%d deduplicated=%d out_of_window=%d no_expiration=%d missing_owner=%d failed=%d duration=%s",
		r.Scanned, r.Notified, r.Deduplicated, r.OutOfWindow, r.NoExpiration, r.MissingOwner, r.Failed, r.Duration.Round(time.Millisecond))
}

// ExpirationScanner warns document owners when an active document enters
// its warning window: 0 <= days left <= threshold(periodicity). Records are
// processed one by one and a failing record never stops the scan.
type ExpirationScanner struct {
	DB         *gorm.DB
	Dispatcher *services.Dispatcher
	Policy     services.ThresholdPolicy
	Locker     services.Locker
	Location   *time.Location
	Metrics    *metrics.Metrics
	Now        func() time.Time
	LockTTL    time.Duration
}

func NewExpirationScanner(db *gorm.DB, dispatcher *services.Dispatcher, policy services.ThresholdPolicy, locker services.Locker, loc *time.Location) *ExpirationScanner {
	return &ExpirationScanner{
		DB:         db,
		Dispatcher: dispatcher,
		Policy:     policy,
		Locker:     locker,
		Location:   loc,
		Now:        time.Now,
		LockTTL:    defaultScanLockTTL,
	}
}

// Run performs one scan. It returns ErrScanInProgress without reading any
// record when another scan holds the lock.
func (s *ExpirationScanner) Run(ctx context.Context) (*ScanReport, error) {
	if s.Locker != nil {
		release, err := s.Locker.TryLock(ctx, scanLockName, s.LockTTL)
		if errors.Is(err, services.ErrLockHeld) {
			log.Printf("[JOB] Expiration scan skipped: another scan is running")
			return nil, ErrScanInProgress
		}
		if err != nil {
			return nil, err
		}
		defer release()
	}

	now := s.Now()
	started := time.Now()
	report := &ScanReport{StartedAt: now}
	defer func() {
		report.Duration = time.Since(started)
		s.Metrics.ObserveScan(report.Duration)
	}()

	var docs []models.Document
	if err := s.DB.WithContext(ctx).Where("archived = ?", false).Order("expires_at ASC").Find(&docs).Error; err != nil {
		log.Printf("[JOB] Error fetching documents for expiration scan: %v", err)
		return nil, fmt.Errorf("failed to load active documents: %w", err)
	}

	log.Printf("[JOB] Checking %d active documents for expiration", len(docs))

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		outcome := s.scanDocument(ctx, &docs[i], now)
		s.Metrics.IncScanRecord(outcome)

		switch outcome {
		case metrics.OutcomeNotified:
			report.Notified++
		case metrics.OutcomeDeduplicated:
			report.Deduplicated++
		case metrics.OutcomeOutOfWindow:
			report.OutOfWindow++
		case metrics.OutcomeNoExpiration:
			report.NoExpiration++
		case metrics.OutcomeMissingOwner:
			report.MissingOwner++
		default:
			report.Failed++
		}
	}

	log.Printf("[JOB] Expiration scan completed: %s", report)
	return report, nil
}

func (s *ExpirationScanner) scanDocument(ctx context.Context, doc *models.Document, now time.Time) string {
	if doc.ExpiresAt == nil {
		return metrics.OutcomeNoExpiration
	}

	days := services.DaysUntil(now, *doc.ExpiresAt, s.Location)
	if !services.WithinThreshold(days, s.Policy.ThresholdForDocument(doc)) {
		return metrics.OutcomeOutOfWindow
	}

	recipient, err := s.Dispatcher.Directory.FindRecipient(ctx, doc.OwnerType, doc.OwnerID)
	if errors.Is(err, services.ErrRecipientNotFound) {
		log.Printf("[JOB] Warning: owner %s %s of document %s (%s) not found, skipping", doc.OwnerType, doc.OwnerID, doc.ID, doc.Type)
		return metrics.OutcomeMissingOwner
	}
	if err != nil {
		log.Printf("[JOB] Error loading owner of document %s: %v", doc.ID, err)
		return metrics.OutcomeFailed
	}

	n, created, err := s.Dispatcher.Dispatch(ctx, recipient, services.DocumentExpirationPayload(doc, days, s.Location))
	if err != nil {
		log.Printf("[JOB] Error notifying %s about document %s (%s): %v", recipient.Name, doc.ID, doc.Type, err)
		return metrics.OutcomeFailed
	}
	if !created {
		return metrics.OutcomeDeduplicated
	}

	log.Printf("[JOB] Notification sent to %s for %s (expires in %d days, priority %s)", recipient.Name, doc.Type, days, n.Priority)
	return metrics.OutcomeNotified
}
