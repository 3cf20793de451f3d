package services

import (
	"backoffice_app_go/models"
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// DedupKey identifies the pending notification a new one would duplicate.
type DedupKey struct {
	Audience         models.AudienceType
	RecipientID      string
	Type             string
	SourceRecordType string
	SourceRecordID   string
}

func DedupKeyFor(n *models.Notification) DedupKey {
	return DedupKey{
		Audience:         n.AudienceType,
		RecipientID:      n.RecipientID,
		Type:             n.Type,
		SourceRecordType: n.SourceRecordType,
		SourceRecordID:   n.SourceRecordID,
	}
}

// DeduplicationGuard creates a notification unless an unread one already
// exists for the same recipient, type and source record. The lookup and the
// insert share a transaction and the partial unique index on notifications
// rejects whatever a concurrent writer slips in between.
type DeduplicationGuard struct {
	DB *gorm.DB
}

func NewDeduplicationGuard(db *gorm.DB) *DeduplicationGuard {
	return &DeduplicationGuard{DB: db}
}

// Pending returns true if an unread notification matches key.
func (g *DeduplicationGuard) Pending(ctx context.Context, key DedupKey) (bool, error) {
	return pendingExists(g.DB.WithContext(ctx), key)
}

// CreateIfAbsent persists n and reports whether it was created. A
// notification without a source record is never deduplicated.
func (g *DeduplicationGuard) CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	if n.SourceRecordID == "" {
		if err := g.DB.WithContext(ctx).Create(n).Error; err != nil {
			return false, fmt.Errorf("failed to create notification: %w", err)
		}
		return true, nil
	}

	key := DedupKeyFor(n)
	created := false
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := pendingExists(tx, key)
		if err != nil {
			// Fail open: a failed lookup never suppresses the notification
			log.Printf("[DISPATCH] Duplicate lookup failed for %s %s/%s, creating anyway: %v",
				key.Type, key.SourceRecordType, key.SourceRecordID, err)
		} else if exists {
			return nil
		}

		if err := tx.Create(n).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}
	return created, nil
}

func pendingExists(db *gorm.DB, key DedupKey) (bool, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("audience_type = ? AND recipient_id = ? AND type = ?", key.Audience, key.RecipientID, key.Type).
		Where("source_record_type = ? AND source_record_id = ?", key.SourceRecordType, key.SourceRecordID).
		Where("read_at IS NULL").
		Count(&count).Error
	return count > 0, err
}
