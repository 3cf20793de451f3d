package services

import (
	"backoffice_app_go/models"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotificationNotFound is returned when the id does not belong to the actor
var ErrNotificationNotFound = errors.New("notification not found")

// DefaultUnreadPreviewLimit caps the unread preview list
const DefaultUnreadPreviewLimit = 10

// NotificationService is the read side of the feed: every query is scoped
// to one (audience, recipient) pair.
type NotificationService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db, Now: time.Now}
}

func (s *NotificationService) scoped(ctx context.Context, audience models.AudienceType, recipientID string) *gorm.DB {
	return s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("audience_type = ? AND recipient_id = ?", audience, recipientID)
}

// List returns the actor's notifications, most recent first.
func (s *NotificationService) List(ctx context.Context, audience models.AudienceType, recipientID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	q := s.scoped(ctx, audience, recipientID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) GetUnreadNotifications(ctx context.Context, audience models.AudienceType, recipientID string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	q := s.scoped(ctx, audience, recipientID).Where("read_at IS NULL").Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) GetNotificationCount(ctx context.Context, audience models.AudienceType, recipientID string) (int64, error) {
	var count int64
	err := s.scoped(ctx, audience, recipientID).Where("read_at IS NULL").Count(&count).Error
	return count, err
}

// MarkAsRead flags one notification read. An already read notification
// keeps its original read_at.
func (s *NotificationService) MarkAsRead(ctx context.Context, audience models.AudienceType, recipientID, notificationID string) (*models.Notification, error) {
	var n models.Notification
	err := s.scoped(ctx, audience, recipientID).Where("id = ?", notificationID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	if n.ReadAt != nil {
		return &n, nil
	}

	now := s.Now()
	err = s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", n.ID).
		Update("read_at", now).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification as read: %w", err)
	}
	n.ReadAt = &now
	return &n, nil
}

// MarkAllAsRead flags every unread notification of the actor and returns
// how many changed. Running it again returns 0.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, audience models.AudienceType, recipientID string) (int64, error) {
	result := s.scoped(ctx, audience, recipientID).
		Where("read_at IS NULL").
		Update("read_at", s.Now())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Delete removes one notification of the actor.
func (s *NotificationService) Delete(ctx context.Context, audience models.AudienceType, recipientID, notificationID string) error {
	result := s.DB.WithContext(ctx).
		Where("audience_type = ? AND recipient_id = ? AND id = ?", audience, recipientID, notificationID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkDoneForSource flags the pending notifications of a source record as
// done, e.g. once a document has been renewed.
func (s *NotificationService) MarkDoneForSource(ctx context.Context, sourceType, sourceID string) (int64, error) {
	return markDoneForSource(s.DB.WithContext(ctx), sourceType, sourceID)
}

func markDoneForSource(db *gorm.DB, sourceType, sourceID string) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("source_record_type = ? AND source_record_id = ? AND read_at IS NULL AND done = ?", sourceType, sourceID, false).
		Update("done", true)
	return result.RowsAffected, result.Error
}
