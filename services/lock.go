package services

import (
	"backoffice_app_go/models"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrLockHeld is returned by TryLock when another holder owns the lock
var ErrLockHeld = errors.New("lock is held by another process")

// Locker hands out named advisory locks. The returned release function is
// safe to call more than once. A lock not released within ttl expires.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), err error)
}

// DBLocker keeps locks as rows of scan_locks. A row whose expiry is in the
// past is taken over.
type DBLocker struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewDBLocker(db *gorm.DB) *DBLocker {
	return &DBLocker{DB: db, Now: time.Now}
}

func (l *DBLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	holder := uuid.New().String()
	now := l.Now()
	db := l.DB.WithContext(ctx)

	// Take over a stale lock
	takeover := db.Model(&models.ScanLock{}).
		Where("name = ? AND expires_at < ?", name, now).
		Updates(map[string]interface{}{"holder": holder, "acquired_at": now, "expires_at": now.Add(ttl)})
	if takeover.Error != nil {
		return nil, fmt.Errorf("failed to take over lock %s: %w", name, takeover.Error)
	}

	if takeover.RowsAffected == 0 {
		err := db.Create(&models.ScanLock{Name: name, Holder: holder, AcquiredAt: now, ExpiresAt: now.Add(ttl)}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrLockHeld
		}
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
		}
	}

	log.Printf("[LOCK] Acquired %s (holder %s)", name, holder)
	return func() {
		// Only the holder may delete the row
		err := l.DB.Where("name = ? AND holder = ?", name, holder).Delete(&models.ScanLock{}).Error
		if err != nil {
			log.Printf("[LOCK] Failed to release %s: %v", name, err)
		}
	}, nil
}
