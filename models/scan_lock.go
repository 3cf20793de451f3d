package models

import "time"

// ScanLock is a named advisory lock row. A lock whose ExpiresAt is in the
// past is stale and may be taken over.
type ScanLock struct {
	Name       string    `gorm:"primarykey;type:varchar(64)"`
	Holder     string    `gorm:"type:varchar(64);not null"`
	AcquiredAt time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"not null"`
}

func (ScanLock) TableName() string {
	return "scan_locks"
}
