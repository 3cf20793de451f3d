package models

import (
	"time"
)

type Session struct {
	ID        string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ActorType AudienceType `gorm:"type:varchar(16);not null;index:idx_sessions_actor" json:"actor_type"`
	ActorID   string       `gorm:"type:uuid;not null;index:idx_sessions_actor" json:"actor_id"`
	Token     string       `gorm:"uniqueIndex;not null;type:varchar(128)" json:"-"`
	ExpiresAt time.Time    `gorm:"not null;index" json:"expires_at"`
	IPAddress string       `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent string       `gorm:"type:text" json:"user_agent"`
}

// TableName specifies the table name for Session model
func (Session) TableName() string {
	return "sessions"
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
