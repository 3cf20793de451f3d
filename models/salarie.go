package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Salarie is a field employee. Employees log in separately from staff and
// receive notifications on their own channel namespace.
type Salarie struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Nom         string     `gorm:"not null" json:"nom"`
	Prenom      string     `json:"prenom"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Poste       string     `json:"poste,omitempty"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func (s *Salarie) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (Salarie) TableName() string {
	return "salaries"
}

// FullName returns "Nom Prenom" without dangling spaces.
func (s *Salarie) FullName() string {
	return strings.TrimSpace(s.Nom + " " + s.Prenom)
}
