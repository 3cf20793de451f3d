package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Decisions recorded by the general management on a tender
const (
	MarcheDecisionAccepte = "accepte"
	MarcheDecisionRefuse  = "refuse"
)

// MarchePublic is a public tender followed by the company.
type MarchePublic struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Reference  string     `gorm:"column:n_reference;not null;index" json:"reference"`
	Objet      string     `gorm:"type:text" json:"objet"`
	TypeAO     string     `gorm:"column:type_ao" json:"type_ao"`
	Estimation float64    `json:"estimation"`
	DateLimite *time.Time `json:"date_limite,omitempty"`

	Decision       string     `gorm:"type:varchar(16)" json:"decision,omitempty"`
	DateDecision   *time.Time `json:"date_decision,omitempty"`
	MotifRefus     string     `gorm:"type:text" json:"motif_refus,omitempty"`
	DecidedByID    *string    `gorm:"type:uuid" json:"decided_by_id,omitempty"`
	ValidationAsks int        `gorm:"not null;default:0" json:"validation_asks"`
}

func (m *MarchePublic) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

func (MarchePublic) TableName() string {
	return "marche_public"
}
