package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Periodicity is the renewal cadence of a compliance document.
type Periodicity string

const (
	PeriodicityMonthly   Periodicity = "monthly"
	PeriodicityQuarterly Periodicity = "quarterly"
	PeriodicityBiannual  Periodicity = "biannual"
	PeriodicityAnnual    Periodicity = "annual"
)

// Periodicities lists the recognised cadences, shortest first.
var Periodicities = []Periodicity{PeriodicityMonthly, PeriodicityQuarterly, PeriodicityBiannual, PeriodicityAnnual}

var periodicityAliases = map[string]Periodicity{
	"monthly":     PeriodicityMonthly,
	"mensuel":     PeriodicityMonthly,
	"quarterly":   PeriodicityQuarterly,
	"trimestriel": PeriodicityQuarterly,
	"biannual":    PeriodicityBiannual,
	"semestriel":  PeriodicityBiannual,
	"annual":      PeriodicityAnnual,
	"annuel":      PeriodicityAnnual,
}

// ParsePeriodicity normalises English and French spellings. The second
// return value is false for anything else, including "".
func ParsePeriodicity(s string) (Periodicity, bool) {
	p, ok := periodicityAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// Months returns the renewal interval in months (12 for unknown values).
func (p Periodicity) Months() int {
	switch p {
	case PeriodicityMonthly:
		return 1
	case PeriodicityQuarterly:
		return 3
	case PeriodicityBiannual:
		return 6
	default:
		return 12
	}
}

// FixedDocumentTypes maps the recurring compliance documents whose cadence
// is imposed to their periodicity. Supplementary documents choose their own.
var FixedDocumentTypes = map[string]Periodicity{
	"RC Mod.09":                     PeriodicityAnnual,
	"RC Mod.07":                     PeriodicityQuarterly,
	"Attestation fiscal":            PeriodicityAnnual,
	"Agrément":                      PeriodicityAnnual,
	"Chiffre d'affaires":            PeriodicityAnnual,
	"Attestation CNSS":              PeriodicityAnnual,
	"Attestation salaries declares": PeriodicityMonthly,
	"Bordereaux CNSS":               PeriodicityMonthly,
	"Déclaration salaires":          PeriodicityMonthly,
	"Attestation affiliation CNSS":  PeriodicityQuarterly,
}

// Document is an expiring compliance artifact. Renewal archives the record
// and creates a new active one; documents are never hard-deleted.
type Document struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Type            string      `gorm:"not null;index" json:"type"`
	Code            string      `json:"code,omitempty"`
	Periodicity     Periodicity `gorm:"type:varchar(16);not null" json:"periodicite"`
	IsComplementary bool        `gorm:"not null;default:false;index:idx_documents_active" json:"is_complementary"`
	Archived        bool        `gorm:"not null;default:false;index:idx_documents_active" json:"archived"`
	ExpiresAt       *time.Time  `gorm:"index" json:"date_expiration"`
	Notes           string      `gorm:"type:text" json:"notes,omitempty"`

	// File metadata
	FileKey          string `json:"-"`
	FileOriginalName string `json:"file_original_name,omitempty"`
	FileSize         int64  `json:"file_size,omitempty"`
	MimeType         string `json:"mime_type,omitempty"`

	// Owner is a staff user or a salarie
	OwnerType AudienceType `gorm:"type:varchar(16);not null;default:user" json:"owner_type"`
	OwnerID   string       `gorm:"type:uuid;not null;index" json:"owner_id"`

	// Set on the archived record when a renewal supersedes it
	RenewedByID *string `gorm:"type:uuid" json:"renewed_by_id,omitempty"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.OwnerType == "" {
		d.OwnerType = AudienceUser
	}
	return nil
}

func (Document) TableName() string {
	return "documents"
}

// IsFixedCategory reports whether the document type has an imposed cadence.
func (d *Document) IsFixedCategory() bool {
	if d.IsComplementary {
		return false
	}
	_, ok := FixedDocumentTypes[d.Type]
	return ok
}

// EffectivePeriodicity resolves the cadence used for thresholds: the fixed
// table wins for fixed categories, otherwise the stored value is used.
func (d *Document) EffectivePeriodicity() Periodicity {
	if d.IsFixedCategory() {
		return FixedDocumentTypes[d.Type]
	}
	return d.Periodicity
}
