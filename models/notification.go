package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AudienceType identifies which actor table a recipient lives in. Each
// audience has its own channel namespace and REST prefix.
type AudienceType string

const (
	AudienceUser    AudienceType = "user"
	AudienceSalarie AudienceType = "salarie"
)

func (a AudienceType) Valid() bool {
	return a == AudienceUser || a == AudienceSalarie
}

// Priority levels shown by the feed, most urgent first.
type Priority string

const (
	PriorityCritique Priority = "critique"
	PriorityUrgent   Priority = "urgent"
	PriorityNormal   Priority = "normal"
	PriorityInfo     Priority = "info"
)

// Notification categories (the payload is a tagged union keyed by Type)
const (
	NotificationTypeDocumentExpiration       = "document_expiration"
	NotificationTypeMarcheDecision           = "marche_decision"
	NotificationTypeMarcheValidationAdmin    = "marche_validation_admin"
	NotificationTypeValidationProfileSalarie = "validation_profile_salarie"
	NotificationTypeTacheAssignee            = "tache_assignee"
	NotificationTypeCongeDecision            = "conge_decision"
	NotificationTypeNouvelleDemandeProfils   = "nouvelle_demande_profils"
	NotificationTypeEntretienValidation      = "entretien_validation"
	NotificationTypeEntretienValide          = "entretien_valide"
	NotificationTypeEntretienRejete          = "entretien_rejete"
	NotificationTypeReferenceSoumise         = "reference_soumise"
	NotificationTypeReferenceValidee         = "reference_validee"
	NotificationTypeReferenceRejetee         = "reference_rejetee"
	NotificationTypeDocumentMethodologie     = "document_methodologie"
	NotificationTypeGeneric                  = "generic"
)

// Source record kinds referenced by notifications
const (
	SourceRecordDocument           = "document"
	SourceRecordMarche             = "marche"
	SourceRecordTache              = "tache"
	SourceRecordSalarie            = "salarie"
	SourceRecordDemandeProfils     = "demande_profils"
	SourceRecordEntretien          = "entretien"
	SourceRecordReference          = "reference"
	SourceRecordMethodologie       = "methodologie"
	SourceRecordLegacyNotification = "legacy_notification"
)

// Notification is a persisted alert for one recipient. At most one unread
// row may exist per (audience, recipient, type, source record); the partial
// unique index enforces it for rows that reference a source record.
type Notification struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Targeting
	AudienceType AudienceType `gorm:"type:varchar(16);not null;index:idx_notifications_recipient;uniqueIndex:idx_notifications_pending,where:read_at IS NULL AND source_record_id <> ''" json:"audience_type"`
	RecipientID  string       `gorm:"type:uuid;not null;index:idx_notifications_recipient;uniqueIndex:idx_notifications_pending" json:"recipient_id"`
	SourceUserID *string      `gorm:"type:uuid" json:"source_user_id,omitempty"`

	// Content
	Type           string            `gorm:"type:varchar(64);not null;uniqueIndex:idx_notifications_pending" json:"type"`
	Title          string            `gorm:"not null" json:"title"`
	Body           string            `gorm:"type:text" json:"body"`
	Priority       Priority          `gorm:"type:varchar(16);not null;default:info" json:"priority"`
	ActionRequired bool              `gorm:"not null;default:false" json:"action_required"`
	Data           datatypes.JSONMap `json:"data"`

	// Loose reference to the record that triggered the alert (no foreign key)
	SourceRecordType string `gorm:"type:varchar(32);not null;default:'';uniqueIndex:idx_notifications_pending" json:"source_record_type,omitempty"`
	SourceRecordID   string `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_notifications_pending" json:"source_record_id,omitempty"`

	// Read tracking
	ReadAt *time.Time `json:"read_at,omitempty"`
	Done   bool       `gorm:"not null;default:false" json:"done"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// View flattens the notification into the wire shape sent to clients.
func (n *Notification) View() NotificationView {
	fields := make(map[string]any, len(n.Data))
	for k, v := range n.Data {
		fields[k] = v
	}
	if n.SourceRecordType != "" {
		fields["source_record_type"] = n.SourceRecordType
		fields["source_record_id"] = n.SourceRecordID
	}
	return NotificationView{
		ID:             n.ID,
		Type:           n.Type,
		Title:          n.Title,
		Body:           n.Body,
		Priority:       n.Priority,
		ActionRequired: n.ActionRequired,
		CreatedAt:      n.CreatedAt,
		ReadAt:         n.ReadAt,
		Done:           n.Done,
		SourceUserID:   n.SourceUserID,
		Fields:         fields,
	}
}
