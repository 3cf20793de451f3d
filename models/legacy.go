package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LegacyNotification is the pre-migration notification table. Rows are
// copied into notifications by the one-shot migration.
type LegacyNotification struct {
	ID          uint       `gorm:"primarykey"`
	UserID      string     `gorm:"not null;index"`
	Titre       string     `gorm:"not null"`
	Commentaire string     `gorm:"type:text"`
	Type        string
	ReadAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (LegacyNotification) TableName() string {
	return "legacy_notifications"
}

// LegacyAttachment is one entry of DossierMarche.FichiersJoints.
type LegacyAttachment struct {
	NomFichier  string `json:"nom_fichier"`
	NomOriginal string `json:"nom_original"`
	Chemin      string `json:"chemin"`
	Type        string `json:"type"`
	Taille      int64  `json:"taille"`
	UploadedBy  string `json:"uploaded_by"`
	DateUpload  string `json:"date_upload"`
}

// DossierMarche is a tender application file. FichiersJoints holds the
// attachments as a JSON array from before they got their own table.
type DossierMarche struct {
	ID             string                                `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt      time.Time                             `json:"created_at"`
	UpdatedAt      time.Time                             `json:"updated_at"`
	MarcheID       string                                `gorm:"type:uuid;index" json:"marche_id"`
	Nom            string                                `json:"nom"`
	FichiersJoints datatypes.JSONSlice[LegacyAttachment] `json:"fichiers_joints,omitempty"`
}

func (d *DossierMarche) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

func (DossierMarche) TableName() string {
	return "dossiers_marche"
}

// Attachment kinds for DocumentDossier
const (
	AttachmentFichierSpecifique = "fichier_specifique"
	AttachmentDocumentPermanent = "document_permanent"
)

// DocumentDossier attaches a file (or a permanent compliance document) to a
// tender application file.
type DocumentDossier struct {
	ID              string     `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DossierMarcheID string     `gorm:"type:uuid;not null;index" json:"dossier_marche_id"`
	DocumentID      *string    `gorm:"type:uuid" json:"document_id,omitempty"`
	TypeAttachment  string     `gorm:"not null" json:"type_attachment"`
	NomFichier      string     `json:"nom_fichier"`
	NomOriginal     string     `json:"nom_original"`
	CheminFichier   string     `gorm:"index" json:"chemin_fichier"`
	TypeMime        string     `json:"type_mime,omitempty"`
	TailleFichier   int64      `json:"taille_fichier,omitempty"`
	UploadedBy      string     `json:"uploaded_by,omitempty"`
	DateUpload      *time.Time `json:"date_upload,omitempty"`
}

func (d *DocumentDossier) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

func (DocumentDossier) TableName() string {
	return "documents_dossier"
}
