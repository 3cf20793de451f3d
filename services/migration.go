package services

import (
	"backoffice_app_go/models"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const migrationBatchSize = 200

// MigrationResult summarises a one-shot data migration.
type MigrationResult struct {
	Scanned  int
	Migrated int
	Skipped  int
}

// MigrateLegacyNotifications copies legacy_notifications into notifications
// as generic staff notifications. Rows already copied are skipped, so the
// migration can be run again safely.
func MigrateLegacyNotifications(ctx context.Context, db *gorm.DB) (*MigrationResult, error) {
	result := &MigrationResult{}
	var batch []models.LegacyNotification

	err := db.WithContext(ctx).FindInBatches(&batch, migrationBatchSize, func(tx *gorm.DB, _ int) error {
		for _, old := range batch {
			result.Scanned++
			sourceID := strconv.FormatUint(uint64(old.ID), 10)

			var count int64
			err := db.WithContext(ctx).Model(&models.Notification{}).
				Where("source_record_type = ? AND source_record_id = ?", models.SourceRecordLegacyNotification, sourceID).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				result.Skipped++
				continue
			}

			n := &models.Notification{
				CreatedAt:        old.CreatedAt,
				UpdatedAt:        old.UpdatedAt,
				AudienceType:     models.AudienceUser,
				RecipientID:      old.UserID,
				Type:             models.NotificationTypeGeneric,
				Title:            old.Titre,
				Body:             old.Commentaire,
				Priority:         models.PriorityInfo,
				SourceRecordType: models.SourceRecordLegacyNotification,
				SourceRecordID:   sourceID,
				ReadAt:           old.ReadAt,
				Data: map[string]interface{}{
					"legacy_type": old.Type,
					"icon":        PriorityIcon(models.PriorityInfo),
				},
			}
			if err := db.WithContext(ctx).Create(n).Error; err != nil {
				return fmt.Errorf("legacy notification %d: %w", old.ID, err)
			}
			result.Migrated++
		}
		return nil
	}).Error
	if err != nil {
		return result, fmt.Errorf("failed to migrate legacy notifications: %w", err)
	}

	log.Printf("[MIGRATE] Legacy notifications: %d scanned, %d migrated, %d already present", result.Scanned, result.Migrated, result.Skipped)
	return result, nil
}

// legacyDateLayouts are the formats found in fichiers_joints.date_upload
var legacyDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseLegacyDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// MigrateDossierFiles expands the fichiers_joints JSON of each tender file
// into documents_dossier rows. An entry whose (dossier, path) pair already
// exists is skipped.
func MigrateDossierFiles(ctx context.Context, db *gorm.DB, now time.Time) (*MigrationResult, error) {
	result := &MigrationResult{}
	var batch []models.DossierMarche

	err := db.WithContext(ctx).Where("fichiers_joints IS NOT NULL").
		FindInBatches(&batch, migrationBatchSize, func(tx *gorm.DB, _ int) error {
			for _, dossier := range batch {
				migrated := 0
				for _, f := range dossier.FichiersJoints {
					result.Scanned++

					var count int64
					err := db.WithContext(ctx).Model(&models.DocumentDossier{}).
						Where("dossier_marche_id = ? AND chemin_fichier = ?", dossier.ID, f.Chemin).
						Count(&count).Error
					if err != nil {
						return err
					}
					if count > 0 {
						result.Skipped++
						continue
					}

					doc := &models.DocumentDossier{
						DossierMarcheID: dossier.ID,
						TypeAttachment:  models.AttachmentFichierSpecifique,
						NomFichier:      orUnknown(f.NomFichier),
						NomOriginal:     orUnknown(f.NomOriginal),
						CheminFichier:   f.Chemin,
						TypeMime:        f.Type,
						TailleFichier:   f.Taille,
						UploadedBy:      f.UploadedBy,
						DateUpload:      parseLegacyDate(f.DateUpload),
					}
					if doc.DateUpload == nil {
						doc.DateUpload = &now
					}
					if err := db.WithContext(ctx).Create(doc).Error; err != nil {
						return fmt.Errorf("dossier %s: %w", dossier.ID, err)
					}
					migrated++
					result.Migrated++
				}
				log.Printf("[MIGRATE] Dossier %s: %d file(s) migrated", dossier.ID, migrated)
			}
			return nil
		}).Error
	if err != nil {
		return result, fmt.Errorf("failed to migrate dossier files: %w", err)
	}

	log.Printf("[MIGRATE] Dossier files: %d scanned, %d migrated, %d already present", result.Scanned, result.Migrated, result.Skipped)
	return result, nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
