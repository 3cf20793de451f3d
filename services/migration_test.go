package services

import (
	"backoffice_app_go/models"
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateLegacyNotifications(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	user := createTestUser(t, db, "ancien", models.RoleStaff)

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	readAt := created.Add(time.Hour)
	unread := models.LegacyNotification{UserID: user.ID, Titre: "Dossier complet", Commentaire: "Le dossier AO-12 est prêt", Type: "dossier", CreatedAt: created}
	read := models.LegacyNotification{UserID: user.ID, Titre: "Réunion", Commentaire: "Lundi 9h", ReadAt: &readAt, CreatedAt: created}
	require.NoError(t, db.Create(&unread).Error)
	require.NoError(t, db.Create(&read).Error)

	result, err := MigrateLegacyNotifications(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 2, result.Migrated)

	var n models.Notification
	require.NoError(t, db.Where("source_record_id = ?", strconv.FormatUint(uint64(unread.ID), 10)).First(&n).Error)
	assert.Equal(t, models.AudienceUser, n.AudienceType)
	assert.Equal(t, user.ID, n.RecipientID)
	assert.Equal(t, models.NotificationTypeGeneric, n.Type)
	assert.Equal(t, "Dossier complet", n.Title)
	assert.Equal(t, models.PriorityInfo, n.Priority)
	assert.Equal(t, "dossier", n.Data["legacy_type"])
	assert.True(t, n.CreatedAt.Equal(created))
	assert.Nil(t, n.ReadAt)

	var migratedRead models.Notification
	require.NoError(t, db.Where("source_record_id = ?", strconv.FormatUint(uint64(read.ID), 10)).First(&migratedRead).Error)
	require.NotNil(t, migratedRead.ReadAt)
	assert.True(t, migratedRead.ReadAt.Equal(readAt))

	t.Run("second run is a no-op", func(t *testing.T) {
		again, err := MigrateLegacyNotifications(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Migrated)
		assert.Equal(t, 2, again.Skipped)

		var count int64
		db.Model(&models.Notification{}).Count(&count)
		assert.Equal(t, int64(2), count)
	})
}

func TestMigrateDossierFiles(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	dossier := models.DossierMarche{
		Nom: "AO-2025-04",
		FichiersJoints: []models.LegacyAttachment{
			{NomFichier: "cps_1.pdf", NomOriginal: "CPS.pdf", Chemin: "dossiers/1/cps_1.pdf", Type: "application/pdf", Taille: 1200, UploadedBy: "7", DateUpload: "2025-02-10 14:30:00"},
			{Chemin: "dossiers/1/annexe.pdf"},
		},
	}
	empty := models.DossierMarche{Nom: "AO-2025-05"}
	require.NoError(t, db.Create(&dossier).Error)
	require.NoError(t, db.Create(&empty).Error)

	result, err := MigrateDossierFiles(ctx, db, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Migrated)

	var docs []models.DocumentDossier
	require.NoError(t, db.Where("dossier_marche_id = ?", dossier.ID).Order("chemin_fichier ASC").Find(&docs).Error)
	require.Len(t, docs, 2)

	assert.Equal(t, "dossiers/1/annexe.pdf", docs[0].CheminFichier)
	assert.Equal(t, "unknown", docs[0].NomFichier)
	require.NotNil(t, docs[0].DateUpload)
	assert.True(t, docs[0].DateUpload.Equal(testNow))

	assert.Equal(t, models.AttachmentFichierSpecifique, docs[1].TypeAttachment)
	assert.Equal(t, "CPS.pdf", docs[1].NomOriginal)
	assert.Equal(t, int64(1200), docs[1].TailleFichier)
	assert.True(t, docs[1].DateUpload.Equal(time.Date(2025, 2, 10, 14, 30, 0, 0, time.UTC)))

	again, err := MigrateDossierFiles(ctx, db, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Migrated)
	assert.Equal(t, 2, again.Skipped)
}
