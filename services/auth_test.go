package services

import (
	"backoffice_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	password := "SecretPass123!"

	hash, err := HashPassword(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.True(t, VerifyPassword(hash, password))
	assert.False(t, VerifyPassword(hash, "WrongPass"))
}

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "karim", models.RoleAdmin)
	salarie := createTestSalarie(t, db, "Alaoui", "Sara")

	t.Run("staff user", func(t *testing.T) {
		id, err := Authenticate(db, models.AudienceUser, " KARIM@example.com ", "password123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, id)

		var reloaded models.User
		require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
		assert.NotNil(t, reloaded.LastLoginAt)
	})

	t.Run("salarie", func(t *testing.T) {
		id, err := Authenticate(db, models.AudienceSalarie, "alaoui.sara@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, salarie.ID, id)
	})

	t.Run("audiences do not share accounts", func(t *testing.T) {
		_, err := Authenticate(db, models.AudienceSalarie, "karim@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := Authenticate(db, models.AudienceUser, "karim@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		inactive := createTestUser(t, db, "parti", models.RoleStaff)
		require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

		_, err := Authenticate(db, models.AudienceUser, "parti@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	actorID := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	session, err := CreateSession(db, models.AudienceSalarie, actorID, "127.0.0.1", "TestAgent")
	require.NoError(t, err)
	assert.Len(t, session.Token, SessionTokenLength*2)
	assert.Equal(t, models.AudienceSalarie, session.ActorType)
	assert.Equal(t, actorID, session.ActorID)
	assert.WithinDuration(t, time.Now().Add(DefaultSessionDuration), session.ExpiresAt, 10*time.Second)

	valid, err := ValidateSession(db, session.Token)
	assert.NoError(t, err)
	assert.Equal(t, session.ID, valid.ID)

	_, err = ValidateSession(db, "invalid-token")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.NoError(t, DeleteSession(db, session.Token))

	_, err = ValidateSession(db, session.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpiry(t *testing.T) {
	db := setupTestDB(t)

	token := "expired-token"
	db.Create(&models.Session{
		ID:        "sess-expired",
		ActorType: models.AudienceUser,
		ActorID:   "user-exp",
		Token:     token,
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	})

	sess, err := ValidateSession(db, token)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Nil(t, sess)

	var count int64
	db.Model(&models.Session{}).Where("token = ?", token).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCleanupExpiredSessions(t *testing.T) {
	db := setupTestDB(t)

	db.Create(&models.Session{ID: "sess-valid", ActorType: models.AudienceUser, ActorID: "u1", Token: "valid", ExpiresAt: time.Now().Add(time.Hour)})
	db.Create(&models.Session{ID: "sess-expired-1", ActorType: models.AudienceUser, ActorID: "u1", Token: "exp1", ExpiresAt: time.Now().Add(-time.Hour)})
	db.Create(&models.Session{ID: "sess-expired-2", ActorType: models.AudienceSalarie, ActorID: "s1", Token: "exp2", ExpiresAt: time.Now().Add(-2 * time.Hour)})

	removed, err := CleanupExpiredSessions(db)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var remaining []models.Session
	db.Find(&remaining)
	require.Len(t, remaining, 1)
	assert.Equal(t, "sess-valid", remaining[0].ID)
}

func TestDeleteAllActorSessions(t *testing.T) {
	db := setupTestDB(t)
	later := time.Now().Add(time.Hour)

	db.Create(&models.Session{ID: "s1", ActorType: models.AudienceUser, ActorID: "same-id", Token: "t1", ExpiresAt: later})
	db.Create(&models.Session{ID: "s2", ActorType: models.AudienceUser, ActorID: "same-id", Token: "t2", ExpiresAt: later})
	db.Create(&models.Session{ID: "s3", ActorType: models.AudienceSalarie, ActorID: "same-id", Token: "t3", ExpiresAt: later})

	assert.NoError(t, DeleteAllActorSessions(db, models.AudienceUser, "same-id"))

	var count int64
	db.Model(&models.Session{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
