package services

import (
	"backoffice_app_go/config"
	"backoffice_app_go/models"
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBuildNotificationEmail(t *testing.T) {
	to := Recipient{Audience: models.AudienceUser, ID: "u-1", Name: "Amina", Email: "amina@example.com"}
	n := &models.Notification{
		Title:    "Document expire dans 2 jours",
		Body:     "Le document <RC Mod.09> expire bientôt",
		Priority: models.PriorityCritique,
	}

	email, err := BuildNotificationEmail(to, n, "https://backoffice.example.com/")
	assert.NoError(t, err)
	assert.Equal(t, []string{"amina@example.com"}, email.To)
	assert.Equal(t, "[CRITIQUE] Document expire dans 2 jours", email.Subject)
	assert.Contains(t, email.TextBody, "Bonjour Amina")
	assert.Contains(t, email.TextBody, "https://backoffice.example.com/notifications")

	t.Run("HTML body escapes content", func(t *testing.T) {
		assert.Contains(t, email.HTMLBody, "&lt;RC Mod.09&gt;")
		assert.NotContains(t, email.HTMLBody, "<RC Mod.09>")
	})
}

func TestResendMailerTestMode(t *testing.T) {
	cfg := &config.Config{EmailTestMode: true}
	mailer := NewResendMailer(cfg)
	n := &models.Notification{Title: "Test", Priority: models.PriorityCritique}

	t.Run("Logs instead of sending", func(t *testing.T) {
		err := mailer.SendNotification(context.Background(), Recipient{ID: "u-1", Email: "a@example.com"}, n)
		assert.NoError(t, err)
	})

	t.Run("Recipient without email", func(t *testing.T) {
		err := mailer.SendNotification(context.Background(), Recipient{ID: "u-1"}, n)
		assert.Error(t, err)
	})
}

func TestSendEmailRequiresAPIKey(t *testing.T) {
	cfg := &config.Config{EmailTestMode: false}
	err := SendEmail(cfg, &Email{To: []string{"a@example.com"}, Subject: "x", TextBody: "x"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "RESEND_API_KEY")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))

	// Accented text is cut on a character boundary
	got := truncate("Échéance dépassée", 3)
	assert.Equal(t, "Éch", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "é", truncate("é", 1))
}
