package services

import (
	"backoffice_app_go/config"
	"backoffice_app_go/models"
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	texttemplate "text/template"
	"unicode/utf8"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers the e-mail copy of a critical notification.
type Mailer interface {
	SendNotification(ctx context.Context, to Recipient, n *models.Notification) error
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	// In development mode, log the email instead of sending
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}

	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	log.Printf("Email sent successfully via Resend (ID: %s) to: %v", sent.Id, email.To)
	return nil
}

// logEmailToConsole logs email details to console in development mode
func logEmailToConsole(email *Email) {
	separator := strings.Repeat("=", 80)
	log.Printf("\n%s\n📧 EMAIL (Development Mode - Not Actually Sent)\n%s", separator, separator)
	log.Printf("To: %v", email.To)
	log.Printf("Subject: %s", email.Subject)
	log.Printf("\n--- TEXT BODY ---\n%s", email.TextBody)
	log.Printf("\n--- HTML BODY (first 500 chars) ---\n%s...", truncate(email.HTMLBody, 500))
	log.Printf("%s\n", separator)
}

// truncate truncates a string to a maximum length
// truncate keeps at most maxLen characters, never splitting a rune
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}

// NotificationEmailData feeds the notification e-mail templates
type NotificationEmailData struct {
	RecipientName string
	Icon          string
	Title         string
	Body          string
	Priority      string
	Link          string
}

var notificationHTMLTemplate = template.Must(template.New("notification.html").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <p>Bonjour {{.RecipientName}},</p>
  <h2>{{.Icon}} {{.Title}}</h2>
  <p>{{.Body}}</p>
  <p><strong>Priorité :</strong> {{.Priority}}</p>
  {{if .Link}}<p><a href="{{.Link}}">Ouvrir le back-office</a></p>{{end}}
</body>
</html>`))

var notificationTextTemplate = texttemplate.Must(texttemplate.New("notification.txt").Parse(`Bonjour {{.RecipientName}},

{{.Icon}} {{.Title}}

{{.Body}}

Priorité : {{.Priority}}
{{if .Link}}
{{.Link}}
{{end}}`))

// BuildNotificationEmail renders the e-mail copy of a notification.
func BuildNotificationEmail(to Recipient, n *models.Notification, appURL string) (*Email, error) {
	data := NotificationEmailData{
		RecipientName: to.Name,
		Icon:          PriorityIcon(n.Priority),
		Title:         n.Title,
		Body:          n.Body,
		Priority:      string(n.Priority),
	}
	if appURL != "" {
		data.Link = strings.TrimRight(appURL, "/") + "/notifications"
	}

	var html, text bytes.Buffer
	if err := notificationHTMLTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render notification email: %w", err)
	}
	if err := notificationTextTemplate.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render notification email: %w", err)
	}

	return &Email{
		To:       []string{to.Email},
		Subject:  fmt.Sprintf("[%s] %s", strings.ToUpper(string(n.Priority)), n.Title),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

// ResendMailer sends notification e-mails through Resend, or logs them when
// EMAIL_TEST_MODE is on.
type ResendMailer struct {
	Config *config.Config
}

func NewResendMailer(cfg *config.Config) *ResendMailer {
	return &ResendMailer{Config: cfg}
}

func (m *ResendMailer) SendNotification(ctx context.Context, to Recipient, n *models.Notification) error {
	if to.Email == "" {
		return fmt.Errorf("recipient %s has no email address", to.ID)
	}
	email, err := BuildNotificationEmail(to, n, m.Config.AppURL)
	if err != nil {
		return err
	}
	return SendEmail(m.Config, email)
}
