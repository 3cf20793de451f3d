package services

import (
	"backoffice_app_go/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrRecipientNotFound is returned when the actor does not exist or is inactive
var ErrRecipientNotFound = errors.New("recipient not found")

// Recipient is the resolved target of a notification.
type Recipient struct {
	Audience models.AudienceType
	ID       string
	Name     string
	Email    string
}

// Directory resolves staff users and salaries into notification recipients.
type Directory struct {
	DB *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{DB: db}
}

// FindRecipient loads an active actor from the table matching audience.
func (d *Directory) FindRecipient(ctx context.Context, audience models.AudienceType, id string) (Recipient, error) {
	if id == "" {
		return Recipient{}, ErrRecipientNotFound
	}

	switch audience {
	case models.AudienceUser:
		var user models.User
		err := d.DB.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Recipient{}, ErrRecipientNotFound
		}
		if err != nil {
			return Recipient{}, fmt.Errorf("failed to load user %s: %w", id, err)
		}
		return Recipient{Audience: models.AudienceUser, ID: user.ID, Name: user.Name, Email: user.Email}, nil

	case models.AudienceSalarie:
		var salarie models.Salarie
		err := d.DB.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&salarie).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Recipient{}, ErrRecipientNotFound
		}
		if err != nil {
			return Recipient{}, fmt.Errorf("failed to load salarie %s: %w", id, err)
		}
		return Recipient{Audience: models.AudienceSalarie, ID: salarie.ID, Name: salarie.FullName(), Email: salarie.Email}, nil

	default:
		return Recipient{}, fmt.Errorf("unknown audience %q", audience)
	}
}

// RecipientsWithRole lists the active staff users holding role.
func (d *Directory) RecipientsWithRole(ctx context.Context, role string) ([]Recipient, error) {
	var users []models.User
	err := d.DB.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("name ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users with role %s: %w", role, err)
	}

	recipients := make([]Recipient, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, Recipient{Audience: models.AudienceUser, ID: u.ID, Name: u.Name, Email: u.Email})
	}
	return recipients, nil
}
