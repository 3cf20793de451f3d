package services

import (
	"backoffice_app_go/models"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

var (
	ErrMarcheNotFound       = errors.New("marche not found")
	ErrMarcheAlreadyDecided = errors.New("marche already decided")
)

// MarcheDecisionInput is the general management's verdict on a tender.
type MarcheDecisionInput struct {
	Decision    string `json:"decision"`
	MotifRefus  string `json:"motif_refus"`
	DecidedByID string `json:"-"`
}

func (in MarcheDecisionInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Decision, validation.Required, validation.In(models.MarcheDecisionAccepte, models.MarcheDecisionRefuse)),
		validation.Field(&in.MotifRefus, validation.When(in.Decision == models.MarcheDecisionRefuse,
			validation.Required, validation.Length(5, 500),
		)),
	)
}

// MarcheService records tender decisions and notifies the teams that act on
// them.
type MarcheService struct {
	DB         *gorm.DB
	Dispatcher *Dispatcher
	Location   *time.Location
	Now        func() time.Time
}

func NewMarcheService(db *gorm.DB, dispatcher *Dispatcher, loc *time.Location) *MarcheService {
	return &MarcheService{DB: db, Dispatcher: dispatcher, Location: loc, Now: time.Now}
}

func (s *MarcheService) Get(ctx context.Context, id string) (*models.MarchePublic, error) {
	var m models.MarchePublic
	err := s.DB.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMarcheNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load marche: %w", err)
	}
	return &m, nil
}

// RecordDecision stores the decision and notifies every active member of
// the technical studies team; a refusal also goes to the direction. A
// tender is decided once: a second decision returns ErrMarcheAlreadyDecided.
func (s *MarcheService) RecordDecision(ctx context.Context, id string, in MarcheDecisionInput) (*models.MarchePublic, []*models.Notification, error) {
	in.Decision = strings.ToLower(strings.TrimSpace(in.Decision))
	in.MotifRefus = strings.TrimSpace(in.MotifRefus)
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m.Decision != "" {
		return nil, nil, ErrMarcheAlreadyDecided
	}

	now := s.Now()
	m.Decision = in.Decision
	m.DateDecision = &now
	m.MotifRefus = ""
	if in.Decision == models.MarcheDecisionRefuse {
		m.MotifRefus = in.MotifRefus
	}
	if in.DecidedByID != "" {
		m.DecidedByID = &in.DecidedByID
	}

	// Conditional on no decision so two concurrent deciders cannot both win
	res := s.DB.WithContext(ctx).Model(&models.MarchePublic{}).
		Where("id = ? AND (decision IS NULL OR decision = '')", m.ID).
		Updates(map[string]interface{}{
			"decision":      m.Decision,
			"date_decision": m.DateDecision,
			"motif_refus":   m.MotifRefus,
			"decided_by_id": m.DecidedByID,
		})
	if res.Error != nil {
		return nil, nil, fmt.Errorf("failed to record decision: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil, ErrMarcheAlreadyDecided
	}

	roles := []string{models.RoleEtudesTechniques}
	if m.Decision == models.MarcheDecisionRefuse {
		roles = append(roles, models.RoleDirection)
	}
	payload := MarcheDecisionPayload(m, now, s.Location)

	var sent []*models.Notification
	for _, role := range roles {
		notified, err := s.Dispatcher.DispatchToRole(ctx, role, payload)
		if err != nil {
			return m, sent, err
		}
		sent = append(sent, notified...)
	}
	log.Printf("Marche %s %s, %d notification(s) sent", m.Reference, m.Decision, len(sent))
	return m, sent, nil
}

// RequestAdminValidation asks the administrators to validate a tender that
// another service accepted.
func (s *MarcheService) RequestAdminValidation(ctx context.Context, id, serviceOrigine string) ([]*models.Notification, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Model(m).
		UpdateColumn("validation_asks", gorm.Expr("validation_asks + ?", 1)).Error
	if err != nil {
		return nil, fmt.Errorf("failed to record validation request: %w", err)
	}

	return s.Dispatcher.DispatchToRole(ctx, models.RoleAdmin, MarcheValidationAdminPayload(m, strings.TrimSpace(serviceOrigine)))
}
