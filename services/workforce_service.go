package services

import (
	"backoffice_app_go/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("email already in use")

// CreateSalarieInput registers a field employee.
type CreateSalarieInput struct {
	Nom      string `json:"nom"`
	Prenom   string `json:"prenom"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Poste    string `json:"poste"`
}

func (in CreateSalarieInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Nom, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.By(ValidatePassword)),
	)
}

// WorkforceService notifies salaries and the HR team of staffing events.
// Tasks, leave requests and profile requests live in other systems; only
// their identifiers travel here.
type WorkforceService struct {
	DB         *gorm.DB
	Dispatcher *Dispatcher
	Location   *time.Location
	Now        func() time.Time
}

func NewWorkforceService(db *gorm.DB, dispatcher *Dispatcher, loc *time.Location) *WorkforceService {
	return &WorkforceService{DB: db, Dispatcher: dispatcher, Location: loc, Now: time.Now}
}

// CreateSalarie stores the employee and asks HR to validate the profile.
func (s *WorkforceService) CreateSalarie(ctx context.Context, in CreateSalarieInput) (*models.Salarie, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Nom = strings.TrimSpace(in.Nom)
	in.Prenom = strings.TrimSpace(in.Prenom)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	salarie := &models.Salarie{
		Nom:      in.Nom,
		Prenom:   in.Prenom,
		Email:    in.Email,
		Password: hash,
		Poste:    strings.TrimSpace(in.Poste),
		IsActive: true,
	}
	if err := s.DB.WithContext(ctx).Create(salarie).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create salarie: %w", err)
	}

	if s.Dispatcher != nil {
		if _, err := s.Dispatcher.DispatchToRole(ctx, models.RoleRessourcesHumaines, ProfileValidationPayload(salarie)); err != nil {
			return salarie, err
		}
	}
	return salarie, nil
}

// AssignTask notifies a salarie of a task. A repeated assignment of the same
// task is deduplicated while the first notification is unread.
func (s *WorkforceService) AssignTask(ctx context.Context, salarieID string, t TaskAssignment) (*models.Notification, bool, error) {
	r, err := s.Dispatcher.Directory.FindRecipient(ctx, models.AudienceSalarie, salarieID)
	if err != nil {
		return nil, false, err
	}
	return s.Dispatcher.Dispatch(ctx, r, TaskAssignmentPayload(t, s.Now(), s.Location))
}

// NotifyLeaveDecision tells a salarie the outcome of a leave request.
func (s *WorkforceService) NotifyLeaveDecision(ctx context.Context, salarieID string, d LeaveDecision) (*models.Notification, bool, error) {
	d.Decision = strings.ToLower(strings.TrimSpace(d.Decision))
	if err := validation.Validate(d.Decision, validation.Required, validation.In(CongeAccepte, CongeRefuse)); err != nil {
		return nil, false, fmt.Errorf("decision: %w", err)
	}
	if d.DateFin.Before(d.DateDebut) {
		return nil, false, errors.New("leave ends before it starts")
	}

	r, err := s.Dispatcher.Directory.FindRecipient(ctx, models.AudienceSalarie, salarieID)
	if err != nil {
		return nil, false, err
	}
	return s.Dispatcher.Dispatch(ctx, r, LeaveDecisionPayload(d))
}

// SubmitProfileRequest notifies the HR team of a staffing request.
func (s *WorkforceService) SubmitProfileRequest(ctx context.Context, r ProfileRequest) ([]*models.Notification, error) {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.DemandeID, validation.Required),
		validation.Field(&r.Titre, validation.Required),
		validation.Field(&r.NombreProfils, validation.Min(1)),
	)
	if err != nil {
		return nil, err
	}
	return s.Dispatcher.DispatchToRole(ctx, models.RoleRessourcesHumaines, ProfileRequestPayload(r))
}
