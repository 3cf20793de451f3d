package services

import (
	"backoffice_app_go/models"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrDocumentTypeExists = errors.New("an active document of this type already exists")
	ErrDocumentArchived   = errors.New("document is archived")
	ErrNoDocumentFile     = errors.New("document has no file")
)

// How long a signed download link stays valid
const downloadURLExpiry = 15 * time.Minute

// MaxDocumentSize is the largest accepted document file
const MaxDocumentSize = 20 * 1024 * 1024

// DocumentFile is an uploaded file to attach to a document.
type DocumentFile struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader

	detected string
}

// CreateDocumentInput is the upload form of a compliance document.
type CreateDocumentInput struct {
	Type            string
	Code            string
	Periodicity     string
	IsComplementary bool
	ExpiresAt       *time.Time
	Notes           string
	OwnerType       models.AudienceType
	OwnerID         string
	File            *DocumentFile
}

func (in CreateDocumentInput) Validate() error {
	_, fixed := models.FixedDocumentTypes[in.Type]
	return validation.ValidateStruct(&in,
		validation.Field(&in.Type, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.OwnerID, validation.Required),
		validation.Field(&in.OwnerType, validation.In(models.AudienceUser, models.AudienceSalarie)),
		validation.Field(&in.Periodicity,
			validation.When(in.IsComplementary || !fixed, validation.Required),
			validation.By(validPeriodicity),
		),
		validation.Field(&in.File, validation.By(validDocumentFile)),
	)
}

func validPeriodicity(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, ok := models.ParsePeriodicity(s); !ok {
		return errors.New("must be monthly, quarterly, biannual or annual")
	}
	return nil
}

func validDocumentFile(value interface{}) error {
	f, _ := value.(*DocumentFile)
	if f == nil {
		return nil
	}
	if f.Size > MaxDocumentSize {
		return fmt.Errorf("file exceeds %d MB", MaxDocumentSize/(1024*1024))
	}
	if strings.TrimSpace(f.Filename) == "" {
		return errors.New("file name is required")
	}
	return checkDocumentContent(f)
}

// RenewDocumentInput carries the new expiration and file of a renewal.
type RenewDocumentInput struct {
	ExpiresAt *time.Time
	Notes     string
	File      *DocumentFile
}

// DocumentFilter narrows List. A nil Complementary returns both kinds.
type DocumentFilter struct {
	Archived      bool
	Complementary *bool
	OwnerType     models.AudienceType
	OwnerID       string
}

// DocumentExpiration is one row of the expiration overview.
type DocumentExpiration struct {
	Document        models.Document
	DaysLeft        int
	Threshold       int
	Priority        models.Priority
	WithinThreshold bool
}

// DocumentService manages the lifecycle of compliance documents: upload,
// renewal (archive the old record, create a new one) and expiry overview.
type DocumentService struct {
	DB       *gorm.DB
	Storage  StorageProvider
	Policy   ThresholdPolicy
	Location *time.Location
	Now      func() time.Time
}

func NewDocumentService(db *gorm.DB, storage StorageProvider, policy ThresholdPolicy, loc *time.Location) *DocumentService {
	return &DocumentService{DB: db, Storage: storage, Policy: policy, Location: loc, Now: time.Now}
}

// Create stores a new active document. A fixed category takes its cadence
// from the fixed table and may have only one active document.
func (s *DocumentService) Create(ctx context.Context, in CreateDocumentInput) (*models.Document, error) {
	in.Type = strings.TrimSpace(in.Type)
	if in.OwnerType == "" {
		in.OwnerType = models.AudienceUser
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	doc := &models.Document{
		Type:            in.Type,
		Code:            strings.TrimSpace(in.Code),
		IsComplementary: in.IsComplementary,
		Notes:           in.Notes,
		OwnerType:       in.OwnerType,
		OwnerID:         in.OwnerID,
	}
	if p, ok := models.ParsePeriodicity(in.Periodicity); ok {
		doc.Periodicity = p
	}
	doc.Periodicity = doc.EffectivePeriodicity()

	if doc.IsFixedCategory() {
		var count int64
		err := s.DB.WithContext(ctx).Model(&models.Document{}).
			Where("type = ? AND is_complementary = ? AND archived = ?", doc.Type, false, false).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to check existing documents: %w", err)
		}
		if count > 0 {
			return nil, ErrDocumentTypeExists
		}
	}

	doc.ExpiresAt = s.expiration(doc.Periodicity, in.ExpiresAt)

	if err := s.attach(ctx, doc, in.File); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Create(doc).Error; err != nil {
		s.discard(doc)
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	log.Printf("Document %s (%s) created for %s %s, expires %s", doc.ID, doc.Type, doc.OwnerType, doc.OwnerID, doc.ExpiresAt.Format("2006-01-02"))
	return doc, nil
}

// Renew archives the active document id and creates its successor in one
// transaction. Unread expiration warnings for the old record are marked done.
func (s *DocumentService) Renew(ctx context.Context, id string, in RenewDocumentInput) (*models.Document, error) {
	if err := validation.Validate(in.File, validation.By(validDocumentFile)); err != nil {
		return nil, validation.Errors{"File": err}
	}

	var renewed *models.Document
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.Document
		if err := tx.First(&old, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}
		if old.Archived {
			return ErrDocumentArchived
		}

		next := &models.Document{
			Type:            old.Type,
			Code:            old.Code,
			Periodicity:     old.EffectivePeriodicity(),
			IsComplementary: old.IsComplementary,
			Notes:           in.Notes,
			OwnerType:       old.OwnerType,
			OwnerID:         old.OwnerID,
		}
		next.ExpiresAt = s.expiration(next.Periodicity, in.ExpiresAt)

		if err := s.attach(ctx, next, in.File); err != nil {
			return err
		}
		if err := tx.Create(next).Error; err != nil {
			s.discard(next)
			return err
		}

		err := tx.Model(&old).Updates(map[string]interface{}{"archived": true, "renewed_by_id": next.ID}).Error
		if err != nil {
			s.discard(next)
			return err
		}

		if _, err := markDoneForSource(tx, models.SourceRecordDocument, old.ID); err != nil {
			s.discard(next)
			return err
		}

		renewed = next
		return nil
	})
	if errors.Is(err, ErrDocumentNotFound) || errors.Is(err, ErrDocumentArchived) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to renew document: %w", err)
	}

	log.Printf("Document %s renewed as %s", id, renewed.ID)
	return renewed, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.DB.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return &doc, nil
}

// DocumentDownload is either a signed URL to redirect to or an open file
// the caller must close.
type DocumentDownload struct {
	URL         string
	Body        io.ReadCloser
	ContentType string
	FileName    string
}

// Download gives access to the file of document id.
func (s *DocumentService) Download(ctx context.Context, id string) (*models.Document, *DocumentDownload, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if doc.FileKey == "" || s.Storage == nil {
		return doc, nil, ErrNoDocumentFile
	}

	dl := &DocumentDownload{FileName: doc.FileOriginalName, ContentType: doc.MimeType}
	url, err := s.Storage.GetSignedURL(ctx, doc.FileKey, downloadURLExpiry)
	if err != nil {
		return doc, nil, err
	}
	if url != "" {
		dl.URL = url
		return doc, dl, nil
	}

	body, contentType, err := s.Storage.Get(ctx, doc.FileKey)
	if err != nil {
		return doc, nil, err
	}
	dl.Body = body
	if dl.ContentType == "" {
		dl.ContentType = contentType
	}
	return doc, dl, nil
}

// List returns documents ordered by expiration, undated ones last.
func (s *DocumentService) List(ctx context.Context, f DocumentFilter) ([]models.Document, error) {
	q := s.DB.WithContext(ctx).Where("archived = ?", f.Archived)
	if f.Complementary != nil {
		q = q.Where("is_complementary = ?", *f.Complementary)
	}
	if f.OwnerID != "" {
		q = q.Where("owner_type = ? AND owner_id = ?", f.OwnerType, f.OwnerID)
	}

	var docs []models.Document
	err := q.Order("expires_at IS NULL, expires_at ASC, type ASC").Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// UpcomingExpirations classifies every active dated document at now,
// soonest first.
func (s *DocumentService) UpcomingExpirations(ctx context.Context, now time.Time) ([]DocumentExpiration, error) {
	var docs []models.Document
	err := s.DB.WithContext(ctx).
		Where("archived = ? AND expires_at IS NOT NULL", false).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active documents: %w", err)
	}

	rows := make([]DocumentExpiration, 0, len(docs))
	for _, doc := range docs {
		days := DaysUntil(now, *doc.ExpiresAt, s.Location)
		threshold := s.Policy.ThresholdForDocument(&doc)
		rows = append(rows, DocumentExpiration{
			Document:        doc,
			DaysLeft:        days,
			Threshold:       threshold,
			Priority:        DocumentExpirationScale.FromDays(days),
			WithinThreshold: WithinThreshold(days, threshold),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DaysLeft != rows[j].DaysLeft {
			return rows[i].DaysLeft < rows[j].DaysLeft
		}
		return rows[i].Document.Type < rows[j].Document.Type
	})
	return rows, nil
}

func (s *DocumentService) expiration(p models.Periodicity, explicit *time.Time) *time.Time {
	if explicit != nil {
		t := *explicit
		return &t
	}
	t := ExpirationFor(p, s.Now())
	return &t
}

func (s *DocumentService) attach(ctx context.Context, doc *models.Document, file *DocumentFile) error {
	if file == nil || s.Storage == nil {
		return nil
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(file.Filename)
	}
	key := GenerateDocumentKey(string(doc.OwnerType), doc.OwnerID, file.Filename)

	result, err := s.Storage.UploadReader(ctx, file.Reader, key, contentType, file.Size)
	if err != nil {
		return fmt.Errorf("failed to store document file: %w", err)
	}
	doc.FileKey = result.Key
	doc.FileOriginalName = file.Filename
	doc.FileSize = result.FileSize
	doc.MimeType = result.MimeType
	return nil
}

// discard removes a stored file whose database row was not written
func (s *DocumentService) discard(doc *models.Document) {
	if doc.FileKey == "" || s.Storage == nil {
		return
	}
	if err := s.Storage.Delete(context.Background(), doc.FileKey); err != nil {
		log.Printf("Warning: failed to delete orphaned file %s: %v", doc.FileKey, err)
	}
}
