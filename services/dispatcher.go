package services

import (
	"backoffice_app_go/models"
	"backoffice_app_go/services/metrics"
	"backoffice_app_go/services/realtime"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"
)

// deliveryTimeout bounds each best-effort broadcast or e-mail attempt
const deliveryTimeout = 10 * time.Second

// Payload is what a category builder hands to the dispatcher. Fields are the
// category-specific keys flattened into the wire notification.
type Payload struct {
	Type             string
	Title            string
	Body             string
	Priority         models.Priority
	ActionRequired   bool
	SourceUserID     *string
	SourceRecordType string
	SourceRecordID   string
	Fields           map[string]any
}

func (p Payload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Type, validation.Required, validation.Length(1, 64)),
		validation.Field(&p.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&p.Priority, validation.Required, validation.In(
			models.PriorityCritique, models.PriorityUrgent, models.PriorityNormal, models.PriorityInfo,
		)),
		validation.Field(&p.SourceRecordType, validation.When(p.SourceRecordID != "", validation.Required)),
	)
}

// Notification builds the row persisted for recipient r.
func (p Payload) Notification(r Recipient) *models.Notification {
	n := &models.Notification{
		AudienceType:     r.Audience,
		RecipientID:      r.ID,
		SourceUserID:     p.SourceUserID,
		Type:             p.Type,
		Title:            p.Title,
		Body:             p.Body,
		Priority:         p.Priority,
		ActionRequired:   p.ActionRequired,
		SourceRecordType: p.SourceRecordType,
		SourceRecordID:   p.SourceRecordID,
	}
	if len(p.Fields) > 0 {
		n.Data = make(map[string]interface{}, len(p.Fields))
		for k, v := range p.Fields {
			n.Data[k] = v
		}
	}
	return n
}

// Dispatcher persists notifications and pushes them to the recipient's
// private channel. The database write is the only step that can fail a
// dispatch; the broadcast and the critical e-mail run afterwards in the
// background and never undo the write.
type Dispatcher struct {
	DB          *gorm.DB
	Guard       *DeduplicationGuard
	Directory   *Directory
	Broadcaster realtime.Broadcaster
	Mailer      Mailer
	Metrics     *metrics.Metrics

	// CriticalEmail also mails critique notifications when the recipient
	// has an address and Mailer is set.
	CriticalEmail bool

	wg sync.WaitGroup
}

func NewDispatcher(db *gorm.DB, broadcaster realtime.Broadcaster) *Dispatcher {
	return &Dispatcher{
		DB:          db,
		Guard:       NewDeduplicationGuard(db),
		Directory:   NewDirectory(db),
		Broadcaster: broadcaster,
	}
}

// Dispatch creates one notification for r. The boolean is false when an
// unread notification for the same source record already exists, in which
// case nothing is persisted or broadcast.
func (d *Dispatcher) Dispatch(ctx context.Context, r Recipient, p Payload) (*models.Notification, bool, error) {
	if !r.Audience.Valid() || r.ID == "" {
		return nil, false, fmt.Errorf("invalid recipient %q/%q", r.Audience, r.ID)
	}
	if err := p.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid notification payload: %w", err)
	}

	n := p.Notification(r)
	created, err := d.Guard.CreateIfAbsent(ctx, n)
	if err != nil {
		return nil, false, err
	}
	if !created {
		d.Metrics.IncDeduplicated(p.Type)
		return nil, false, nil
	}
	d.Metrics.IncCreated(p.Type)

	d.deliver(ctx, r, n)
	return n, true, nil
}

// DispatchToRole sends p to every active staff user with role. Failures for
// one user are logged and do not stop the others.
func (d *Dispatcher) DispatchToRole(ctx context.Context, role string, p Payload) ([]*models.Notification, error) {
	recipients, err := d.Directory.RecipientsWithRole(ctx, role)
	if err != nil {
		return nil, err
	}

	var sent []*models.Notification
	for _, r := range recipients {
		n, created, err := d.Dispatch(ctx, r, p)
		if err != nil {
			log.Printf("[DISPATCH] Failed to notify %s %s (%s): %v", r.Audience, r.ID, p.Type, err)
			continue
		}
		if created {
			sent = append(sent, n)
		}
	}
	return sent, nil
}

// Wait blocks until every background delivery started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, r Recipient, n *models.Notification) {
	// Deliveries outlive the request that triggered them
	bg := context.WithoutCancel(ctx)

	if d.Broadcaster != nil {
		msg, err := realtime.NotificationCreated(n)
		if err != nil {
			log.Printf("[DISPATCH] %v", err)
			d.Metrics.IncBroadcastFailure()
		} else {
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				pctx, cancel := context.WithTimeout(bg, deliveryTimeout)
				defer cancel()
				if err := d.Broadcaster.Publish(pctx, msg); err != nil {
					log.Printf("[DISPATCH] Broadcast of notification %s on %s failed: %v", n.ID, msg.Channel, err)
					d.Metrics.IncBroadcastFailure()
				}
			}()
		}
	}

	if d.CriticalEmail && d.Mailer != nil && n.Priority == models.PriorityCritique && r.Email != "" {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			mctx, cancel := context.WithTimeout(bg, deliveryTimeout)
			defer cancel()
			if err := d.Mailer.SendNotification(mctx, r, n); err != nil {
				log.Printf("[DISPATCH] Email for notification %s to %s failed: %v", n.ID, r.Email, err)
				d.Metrics.IncEmailFailure()
			}
		}()
	}
}
