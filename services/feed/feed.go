package feed

import (
	"backoffice_app_go/models"
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source is the server side of a feed. *Client implements it.
type Source interface {
	List(ctx context.Context) ([]models.NotificationView, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, receive func(models.NotificationView)) error
}

// Alerter is told about every notification received in real time, e.g. to
// play a sound or raise a desktop notification.
type Alerter interface {
	Alert(v models.NotificationView)
}

// AlerterFunc adapts a function to Alerter.
type AlerterFunc func(models.NotificationView)

func (f AlerterFunc) Alert(v models.NotificationView) { f(v) }

// Feed holds one actor's notifications, most recent first. Read, read-all
// and delete are applied locally before the server call and rolled back
// if the call fails.
type Feed struct {
	Source   Source
	Audience Audience
	Alerter  Alerter
	Now      func() time.Time

	mu    sync.Mutex
	items []models.NotificationView
}

func New(audience Audience, source Source) *Feed {
	return &Feed{
		Source:   source,
		Audience: audience,
		Now:      time.Now,
	}
}

// Load replaces the list with the server's.
func (f *Feed) Load(ctx context.Context) error {
	views, err := f.Source.List(ctx)
	if err != nil {
		return err
	}

	items := make([]models.NotificationView, 0, len(views))
	seen := make(map[string]bool, len(views))
	for _, v := range views {
		v = f.normalize(v)
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		items = append(items, v)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
	return nil
}

// Receive prepends a notification pushed in real time. It returns false
// when the notification is already in the list.
func (f *Feed) Receive(v models.NotificationView) bool {
	v = f.normalize(v)

	f.mu.Lock()
	if f.indexOf(v.ID) >= 0 {
		f.mu.Unlock()
		return false
	}
	f.items = append([]models.NotificationView{v}, f.items...)
	f.mu.Unlock()

	if f.Alerter != nil {
		f.Alerter.Alert(v)
	}
	return true
}

// Items returns a copy of the list.
func (f *Feed) Items() []models.NotificationView {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.NotificationView, len(f.items))
	copy(out, f.items)
	return out
}

// Get returns the notification with id.
func (f *Feed) Get(id string) (models.NotificationView, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.indexOf(id); i >= 0 {
		return f.items[i], true
	}
	return models.NotificationView{}, false
}

func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, v := range f.items {
		if !v.IsRead() {
			count++
		}
	}
	return count
}

// MarkRead flags one notification read. Already-read items are left alone.
func (f *Feed) MarkRead(ctx context.Context, id string) error {
	readAt := f.Now()

	f.mu.Lock()
	i := f.indexOf(id)
	if i < 0 {
		f.mu.Unlock()
		return ErrNotFound
	}
	if f.items[i].IsRead() {
		f.mu.Unlock()
		return nil
	}
	f.items[i].ReadAt = &readAt
	f.mu.Unlock()

	err := f.Source.MarkRead(ctx, id)
	if err == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if errors.Is(err, ErrNotFound) {
		// Deleted elsewhere
		if i := f.indexOf(id); i >= 0 {
			f.items = append(f.items[:i], f.items[i+1:]...)
		}
		return err
	}
	if i := f.indexOf(id); i >= 0 && f.items[i].ReadAt == &readAt {
		f.items[i].ReadAt = nil
	}
	log.Printf("[FEED] Mark read %s failed, rolled back: %v", id, err)
	return err
}

// MarkAllRead flags every unread notification read.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	readAt := f.Now()

	f.mu.Lock()
	var changed []string
	for i := range f.items {
		if !f.items[i].IsRead() {
			f.items[i].ReadAt = &readAt
			changed = append(changed, f.items[i].ID)
		}
	}
	f.mu.Unlock()

	err := f.Source.MarkAllRead(ctx)
	if err == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range changed {
		if i := f.indexOf(id); i >= 0 && f.items[i].ReadAt == &readAt {
			f.items[i].ReadAt = nil
		}
	}
	log.Printf("[FEED] Mark all read failed, rolled back %d notifications: %v", len(changed), err)
	return err
}

// Delete removes a notification. Deleting an unknown id asks the server
// anyway and returns ErrNotFound when it has none either.
func (f *Feed) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	i := f.indexOf(id)
	var removed models.NotificationView
	if i >= 0 {
		removed = f.items[i]
		f.items = append(f.items[:i], f.items[i+1:]...)
	}
	f.mu.Unlock()

	err := f.Source.Delete(ctx, id)
	if err == nil || errors.Is(err, ErrNotFound) || i < 0 {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexOf(id) < 0 {
		f.insert(removed)
	}
	log.Printf("[FEED] Delete %s failed, restored: %v", id, err)
	return err
}

// Run loads the list then follows the real-time stream until ctx ends.
// Reconnecting after the stream drops is left to the caller.
func (f *Feed) Run(ctx context.Context) error {
	if err := f.Load(ctx); err != nil {
		return err
	}
	return f.Source.Subscribe(ctx, func(v models.NotificationView) {
		f.Receive(v)
	})
}

// Describe renders a notification of this feed.
func (f *Feed) Describe(v models.NotificationView) Description {
	return Describe(f.Audience, v)
}

// insert puts v back at its place in the most-recent-first order
func (f *Feed) insert(v models.NotificationView) {
	at := sort.Search(len(f.items), func(i int) bool {
		return !f.items[i].CreatedAt.After(v.CreatedAt)
	})
	f.items = append(f.items, models.NotificationView{})
	copy(f.items[at+1:], f.items[at:])
	f.items[at] = v
}

func (f *Feed) indexOf(id string) int {
	for i := range f.items {
		if f.items[i].ID == id {
			return i
		}
	}
	return -1
}

// normalize fills what an incomplete event leaves out
func (f *Feed) normalize(v models.NotificationView) models.NotificationView {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.Title == "" {
		v.Title = "Notification"
	}
	if v.Type == "" {
		v.Type = models.NotificationTypeGeneric
	}
	if v.Priority == "" {
		v.Priority = models.PriorityInfo
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = f.Now()
	}
	return v
}
