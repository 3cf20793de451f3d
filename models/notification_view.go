package models

import (
	"encoding/json"
	"time"
)

// EventNotificationCreated is the real-time event name for new notifications.
const EventNotificationCreated = "notification.created"

// NotificationView is the wire format shared by the REST endpoints and the
// real-time channel. Category-specific fields are flattened next to the
// common ones, so the JSON object is a tagged union keyed by "type".
type NotificationView struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Title          string     `json:"titre"`
	Body           string     `json:"commentaire"`
	Priority       Priority   `json:"priority"`
	ActionRequired bool       `json:"action_required"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at"`
	Done           bool       `json:"done"`
	SourceUserID   *string    `json:"source_user_id,omitempty"`

	Fields map[string]any `json:"-"`
}

// NotificationCreatedEvent is the payload of EventNotificationCreated.
type NotificationCreatedEvent struct {
	Notification NotificationView `json:"notification"`
}

var notificationViewKeys = []string{
	"id", "type", "titre", "commentaire", "priority", "action_required",
	"created_at", "read_at", "done", "source_user_id",
}

func (v NotificationView) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Fields)+len(notificationViewKeys))
	for k, val := range v.Fields {
		out[k] = val
	}
	out["id"] = v.ID
	out["type"] = v.Type
	out["titre"] = v.Title
	out["commentaire"] = v.Body
	out["priority"] = v.Priority
	out["action_required"] = v.ActionRequired
	out["created_at"] = v.CreatedAt
	out["read_at"] = v.ReadAt
	out["done"] = v.Done
	if v.SourceUserID != nil {
		out["source_user_id"] = *v.SourceUserID
	} else {
		delete(out, "source_user_id")
	}
	return json.Marshal(out)
}

func (v *NotificationView) UnmarshalJSON(data []byte) error {
	type plain NotificationView
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var rest map[string]any
	if err := json.Unmarshal(data, &rest); err != nil {
		return err
	}
	for _, k := range notificationViewKeys {
		delete(rest, k)
	}

	*v = NotificationView(p)
	v.Fields = nil
	if len(rest) > 0 {
		v.Fields = rest
	}
	return nil
}

// IsRead reports whether the notification has a read timestamp.
func (v NotificationView) IsRead() bool {
	return v.ReadAt != nil
}

// Int returns a numeric category field, tolerating JSON's float decoding.
func (v NotificationView) Int(key string) (int, bool) {
	switch n := v.Fields[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

// Text returns a textual category field or "".
func (v NotificationView) Text(key string) string {
	if s, ok := v.Fields[key].(string); ok {
		return s
	}
	return ""
}
