package realtime

import (
	"backoffice_app_go/models"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ChannelPrefix marks channels that only their owner may subscribe to.
const ChannelPrefix = "private-"

// Message is one event published on a channel.
type Message struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

// Broadcaster pushes messages to subscribers. Delivery is best-effort: an
// error means the message may not have reached anyone.
type Broadcaster interface {
	Publish(ctx context.Context, msg Message) error
}

// ChannelName returns the private channel of one actor, e.g.
// "private-user.42" or "private-salarie.7".
func ChannelName(audience models.AudienceType, id string) string {
	return fmt.Sprintf("%s%s.%s", ChannelPrefix, audience, id)
}

// ParseChannelName is the inverse of ChannelName.
func ParseChannelName(channel string) (models.AudienceType, string, bool) {
	rest, ok := strings.CutPrefix(channel, ChannelPrefix)
	if !ok {
		return "", "", false
	}
	audience, id, ok := strings.Cut(rest, ".")
	if !ok || id == "" || !models.AudienceType(audience).Valid() {
		return "", "", false
	}
	return models.AudienceType(audience), id, true
}

// NotificationCreated builds the notification.created message for the
// recipient's private channel.
func NotificationCreated(n *models.Notification) (Message, error) {
	data, err := json.Marshal(models.NotificationCreatedEvent{Notification: n.View()})
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode notification event: %w", err)
	}
	return Message{
		Channel: ChannelName(n.AudienceType, n.RecipientID),
		Event:   models.EventNotificationCreated,
		Data:    data,
	}, nil
}
