package realtime

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer bounds how far a slow subscriber can lag before events
// are dropped for it.
const subscriberBuffer = 32

// Hub is the in-process channel registry. Each subscriber owns a buffered
// channel; publishing never blocks on a slow reader.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan Message
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[string]chan Message)}
}

// Subscribe registers a new subscriber on channel. The returned channel is
// closed by Unsubscribe.
func (h *Hub) Subscribe(channel string) (string, <-chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientID := uuid.New().String()
	ch := make(chan Message, subscriberBuffer)
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[string]chan Message)
	}
	h.subs[channel][clientID] = ch
	return clientID, ch
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(channel, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.subs[channel]
	if !ok {
		return
	}
	if ch, exists := clients[clientID]; exists {
		close(ch)
		delete(clients, clientID)
	}
	if len(clients) == 0 {
		delete(h.subs, channel)
	}
}

// Publish delivers msg to every current subscriber of msg.Channel.
func (h *Hub) Publish(ctx context.Context, msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID, ch := range h.subs[msg.Channel] {
		select {
		case ch <- msg:
		default:
			log.Printf("[REALTIME] Dropping %s for slow subscriber %s on %s", msg.Event, clientID, msg.Channel)
		}
	}
	return nil
}

// SubscriberCount returns the number of subscribers on channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[channel])
}
