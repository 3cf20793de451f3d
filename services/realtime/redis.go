package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the pub/sub channels of this application.
const DefaultRedisPrefix = "backoffice:"

// NewRedisClient parses url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// RedisBroadcaster publishes messages on Redis pub/sub so that every
// instance running a Relay can forward them to its local subscribers.
type RedisBroadcaster struct {
	client *redis.Client
	prefix string
}

func NewRedisBroadcaster(client *redis.Client, prefix string) *RedisBroadcaster {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisBroadcaster{client: client, prefix: prefix}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := b.client.Publish(ctx, b.prefix+msg.Channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", msg.Channel, err)
	}
	return nil
}

// Relay forwards every private channel message received from Redis into
// the local hub. It blocks until ctx is cancelled.
func Relay(ctx context.Context, client *redis.Client, prefix string, hub *Hub) error {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	pubsub := client.PSubscribe(ctx, prefix+ChannelPrefix+"*")
	defer pubsub.Close()

	// Wait for the subscription confirmation so no message is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	log.Printf("[REALTIME] Relaying Redis channels %s%s*", prefix, ChannelPrefix)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				log.Printf("[REALTIME] Ignoring malformed message on %s: %v", m.Channel, err)
				continue
			}
			hub.Publish(ctx, msg)
		}
	}
}
