package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Bridge fans events out across API instances over a Redis pub/sub
// channel: local broadcasts are published, and remote publications are
// replayed into the local hub. Everything stays best-effort — a Redis
// hiccup loses events, it never fails a mutation.
type Bridge struct {
	hub     *Hub
	client  *redis.Client
	channel string
	origin  string
}

// NewBridge wires a hub to a Redis channel. client may be nil, in
// which case the bridge degrades to local-only fan-out.
func NewBridge(hub *Hub, client *redis.Client, channel string) *Bridge {
	return &Bridge{
		hub:     hub,
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
	}
}

// Broadcast delivers env locally and publishes it for the other
// instances. Fire-and-forget: errors are logged, never returned.
func (b *Bridge) Broadcast(env Envelope) {
	env.Origin = b.origin
	b.hub.Broadcast(env)

	if b.client == nil {
		return
	}
	payload, err := json.Marshal(env)
	if err != nil {
		log.Printf("notify: marshal envelope failed: %v", err)
		return
	}
	go func() {
		if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil {
			log.Printf("notify: redis publish failed: %v", err)
		}
	}()
}

// Run subscribes to the channel and forwards remote envelopes to the
// local hub until ctx is cancelled. Own publications are dropped by
// origin id so observers never see duplicates.
func (b *Bridge) Run(ctx context.Context) {
	if b.client == nil {
		return
	}
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("notify: bad envelope on %s: %v", b.channel, err)
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			b.hub.Broadcast(env)
		}
	}
}
