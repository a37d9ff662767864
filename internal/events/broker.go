// Redis-backed implementation of the change-notification boundary.
//
// One pub/sub channel carries all complaint events. Redis pub/sub gives
// at-most-once transport per connected subscriber; combined with publish
// retries at the call sites this boundary promises consumers no more than
// at-least-once overall, which is why handlers must be idempotent.
package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channel is the redis pub/sub channel carrying complaint change events.
const Channel = "complaints:events"

// Broker publishes and subscribes to complaint events over redis pub/sub.
type Broker struct {
	rdb *redis.Client
}

// NewBroker wraps an existing redis client. The broker does not own the
// client's lifecycle; closing the client is the caller's responsibility.
func NewBroker(rdb *redis.Client) *Broker {
	return &Broker{rdb: rdb}
}

// Publish implements Publisher by JSON-encoding the event onto Channel.
func (b *Broker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, Channel, payload).Err()
}

// Handler consumes one event. It must be idempotent: the same event may be
// delivered more than once, and events for different complaints may arrive
// out of order.
type Handler func(Event)

// Subscription is a live event stream. Close is safe to call at any time and
// from any goroutine; it tears down the redis subscription and waits for the
// pump goroutine to exit so nothing leaks.
type Subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
}

// Subscribe starts delivering events to h on a dedicated goroutine until the
// subscription is closed. Malformed payloads are logged and skipped rather
// than terminating the stream.
func (b *Broker) Subscribe(ctx context.Context, h Handler) *Subscription {
	ps := b.rdb.Subscribe(ctx, Channel)
	sub := &Subscription{pubsub: ps, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Str("channel", Channel).Msg("events: dropping malformed payload")
				continue
			}
			h(ev)
		}
	}()

	return sub
}

// Close stops delivery and releases the underlying redis subscription.
func (s *Subscription) Close() {
	s.once.Do(func() {
		_ = s.pubsub.Close()
		<-s.done
	})
}
