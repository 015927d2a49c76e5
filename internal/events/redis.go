package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBroker relays events over Redis pub/sub so every API instance sees
// changes made through any other instance. One channel per conversation.
type RedisBroker struct {
	Client redis.UniversalClient
	Prefix string

	// OnDrop, when set, is called for every event a full subscriber missed.
	OnDrop func(Event)
}

// NewRedisBroker returns a broker publishing on "<prefix><conversationID>".
func NewRedisBroker(client redis.UniversalClient, prefix string) *RedisBroker {
	if prefix == "" {
		prefix = "chat:conv:"
	}
	return &RedisBroker{Client: client, Prefix: prefix}
}

func (b *RedisBroker) channel(conversationID string) string {
	return b.Prefix + conversationID
}

// Publish implements Broker.
func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}
	if err := b.Client.Publish(ctx, b.channel(ev.ConversationID), payload).Err(); err != nil {
		return fmt.Errorf("events: publish: %w", err)
	}
	return nil
}

// Subscribe implements Broker. It returns only after Redis confirmed the
// subscription, so events published afterwards are not missed.
func (b *RedisBroker) Subscribe(ctx context.Context, conversationID string) (<-chan Event, func(), error) {
	ps := b.Client.Subscribe(ctx, b.channel(conversationID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("events: subscribe: %w", err)
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", m.Channel).Msg("events: dropping undecodable payload")
					continue
				}
				select {
				case out <- ev:
				default:
					if b.OnDrop != nil {
						b.OnDrop(ev)
					}
				}
			}
		}
	}()
	return out, cancel, nil
}
