package events

import (
	"context"
	"sync"
)

type subscriber struct {
	ch   chan Event
	once sync.Once
}

func (s *subscriber) close() { s.once.Do(func() { close(s.ch) }) }

// MemoryBroker delivers events inside one process. Safe for concurrent use.
type MemoryBroker struct {
	mu     sync.RWMutex
	topics map[string]map[*subscriber]struct{}

	// OnDrop, when set, is called for every event a full subscriber missed.
	OnDrop func(Event)
}

// NewMemoryBroker returns an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{topics: make(map[string]map[*subscriber]struct{})}
}

// Publish implements Broker. It never blocks on a slow subscriber.
func (b *MemoryBroker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.topics[ev.ConversationID] {
		select {
		case s.ch <- ev:
		default:
			if b.OnDrop != nil {
				b.OnDrop(ev)
			}
		}
	}
	return nil
}

// Subscribe implements Broker.
func (b *MemoryBroker) Subscribe(ctx context.Context, conversationID string) (<-chan Event, func(), error) {
	s := &subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if b.topics[conversationID] == nil {
		b.topics[conversationID] = make(map[*subscriber]struct{})
	}
	b.topics[conversationID][s] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.topics[conversationID], s)
			if len(b.topics[conversationID]) == 0 {
				delete(b.topics, conversationID)
			}
			b.mu.Unlock()
			s.close()
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()
	return s.ch, cancel, nil
}

// Subscribers returns the number of live subscriptions for a conversation.
func (b *MemoryBroker) Subscribers(conversationID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[conversationID])
}
