// Package events fans out chat changes to subscribers of a conversation.
//
// Chat services publish an Event after each committed change; the SSE
// endpoint subscribes per conversation and forwards events to browsers.
// Delivery is best effort: a slow subscriber loses events instead of
// blocking publishers, and clients recover by re-fetching over HTTP.
package events

import (
	"context"
	"time"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// Event types.
const (
	TypeMessageCreated      = "message.created"
	TypeConversationRead    = "conversation.read"
	TypeConversationUpdated = "conversation.updated"
	TypeConversationEnded   = "conversation.ended"
)

// Event describes one change within a conversation.
type Event struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId"`
	Message        *domain.Message `json:"message,omitempty"`
	// Reader is the role that marked messages read (conversation.read).
	Reader string `json:"reader,omitempty"`
	// Status is the conversation status after an update.
	Status      string `json:"status,omitempty"`
	UnreadCount *int   `json:"unreadCount,omitempty"`
	// EndedBy is "visitor" or "admin" when known (conversation.ended).
	EndedBy string    `json:"endedBy,omitempty"`
	At      time.Time `json:"at"`
}

// Broker publishes events and hands out per-conversation subscriptions.
type Broker interface {
	// Publish delivers ev to current subscribers of ev.ConversationID.
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events for conversationID and a cancel
	// function that must be called to release the subscription. The channel
	// is closed after cancel or when ctx ends.
	Subscribe(ctx context.Context, conversationID string) (<-chan Event, func(), error)
}

// subscriberBuffer is the per-subscriber queue length before events drop.
const subscriberBuffer = 32
