// Package services – ChatService
//
// ChatService owns the conversation lifecycle and the messages inside it:
// opening a conversation, listing and fetching it with its history, updating
// its status or unread counter, ending it (closing or deleting), sending
// messages and marking them read.
//
// Writes that touch both tables run in one transaction. After a commit the
// service publishes an event to the configured broker so open streams learn
// about the change; publish failures are logged and never fail the request
// because polling clients recover on their next tick.
//
// Observability: public methods are OpenTelemetry-instrumented and update the
// chat Prometheus metrics.
package services

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/events"
	"github.com/danismanim/danismanim-backend/internal/observability"
	"github.com/danismanim/danismanim-backend/internal/repo"
)

const chatTracer = "services/ChatService"

// CreateConversationInput carries the visitor details for a new conversation.
type CreateConversationInput struct {
	VisitorID    string
	VisitorName  string
	VisitorEmail string
}

// UpdateConversationInput is a partial update; nil fields are left alone.
type UpdateConversationInput struct {
	Status      *string
	UnreadCount *int
}

// SendMessageInput carries one chat message.
type SendMessageInput struct {
	ConversationID string
	Sender         string
	SenderName     string
	Message        string
}

// ChatService provides the live-chat operations.
type ChatService struct {
	DB     *gorm.DB
	Broker events.Broker

	// IsAdminEmail reports addresses that may not open visitor chats.
	IsAdminEmail func(email string) bool

	// NameMaxLen caps visitor and sender names by rune length.
	NameMaxLen int
	// MessageMaxLen rejects longer messages; 0 disables the check.
	MessageMaxLen int
	// PreviewMaxLen caps the lastMessage preview stored on the conversation.
	PreviewMaxLen int

	Now func() time.Time
}

// NewChatService constructs a ChatService with default limits. broker may be
// nil, in which case no events are published.
func NewChatService(db *gorm.DB, broker events.Broker, isAdminEmail func(string) bool) *ChatService {
	return &ChatService{
		DB:            db,
		Broker:        broker,
		IsAdminEmail:  isAdminEmail,
		NameMaxLen:    100,
		MessageMaxLen: 5000,
		PreviewMaxLen: 200,
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateConversation always opens a new conversation; earlier conversations
// of the same visitor are never reused.
func (s *ChatService) CreateConversation(ctx context.Context, in CreateConversationInput) (*domain.Conversation, error) {
	ctx, span := otel.Tracer(chatTracer).Start(ctx, "CreateConversation")
	defer span.End()

	name := s.clip(normalizeText(in.VisitorName), s.NameMaxLen)
	if name == "" {
		return nil, ErrVisitorNameRequired
	}
	email := strings.TrimSpace(in.VisitorEmail)
	if email != "" {
		// Display-name forms ("Name <a@b>") are reduced to the bare address.
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return nil, ErrInvalidEmail
		}
		email = addr.Address
		if s.IsAdminEmail != nil && s.IsAdminEmail(email) {
			return nil, ErrAdminEmail
		}
	}

	c, err := repo.CreateConversation(ctx, s.DB, strings.TrimSpace(in.VisitorID), name, email)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("conversation.id", c.ID))
	observability.ConversationsCreated.Inc()
	return c, nil
}

// ListConversations returns all conversations, most recent activity first.
func (s *ChatService) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	ctx, span := otel.Tracer(chatTracer).Start(ctx, "ListConversations")
	defer span.End()
	return repo.ListConversations(ctx, s.DB)
}

// GetConversation returns the conversation with its full history, oldest first.
func (s *ChatService) GetConversation(ctx context.Context, id string) (*domain.Conversation, []domain.Message, error) {
	ctx, span := otel.Tracer(chatTracer).Start(ctx, "GetConversation",
		trace.WithAttributes(attribute.String("conversation.id", id)))
	defer span.End()

	c, err := repo.GetConversation(ctx, s.DB, id)
	if err != nil {
		return nil, nil, notFound(err, ErrConversationNotFound)
	}
	msgs, err := repo.ListMessages(s.DB.WithContext(ctx), id, nil)
	if err != nil {
		return nil, nil, err
	}
	return c, msgs, nil
}

// LookupConversation returns the conversation without its messages.
func (s *ChatService) LookupConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	c, err := repo.GetConversation(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrConversationNotFound)
	}
	return c, nil
}

// UpdateConversation applies a partial update. Moving an active conversation
// to closed ends it for both parties.
func (s *ChatService) UpdateConversation(ctx context.Context, id string, in UpdateConversationInput) (*domain.Conversation, error) {
	ctx, span := otel.Tracer(chatTracer).Start(ctx, "UpdateConversation",
		trace.WithAttributes(attribute.String("conversation.id", id)))
	defer span.End()

	fields := map[string]any{}
	if in.Status != nil {
		st := strings.ToLower(strings.TrimSpace(*in.Status))
		if st != domain.ConversationActive && st != domain.ConversationClosed {
			return nil, ErrInvalidStatus
		}
		fields["status"] = st
	}
	if in.UnreadCount != nil {
		if *in.UnreadCount < 0 {
			return nil, ErrInvalidUnread
		}
		fields["unread_count"] = *in.UnreadCount
	}

	var before, after *domain.Conversation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if before, err = repo.GetConversation(ctx, tx, id); err != nil {
			return err
		}
		if len(fields) > 0 {
			fields["updated_at"] = s.now()
			if err := repo.UpdateConversation(ctx, tx, id, fields); err != nil {
				return err
			}
		}
		after, err = repo.GetConversation(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, notFound(err, ErrConversationNotFound)
	}

	unread := after.UnreadCount
	s.publish(ctx, events.Event{
		Type:           events.TypeConversationUpdated,
		ConversationID: id,
		Status:         after.Status,
		UnreadCount:    &unread,
	})
	if !before.IsClosed() && after.IsClosed() {
		observability.ConversationsEnded.WithLabelValues(domain.SenderAdmin, "closed").Inc()
		s.publish(ctx, events.Event{
			Type:           events.TypeConversationEnded,
			ConversationID: id,
			Status:         after.Status,
			EndedBy:        domain.SenderAdmin,
		})
	}
	return after, nil
}

// DeleteConversation removes the conversation and all of its messages in one
// transaction. endedBy ("visitor" or "admin") is forwarded to the other
// party; any other value is dropped.
func (s *ChatService) DeleteConversation(ctx context.Context, id, endedBy string) error {
	ctx, span := otel.Tracer(chatTracer).Start(ctx, "DeleteConversation",
		trace.WithAttributes(attribute.String("conversation.id", id)))
	defer span.End()

	if !domain.ValidSender(endedBy) {
		endedBy = ""
	}

	var removed int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetConversation(ctx, tx, id); err != nil {
			return err
		}
		n, err := repo.DeleteMessages(tx, id)
		if err != nil {
			return err
		}
		removed = n
		return repo.DeleteConversation(ctx, tx, id)
	})
	if err != nil {
		return notFound(err, ErrConversationNotFound)
	}
	span.SetAttributes(attribute.Int64("messages.deleted", removed))

	by := endedBy
	if by == "" {
		by = "unknown"
	}
	observability.ConversationsEnded.WithLabelValues(by, "deleted").Inc()
	s.publish(ctx, events.Event{
		Type:           events.TypeConversationEnded,
		ConversationID: id,
		EndedBy:        endedBy,
	})
	return nil
}

// SendMessage stores a message and refreshes the conversation preview in one
// transaction. A visitor message also bumps the unread counter in SQL.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*domain.Message, error) {
	ctx, span := otel.Tracer(chatTracer).Start(ctx, "SendMessage",
		trace.WithAttributes(
			attribute.String("conversation.id", in.ConversationID),
			attribute.String("sender", in.Sender),
		))
	defer span.End()

	convID := strings.TrimSpace(in.ConversationID)
	sender := strings.ToLower(strings.TrimSpace(in.Sender))
	senderName := s.clip(normalizeText(in.SenderName), s.NameMaxLen)
	body := strings.TrimSpace(norm.NFC.String(in.Message))
	if convID == "" || sender == "" || senderName == "" || body == "" {
		return nil, ErrMissingFields
	}
	if !domain.ValidSender(sender) {
		return nil, ErrInvalidSender
	}
	if s.MessageMaxLen > 0 && utf8.RuneCountInString(body) > s.MessageMaxLen {
		return nil, ErrMessageTooLong
	}

	var msg *domain.Message
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetConversation(ctx, tx, convID)
		if err != nil {
			return err
		}
		if c.IsClosed() {
			return ErrConversationClosed
		}
		if msg, err = repo.CreateMessage(tx, convID, sender, senderName, body); err != nil {
			return err
		}
		return repo.TouchConversation(ctx, tx, convID, s.clip(body, s.PreviewMaxLen), msg.CreatedAt, sender == domain.SenderVisitor)
	})
	if err != nil {
		return nil, notFound(err, ErrConversationNotFound)
	}

	observability.MessagesSent.WithLabelValues(sender).Inc()
	s.publish(ctx, events.Event{
		Type:           events.TypeMessageCreated,
		ConversationID: convID,
		Message:        msg,
	})
	return msg, nil
}

// ListMessages returns the messages of a conversation in chronological order.
// A non-nil since keeps only messages created strictly after it. An unknown
// conversation yields an empty list; clients detect ended conversations via
// GetConversation.
func (s *ChatService) ListMessages(ctx context.Context, conversationID string, since *time.Time) ([]domain.Message, error) {
	ctx, span := otel.Tracer(chatTracer).Start(ctx, "ListMessages",
		trace.WithAttributes(attribute.String("conversation.id", conversationID)))
	defer span.End()

	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, ErrMissingFields
	}
	return repo.ListMessages(s.DB.WithContext(ctx), conversationID, since)
}

// MarkRead marks the other party's unread messages as read on behalf of
// reader. When the admin reads, the unread counter is reset as well. The
// operation is idempotent and returns how many messages changed.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, reader string) (int64, error) {
	ctx, span := otel.Tracer(chatTracer).Start(ctx, "MarkRead",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("reader", reader),
		))
	defer span.End()

	conversationID = strings.TrimSpace(conversationID)
	reader = strings.ToLower(strings.TrimSpace(reader))
	if conversationID == "" || reader == "" {
		return 0, ErrMissingFields
	}
	if !domain.ValidSender(reader) {
		return 0, ErrInvalidSender
	}

	var updated int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetConversation(ctx, tx, conversationID); err != nil {
			return err
		}
		n, err := repo.MarkMessagesRead(tx, conversationID, domain.OppositeSender(reader))
		if err != nil {
			return err
		}
		updated = n
		if reader == domain.SenderAdmin {
			return repo.ResetUnread(ctx, tx, conversationID)
		}
		return nil
	})
	if err != nil {
		return 0, notFound(err, ErrConversationNotFound)
	}

	if updated > 0 || reader == domain.SenderAdmin {
		ev := events.Event{
			Type:           events.TypeConversationRead,
			ConversationID: conversationID,
			Reader:         reader,
		}
		if reader == domain.SenderAdmin {
			zero := 0
			ev.UnreadCount = &zero
		}
		s.publish(ctx, ev)
	}
	return updated, nil
}

func (s *ChatService) publish(ctx context.Context, ev events.Event) {
	if s.Broker == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	if err := s.Broker.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).
			Str("event", ev.Type).
			Str("conversation_id", ev.ConversationID).
			Msg("chat event publish failed")
	}
}

func (s *ChatService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// clip truncates s to max runes; max <= 0 disables clipping.
func (s *ChatService) clip(v string, max int) string {
	if max > 0 && utf8.RuneCountInString(v) > max {
		return string([]rune(v)[:max])
	}
	return v
}

// notFound maps gorm's missing-row error to the service sentinel and passes
// everything else through.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// normalizeText composes Unicode (NFC), trims and collapses whitespace runs.
func normalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
