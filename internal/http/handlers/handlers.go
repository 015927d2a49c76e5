// Package handlers exposes the REST API of the consultancy backend.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including
// conditional responses and idempotent replays).
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/events"
	"github.com/danismanim/danismanim-backend/internal/mailer"
	"github.com/danismanim/danismanim-backend/internal/services"
	"github.com/danismanim/danismanim-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ChatService defines the conversation and message operations consumed by
// the chat endpoints.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ChatService interface {
	CreateConversation(ctx context.Context, in services.CreateConversationInput) (*domain.Conversation, error)
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	GetConversation(ctx context.Context, id string) (*domain.Conversation, []domain.Message, error)
	LookupConversation(ctx context.Context, id string) (*domain.Conversation, error)
	UpdateConversation(ctx context.Context, id string, in services.UpdateConversationInput) (*domain.Conversation, error)
	// DeleteConversation removes the conversation; endedBy is forwarded to
	// the other party.
	DeleteConversation(ctx context.Context, id, endedBy string) error
	SendMessage(ctx context.Context, in services.SendMessageInput) (*domain.Message, error)
	// ListMessages returns messages strictly after since, or all when nil.
	ListMessages(ctx context.Context, conversationID string, since *time.Time) ([]domain.Message, error)
	// MarkRead marks the other party's messages read and returns how many
	// changed.
	MarkRead(ctx context.Context, conversationID, reader string) (int64, error)
}

// PostService defines blog operations.
type PostService interface {
	ListPublished(ctx context.Context, page, pageSize int) ([]domain.BlogPost, int64, error)
	ListAll(ctx context.Context, page, pageSize int) ([]domain.BlogPost, int64, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
	Get(ctx context.Context, id string) (*domain.BlogPost, error)
	Create(ctx context.Context, in services.PostInput) (*domain.BlogPost, error)
	Update(ctx context.Context, id string, in services.PostInput) (*domain.BlogPost, error)
	Delete(ctx context.Context, id string) error
}

// MeetingService defines meeting scheduling operations.
type MeetingService interface {
	List(ctx context.Context) ([]domain.Meeting, error)
	Get(ctx context.Context, id string) (*domain.Meeting, error)
	Create(ctx context.Context, in services.MeetingInput) (*domain.Meeting, error)
	Update(ctx context.Context, id string, in services.MeetingInput) (*domain.Meeting, error)
	Delete(ctx context.Context, id string) error
	SendInvite(ctx context.Context, id string) (*domain.Meeting, error)
}

// ContactService forwards contact form submissions.
type ContactService interface {
	Submit(ctx context.Context, f mailer.ContactForm) error
}

// AuthService logs admins in and out.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Logout(ctx context.Context, token string) error
}

//
// Handler wiring
//

// Deps lists everything the handlers need. DB is optional; without it list
// endpoints skip ETags and message creation skips idempotency records.
// Broker is optional; without it the events endpoint answers 503.
type Deps struct {
	Chat    ChatService
	Post    PostService
	Meeting MeetingService
	Contact ContactService
	Auth    AuthService

	DB             *gorm.DB
	Broker         events.Broker
	IdempotencyTTL time.Duration
	// Heartbeat is the interval of SSE keep-alive comments.
	Heartbeat time.Duration
}

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	chatSvc    ChatService
	postSvc    PostService
	meetingSvc MeetingService
	contactSvc ContactService
	authSvc    AuthService

	db        *gorm.DB
	broker    events.Broker
	idemTTL   time.Duration
	heartbeat time.Duration
}

// New constructs a Handlers instance from d.
func New(d Deps) *Handlers {
	h := &Handlers{
		chatSvc:    d.Chat,
		postSvc:    d.Post,
		meetingSvc: d.Meeting,
		contactSvc: d.Contact,
		authSvc:    d.Auth,
		db:         d.DB,
		broker:     d.Broker,
		idemTTL:    d.IdempotencyTTL,
		heartbeat:  d.Heartbeat,
	}
	if h.idemTTL <= 0 {
		h.idemTTL = 24 * time.Hour
	}
	if h.heartbeat <= 0 {
		h.heartbeat = 15 * time.Second
	}
	return h
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds the page and pageSize query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ParsePage(c.Query("page"), c.Query("pageSize"))
}

// notModified sets a weak ETag built from a row count and the newest update
// time and reports whether the client already holds that version.
func notModified(c *gin.Context, prefix string, count int64, maxTS *time.Time) bool {
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d"`, prefix, count, ts)
	c.Header("ETag", etag)
	return c.GetHeader("If-None-Match") == etag
}
