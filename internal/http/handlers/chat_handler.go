// Chat HTTP handlers.
//
// This file exposes the conversation endpoints:
//   - POST   /chat/conversations             (create, rate limited)
//   - GET    /chat/conversations             (admin list, ETag support)
//   - GET    /chat/conversations/{id}        (conversation + history)
//   - PUT    /chat/conversations/{id}        (admin partial update)
//   - DELETE /chat/conversations/{id}        (end and remove)
//   - GET    /chat/conversations/{id}/events (server-sent events)
package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/events"
	"github.com/danismanim/danismanim-backend/internal/http/middleware"
	"github.com/danismanim/danismanim-backend/internal/observability"
	"github.com/danismanim/danismanim-backend/internal/repo"
	"github.com/danismanim/danismanim-backend/internal/services"
)

//
// DTOs
//

// CreateConversationRequest is the JSON payload for opening a conversation.
type CreateConversationRequest struct {
	// VisitorID is an opaque client-side id, optional.
	VisitorID    string `json:"visitorId"    example:"v-7f3c"`
	VisitorName  string `json:"visitorName"  example:"Ayşe Yılmaz"`
	VisitorEmail string `json:"visitorEmail" example:"ayse@example.com"`
}

// UpdateConversationRequest is a partial update; omitted fields are kept.
type UpdateConversationRequest struct {
	Status      *string `json:"status,omitempty"      example:"closed"`
	UnreadCount *int    `json:"unreadCount,omitempty" example:"0"`
}

// ConversationResponse wraps a single conversation.
type ConversationResponse struct {
	Conversation *domain.Conversation `json:"conversation"`
}

// ConversationDetailResponse wraps a conversation and its messages, oldest first.
type ConversationDetailResponse struct {
	Conversation *domain.Conversation `json:"conversation"`
	Messages     []domain.Message     `json:"messages"`
}

// ListConversationsResponse wraps all conversations, most recent activity first.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
}

//
// Handlers
//

// CreateConversation godoc
// @ID          createConversation
// @Summary     Open a conversation
// @Description Starts a new chat session for a visitor. Earlier sessions are never reused. Limited per client IP.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CreateConversationRequest  true  "Visitor details"
// @Success     201   {object}  handlers.ConversationResponse
// @Failure     400   {object}  handlers.ErrorResponse      "visitorName missing or bad email"
// @Failure     403   {object}  handlers.ErrorResponse      "Admin address used as visitor"
// @Failure     429   {object}  handlers.RateLimitResponse  "Too many conversations"
// @Failure     500   {object}  handlers.ErrorResponse      "Internal error"
// @Router      /chat/conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	conv, err := h.chatSvc.CreateConversation(c.Request.Context(), services.CreateConversationInput{
		VisitorID:    req.VisitorID,
		VisitorName:  req.VisitorName,
		VisitorEmail: req.VisitorEmail,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, ConversationResponse{Conversation: conv})
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations
// @Description Returns every conversation, most recent activity first. Supports weak ETag via If-None-Match.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListConversationsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Admin session required"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if h.db != nil {
		if count, maxTS, err := repo.ConversationsStats(ctx, h.db); err == nil {
			if notModified(c, "conversations", count, maxTS) {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.chatSvc.ListConversations(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Conversation{}
	}
	ok(c, http.StatusOK, ListConversationsResponse{Conversations: items})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Get a conversation with its messages
// @Description A 404 tells a polling client that the conversation has ended.
// @Tags        Chat
// @Produce     json
// @Param       id   path      string  true  "Conversation ID (UUID)"
// @Success     200  {object}  handlers.ConversationDetailResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	conv, msgs, err := h.chatSvc.GetConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	ok(c, http.StatusOK, ConversationDetailResponse{Conversation: conv, Messages: msgs})
}

// UpdateConversation godoc
// @ID          updateConversation
// @Summary     Update a conversation
// @Description Partial update of status and unread counter. Closing an active conversation ends it for the visitor.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string  true  "Conversation ID (UUID)"
// @Param       body  body      handlers.UpdateConversationRequest  true  "Fields to change"
// @Success     200   {object}  handlers.ConversationResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid status or unreadCount"
// @Failure     401   {object}  handlers.ErrorResponse  "Admin session required"
// @Failure     404   {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /chat/conversations/{id} [put]
func (h *Handlers) UpdateConversation(c *gin.Context) {
	var req UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	conv, err := h.chatSvc.UpdateConversation(c.Request.Context(), c.Param("id"), services.UpdateConversationInput{
		Status:      req.Status,
		UnreadCount: req.UnreadCount,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ConversationResponse{Conversation: conv})
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     End and delete a conversation
// @Description Removes the conversation and all of its messages. The other party is told who ended it; by=admin requires an admin session.
// @Tags        Chat
// @Produce     json
// @Param       id   path      string  true   "Conversation ID (UUID)"
// @Param       by   query     string  false  "Who ends the conversation"  Enums(visitor, admin)
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     401  {object}  handlers.ErrorResponse  "by=admin without admin session"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /chat/conversations/{id} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	by := strings.ToLower(strings.TrimSpace(c.Query("by")))
	if by == domain.SenderAdmin && middleware.AdminFrom(c) == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "admin session required")
		return
	}
	if err := h.chatSvc.DeleteConversation(c.Request.Context(), c.Param("id"), by); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true, Message: "conversation deleted"})
}

// StreamEvents godoc
// @ID          streamConversationEvents
// @Summary     Subscribe to conversation events
// @Description Server-sent events for one conversation: message.created, conversation.read, conversation.updated and conversation.ended. The stream closes after conversation.ended. Comment lines keep idle connections open.
// @Tags        Chat
// @Produce     text/event-stream
// @Param       id   path      string  true  "Conversation ID (UUID)"
// @Success     200  {string}  string  "event stream"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     503  {object}  handlers.ErrorResponse  "Events unavailable"
// @Router      /chat/conversations/{id}/events [get]
func (h *Handlers) StreamEvents(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if h.broker == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "event stream unavailable")
		return
	}
	if _, err := h.chatSvc.LookupConversation(ctx, id); err != nil {
		failErr(c, err)
		return
	}

	ch, cancel, err := h.broker.Subscribe(ctx, id)
	if err != nil {
		failErr(c, err)
		return
	}
	defer cancel()

	observability.StreamSubscribers.Inc()
	defer observability.StreamSubscribers.Dec()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return ev.Type != events.TypeConversationEnded
		case <-ticker.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		}
	})
}
