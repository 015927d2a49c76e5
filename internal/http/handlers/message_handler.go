// Message HTTP handlers.
//
// This file exposes the chat message endpoints:
//   - POST /chat/messages        (send a visitor or admin message)
//   - GET  /chat/messages        (messages of a conversation, optionally since a time)
//   - PUT  /chat/messages/read   (mark the other party's messages read)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// send exists for (route, key), the handler returns the recorded message and
// sets `Idempotency-Replayed: true` without storing anything.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/http/middleware"
	"github.com/danismanim/danismanim-backend/internal/repo"
	"github.com/danismanim/danismanim-backend/internal/services"
)

//
// DTOs
//

// SendMessageRequest is the JSON payload for sending a chat message.
type SendMessageRequest struct {
	ConversationID string `json:"conversationId" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// Sender is "visitor" or "admin"; admin requires a bearer session.
	Sender     string `json:"sender"     example:"visitor"`
	SenderName string `json:"senderName" example:"Ayşe Yılmaz"`
	Message    string `json:"message"    example:"Merhaba, Almanya'da yüksek lisans için bilgi almak istiyorum."`
}

// MarkReadRequest is the JSON payload for marking messages read. Sender is
// the role of the reader.
type MarkReadRequest struct {
	ConversationID string `json:"conversationId" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Sender         string `json:"sender"         example:"admin"`
}

// MessageResponse wraps a single message.
type MessageResponse struct {
	Message *domain.Message `json:"message"`
}

// ListMessagesResponse wraps messages in chronological order.
type ListMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

// MarkReadResponse reports how many messages changed.
type MarkReadResponse struct {
	Success bool  `json:"success"`
	Updated int64 `json:"updated"`
}

//
// Handlers
//

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a chat message
// @Description Stores the message and refreshes the conversation preview. Supports idempotency via the Idempotency-Key header.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.SendMessageRequest  true  "Message"
// @Success     201  {object}  handlers.MessageResponse
// @Header      201  {string}  Idempotency-Replayed  "true when a stored result was returned"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing fields or bad sender"
// @Failure     401  {object}  handlers.ErrorResponse  "sender=admin without admin session"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Conversation is closed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if !mayActAs(c, req.Sender) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "admin session required")
		return
	}

	// Idempotency (replay path). The validator already saw a live record.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	scope := idempotencyScope(c)
	if middleware.IsReplay(c) && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, scope, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err := repo.GetMessage(h.db.WithContext(ctx), rec.ResourceID); err == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, rec.Status, MessageResponse{Message: prev})
				return
			}
		}
	}

	m, err := h.chatSvc.SendMessage(ctx, services.SendMessageInput{
		ConversationID: req.ConversationID,
		Sender:         req.Sender,
		SenderName:     req.SenderName,
		Message:        req.Message,
	})
	if err != nil {
		failErr(c, err)
		return
	}

	// Idempotency (store path), best effort. A concurrent request with the
	// same key may have won the insert; answer with its message instead.
	if idemKey != "" && h.db != nil {
		_, err := repo.CreateIdempotency(ctx, h.db, scope, idemKey, m.ID, http.StatusCreated, h.idemTTL)
		if errors.Is(err, repo.ErrDuplicate) {
			if rec, err := repo.GetIdempotency(ctx, h.db, scope, idemKey, time.Now().UTC()); err == nil {
				if prev, err := repo.GetMessage(h.db.WithContext(ctx), rec.ResourceID); err == nil {
					c.Header("Idempotency-Replayed", "true")
					m = prev
				}
			}
		} else if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency record")
		}
	}

	ok(c, http.StatusCreated, MessageResponse{Message: m})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages of a conversation
// @Description Messages in chronological order. With since, only messages created strictly after it; an unknown conversation yields an empty list.
// @Tags        Chat
// @Produce     json
// @Param       conversationId  query  string  true   "Conversation ID (UUID)"
// @Param       since           query  string  false  "RFC 3339 timestamp"  example(2026-01-02T15:04:05.999Z)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing conversationId or bad since"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	convID := strings.TrimSpace(c.Query("conversationId"))
	if convID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversationId is required")
		return
	}

	var since *time.Time
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = &t
	}

	items, err := h.chatSvc.ListMessages(c.Request.Context(), convID, since)
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Message{}
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items})
}

// MarkRead godoc
// @ID          markMessagesRead
// @Summary     Mark messages read
// @Description Marks the other party's unread messages as read. An admin reader also resets the unread counter. Idempotent.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.MarkReadRequest  true  "Reader"
// @Success     200   {object}  handlers.MarkReadResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing fields or bad sender"
// @Failure     401   {object}  handlers.ErrorResponse  "sender=admin without admin session"
// @Failure     404   {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /chat/messages/read [put]
func (h *Handlers) MarkRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if !mayActAs(c, req.Sender) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "admin session required")
		return
	}
	n, err := h.chatSvc.MarkRead(c.Request.Context(), req.ConversationID, req.Sender)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MarkReadResponse{Success: true, Updated: n})
}

// mayActAs reports whether the caller may speak for role. Anyone may act as
// the visitor; the admin role needs an authenticated admin.
func mayActAs(c *gin.Context, role string) bool {
	if strings.ToLower(strings.TrimSpace(role)) != domain.SenderAdmin {
		return true
	}
	return middleware.AdminFrom(c) != nil
}

// IdempotencyLookup reports whether a live idempotency record exists. It is
// the lookup the router hands to middleware.IdempotencyValidator.
func IdempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
		rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return rec != nil, nil
	}
}

// idempotencyScope returns the scope the validator used, or the route scope
// when no validator ran.
func idempotencyScope(c *gin.Context) string {
	if s := middleware.GetIdempotencyScope(c); s != "" {
		return s
	}
	return middleware.RouteScope(c)
}
