// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a conversation is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Usage:
//
//	conv, err := repo.GetConversation(ctx, db, id)
//	if errors.Is(err, repo.ErrNotFound) {
//	    // ended or never existed
//	} else if err != nil {
//	    // handle DB failure
//	}
//
// This repository is wrapped by services.ChatService, which owns the
// transactions spanning conversations and their messages.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a new active Conversation for a visitor. The ID
// is a random UUID and both timestamps are set to the current UTC time.
func CreateConversation(ctx context.Context, db *gorm.DB, visitorID, name, email string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:           uuid.NewString(),
		VisitorID:    visitorID,
		VisitorName:  name,
		VisitorEmail: email,
		Status:       domain.ConversationActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListConversations returns every conversation, most recent activity first:
// the last message time, falling back to the creation time for conversations
// without messages.
func ListConversations(ctx context.Context, db *gorm.DB) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Order("COALESCE(last_message_at, created_at) DESC").
		Order("id DESC").
		Find(&out).Error
	return out, err
}

// GetConversation fetches a single conversation by ID, or ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateConversation applies a partial update (column -> value). It returns
// ErrNotFound when no row matches id.
func UpdateConversation(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchConversation records the preview of a newly sent message. When
// incUnread is true the unread counter is incremented in SQL so concurrent
// sends cannot lose updates.
func TouchConversation(ctx context.Context, db *gorm.DB, id, preview string, at time.Time, incUnread bool) error {
	fields := map[string]any{
		"last_message":    preview,
		"last_message_at": at,
		"updated_at":      at,
	}
	if incUnread {
		fields["unread_count"] = gorm.Expr("unread_count + ?", 1)
	}
	return UpdateConversation(ctx, db, id, fields)
}

// ResetUnread sets the unread counter of a conversation back to zero.
func ResetUnread(ctx context.Context, db *gorm.DB, id string) error {
	return UpdateConversation(ctx, db, id, map[string]any{"unread_count": 0})
}

// DeleteConversation removes a conversation row. Messages must already be
// gone (or cascade through the FK). Returns ErrNotFound when nothing matched.
func DeleteConversation(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Conversation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
