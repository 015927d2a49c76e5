// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// CreateMessage inserts a new unread message row. Timestamps are kept at
// millisecond precision, the precision browser clients send back as "since".
func CreateMessage(db *gorm.DB, conversationID, sender, senderName, body string) (*domain.Message, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	m := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         sender,
		SenderName:     senderName,
		Message:        body,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return m, db.Omit("Conversation").Create(m).Error
}

// ListMessages returns messages ordered deterministically (CreatedAt ASC, ID ASC).
// A non-nil since keeps only messages created strictly after it.
func ListMessages(db *gorm.DB, conversationID string, since *time.Time) ([]domain.Message, error) {
	out := []domain.Message{}
	q := db.Where("conversation_id = ?", conversationID)
	if since != nil {
		q = q.Where("created_at > ?", since.UTC())
	}
	err := q.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// MarkMessagesRead flips read=true on unread messages of the given sender and
// returns how many rows changed.
func MarkMessagesRead(db *gorm.DB, conversationID, sender string) (int64, error) {
	res := db.Model(&domain.Message{}).
		Where("conversation_id = ? AND sender = ? AND read = ?", conversationID, sender, false).
		Updates(map[string]any{"read": true, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// DeleteMessages removes every message of a conversation.
func DeleteMessages(db *gorm.DB, conversationID string) (int64, error) {
	res := db.Where("conversation_id = ?", conversationID).Delete(&domain.Message{})
	return res.RowsAffected, res.Error
}

// GetMessage fetches a message by ID.
func GetMessage(db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
