// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for meetings.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// CreateMeeting inserts m, assigning an ID and timestamps.
func CreateMeeting(ctx context.Context, db *gorm.DB, m *domain.Meeting) error {
	now := time.Now().UTC()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt, m.UpdatedAt = now, now
	return db.WithContext(ctx).Create(m).Error
}

// ListMeetings returns meetings in calendar order. Dates and times are
// zero-padded strings so lexical order is chronological.
func ListMeetings(ctx context.Context, db *gorm.DB) ([]domain.Meeting, error) {
	out := []domain.Meeting{}
	err := db.WithContext(ctx).
		Order("meeting_date ASC, meeting_time ASC, id ASC").
		Find(&out).Error
	return out, err
}

// GetMeeting fetches a meeting by ID.
func GetMeeting(ctx context.Context, db *gorm.DB, id string) (*domain.Meeting, error) {
	var m domain.Meeting
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMeeting writes every column of an existing meeting.
func SaveMeeting(ctx context.Context, db *gorm.DB, m *domain.Meeting) error {
	m.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).Save(m).Error
}

// MarkMeetingEmailSent sets emailSent=true. Returns ErrNotFound when nothing matched.
func MarkMeetingEmailSent(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]any{"email_sent": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteMeeting removes a meeting. Returns ErrNotFound when nothing matched.
func DeleteMeeting(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Meeting{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
