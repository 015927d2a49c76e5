// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// ConversationsStats returns the number of conversations and the greatest
// UpdatedAt among them. Every send, read and status change bumps UpdatedAt,
// so the pair changes whenever the admin list would.
//
// When there are no conversations, count is 0 and maxUpdatedAt is nil.
func ConversationsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	return tableStats(db.WithContext(ctx).Model(&domain.Conversation{}))
}

// PostsStats is ConversationsStats for blog posts, optionally restricted to
// one status ("" means all).
func PostsStats(ctx context.Context, db *gorm.DB, status string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.BlogPost{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return tableStats(q)
}

func tableStats(q *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
