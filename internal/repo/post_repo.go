// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for blog posts.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// CreatePost inserts p, assigning an ID and timestamps. A taken slug yields
// ErrDuplicate.
func CreatePost(ctx context.Context, db *gorm.DB, p *domain.BlogPost) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// CountPosts returns the number of posts with the given status ("" = all).
func CountPosts(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.BlogPost{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&total).Error
	return total, err
}

// ListPostsPage returns posts newest update first. status "" lists all.
func ListPostsPage(ctx context.Context, db *gorm.DB, status string, offset, limit int) ([]domain.BlogPost, error) {
	var out []domain.BlogPost
	q := db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("updated_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetPost fetches a post by ID.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.BlogPost, error) {
	var p domain.BlogPost
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPostBySlug fetches a post by slug, optionally requiring a status.
func GetPostBySlug(ctx context.Context, db *gorm.DB, slug, status string) (*domain.BlogPost, error) {
	var p domain.BlogPost
	q := db.WithContext(ctx).Where("slug = ?", slug)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePost writes every column of an existing post. A taken slug yields
// ErrDuplicate.
func SavePost(ctx context.Context, db *gorm.DB, p *domain.BlogPost) error {
	p.UpdatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Save(p).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DeletePost removes a post. Returns ErrNotFound when nothing matched.
func DeletePost(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.BlogPost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
