// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for admin users
// and their bearer sessions.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// CreateUser inserts u with a lowercased email. A taken email yields ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt, u.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUserByEmail looks a user up case-insensitively.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUserPassword stores a new password hash for the user.
func UpdateUserPassword(ctx context.Context, db *gorm.DB, id, hash string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"password": hash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateSession stores a bearer token for userID valid until expiresAt.
func CreateSession(ctx context.Context, db *gorm.DB, token, userID string, expiresAt time.Time) (*domain.AdminSession, error) {
	s := &domain.AdminSession{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Omit("User").Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetSessionUser returns the user owning a still-valid token, or ErrNotFound.
func GetSessionUser(ctx context.Context, db *gorm.DB, token string, now time.Time) (*domain.User, error) {
	var s domain.AdminSession
	err := db.WithContext(ctx).
		Preload("User").
		Where("token = ? AND expires_at > ?", token, now.UTC()).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s.User, nil
}

// DeleteSession revokes a token. Deleting an unknown token is not an error.
func DeleteSession(ctx context.Context, db *gorm.DB, token string) error {
	return db.WithContext(ctx).Where("token = ?", token).Delete(&domain.AdminSession{}).Error
}

// PurgeSessions deletes sessions that expired before now.
func PurgeSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&domain.AdminSession{})
	return res.RowsAffected, res.Error
}
