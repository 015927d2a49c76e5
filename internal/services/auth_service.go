// Package services – AuthService
//
// AuthService logs admins in with email and password and issues opaque
// bearer tokens (32 random bytes, hex encoded) stored in admin_sessions.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/repo"
)

const authTracer = "services/AuthService"

// minPasswordLen is the shortest password CreateAdmin accepts.
const minPasswordLen = 8

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

// AuthService provides admin authentication.
type AuthService struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

// NewAuthService constructs an AuthService issuing sessions valid for ttl.
func NewAuthService(db *gorm.DB, ttl time.Duration) *AuthService {
	return &AuthService{DB: db, TTL: ttl, Now: func() time.Time { return time.Now().UTC() }}
}

// Login checks the credentials and opens a session. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	ctx, span := otel.Tracer(authTracer).Start(ctx, "Login")
	defer span.End()

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.Role != domain.RoleAdmin || !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	sess, err := repo.CreateSession(ctx, s.DB, token, u.ID, s.now().Add(s.TTL))
	if err != nil {
		return nil, err
	}
	return &Session{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: u}, nil
}

// Logout revokes a token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := otel.Tracer(authTracer).Start(ctx, "Logout")
	defer span.End()
	if token == "" {
		return nil
	}
	return repo.DeleteSession(ctx, s.DB, token)
}

// Authenticate resolves a bearer token to its admin user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	u, err := repo.GetSessionUser(ctx, s.DB, token, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if u.Role != domain.RoleAdmin {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// CreateAdmin seeds an admin account.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, name string) (*domain.User, error) {
	ctx, span := otel.Tracer(authTracer).Start(ctx, "CreateAdmin")
	defer span.End()

	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	u := &domain.User{Email: email, Name: normalizeText(name), Role: domain.RoleAdmin}
	if u.Email = strings.TrimSpace(u.Email); u.Email == "" {
		return nil, ErrMissingFields
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return u, nil
}

// ResetPassword replaces the password of an existing admin.
func (s *AuthService) ResetPassword(ctx context.Context, email, password string) (*domain.User, error) {
	ctx, span := otel.Tracer(authTracer).Start(ctx, "ResetPassword")
	defer span.End()

	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	if err := repo.UpdateUserPassword(ctx, s.DB, u.ID, u.Password); err != nil {
		return nil, err
	}
	return u, nil
}

// PurgeExpired drops sessions that are no longer valid.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return repo.PurgeSessions(ctx, s.DB, s.now())
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
