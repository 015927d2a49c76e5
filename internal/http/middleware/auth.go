package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// Authenticator resolves an admin session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

const ctxKeyAdmin = "admin"

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// RequireAdmin rejects requests without a valid admin session with 401.
// On success the admin is stored in the context ("userID" and AdminFrom).
func RequireAdmin(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, auth) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"requestId": requestIDFrom(c),
				"code":      "unauthorized",
				"message":   "admin session required",
			})
			return
		}
		c.Next()
	}
}

// OptionalAdmin resolves the admin when a valid token is present and lets
// every request through. Public chat routes use it to accept admin replies.
func OptionalAdmin(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, auth)
		c.Next()
	}
}

// AdminFrom returns the authenticated admin, or nil.
func AdminFrom(c *gin.Context) *domain.User {
	v, _ := c.Get(ctxKeyAdmin)
	u, _ := v.(*domain.User)
	return u
}

func authenticate(c *gin.Context, auth Authenticator) bool {
	token := BearerToken(c)
	if token == "" {
		return false
	}
	u, err := auth.Authenticate(c.Request.Context(), token)
	if err != nil || u == nil {
		return false
	}
	c.Set(ctxKeyAdmin, u)
	c.Set("userID", u.ID)
	return true
}
