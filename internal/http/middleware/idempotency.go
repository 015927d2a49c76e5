// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for unsafe HTTP methods. It
// validates an Idempotency-Key request header, derives the scope the key is
// bound to, optionally asks a lookup whether a stored result exists, and
// annotates the request context so downstream handlers can:
//   - read the normalized key and scope (GetIdempotencyKey, GetIdempotencyScope)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// Persistence stays behind the narrow IdempotencyLookup function type; the
// handler that owns the operation stores and replays the actual result.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to convey an
// idempotency key for unsafe operations.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemScope  = "idem.scope"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated idempotency key stored by
// IdempotencyValidator. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// GetIdempotencyScope returns the scope the key was validated against. Handlers
// must store results under the same scope so that replays find them.
func GetIdempotencyScope(c *gin.Context) string {
	v, _ := c.Get(ctxKeyIdemScope)
	s, _ := v.(string)
	return s
}

// IsReplay reports whether the lookup found a stored result for this
// (scope, key) pair.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures IdempotencyValidator. TTL enforcement belongs
// to the lookup.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
	// Scope derives the scope a key belongs to. If nil, RouteScope is used.
	Scope func(*gin.Context) string
}

// IdempotencyLookup answers whether a still-valid result exists for
// (scope, key) at now. Errors are treated as "no replay".
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (exists bool, err error)

// RouteScope scopes keys to the matched route, e.g. "POST /api/v1/chat/messages".
// Unmatched requests fall back to the raw path.
func RouteScope(c *gin.Context) string {
	p := c.FullPath()
	if p == "" {
		p = c.Request.URL.Path
	}
	return c.Request.Method + " " + p
}

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes key and scope in the request context and, when a lookup is given,
// marks the request as a replay (and exempt from rate limiting) if a stored
// result exists.
//
// A missing header makes the middleware a no-op. An invalid key is answered
// with 400 before any handler runs.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}
	scopeFn := opts.Scope
	if scopeFn == nil {
		scopeFn = RouteScope
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"requestId": requestIDFrom(c),
				"code":      "bad_idempotency_key",
				"message":   "invalid Idempotency-Key",
			})
			return
		}

		scope := scopeFn(c)
		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		if lookup != nil {
			if exists, err := lookup(c.Request.Context(), scope, key, time.Now().UTC()); err == nil && exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// requestIDFrom returns the correlation id set by RequestID, falling back to
// the response header.
func requestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return c.Writer.Header().Get(requestIDHeader)
}
