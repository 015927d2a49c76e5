// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the two request limiters:
//
//   - RateLimiter: an in-process token bucket per admin or client IP
//     (golang.org/x/time/rate), installed on every API route as coarse edge
//     protection.
//   - WindowLimit: a fixed-window counter per client IP backed by a
//     ratelimit.Store, guarding conversation creation and the contact form.
//     With a Redis store the window is shared by every instance.
//
// Both skip requests that IdempotencyValidator marked as replays, and both
// answer with 429 in the API error envelope plus Retry-After.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/danismanim/danismanim-backend/internal/observability"
	"github.com/danismanim/danismanim-backend/internal/ratelimit"
)

// UnknownClient is the shared bucket for requests without any client address.
const UnknownClient = "unknown"

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, and finally
// UnknownClient. The proxy in front of the API is expected to set these.
func ClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownClient
}

// KeyByAdminOrIP keys authenticated admins by id and everyone else by
// ClientIP, with prefixes so the namespaces cannot collide.
func KeyByAdminOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "admin:" + s
			}
		}
		return "ip:" + ClientIP(c)
	}
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay that should not consume rate-limit budget.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func abortTooMany(c *gin.Context, resetIn int, extra gin.H) {
	if resetIn < 1 {
		resetIn = 1
	}
	c.Header("Retry-After", strconv.Itoa(resetIn))
	body := gin.H{
		"requestId": requestIDFrom(c),
		"code":      "too_many_requests",
		"message":   "rate limit exceeded",
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
}

// ---- token bucket ----

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token bucket with opportunistic eviction of idle
// buckets. Safe for concurrent use; process-local.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the bucket for key. Every 5000 lookups idle buckets are
// evicted first, so a stale bucket for key itself is dropped as well.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler enforces the bucket. Rejections carry Retry-After computed from the
// bucket's refill rate.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		lim := rl.getVisitor(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}
		observability.RateLimited.WithLabelValues("edge").Inc()
		wait := 1
		if rl.rps > 0 {
			wait = int(math.Ceil(1 / float64(rl.rps)))
		}
		abortTooMany(c, wait, nil)
	}
}

// ---- fixed window ----

// WindowLimit enforces a ratelimit.Limiter per ClientIP. scope labels the
// metric and the log line ("chat_create", "contact").
//
// Store failures fail open: the request proceeds and a warning is logged.
func WindowLimit(l *ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		ip := ClientIP(c)
		d, err := l.Allow(c.Request.Context(), scope+":"+ip)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("rate limit store unavailable; allowing request")
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(l.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if d.Allowed {
			c.Next()
			return
		}
		observability.RateLimited.WithLabelValues(scope).Inc()
		// Body and Retry-After agree; a window ending this second still reports 1.
		resetIn := max(d.ResetIn, 1)
		LoggerFrom(c).Info().Str("scope", scope).Str("client", ip).Int("reset_in", resetIn).Msg("rate limited")
		abortTooMany(c, resetIn, gin.H{"resetIn": resetIn})
	}
}
