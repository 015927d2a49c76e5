// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, rate limiting and admin auth.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/config"
	"github.com/danismanim/danismanim-backend/internal/events"
	"github.com/danismanim/danismanim-backend/internal/http/handlers"
	"github.com/danismanim/danismanim-backend/internal/http/middleware"
	"github.com/danismanim/danismanim-backend/internal/mailer"
	"github.com/danismanim/danismanim-backend/internal/ratelimit"
	"github.com/danismanim/danismanim-backend/internal/services"
)

// Infra carries the shared backends chosen at startup. Nil fields fall back
// to in-process implementations.
type Infra struct {
	// Broker fans chat events out to SSE subscribers.
	Broker events.Broker
	// LimitStore backs the per-IP conversation and contact form windows.
	LimitStore ratelimit.Store
	// Mailer delivers meeting invitations and contact form mails.
	Mailer mailer.Mailer
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per admin/IP, bypass on replay)
//  9. CORS and Security headers
//  10. gzip (skipped for the event stream)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, infra Infra, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	if infra.Broker == nil {
		infra.Broker = events.NewMemoryBroker()
	}
	if infra.LimitStore == nil {
		infra.LimitStore = ratelimit.NewMemoryStore()
	}
	if infra.Mailer == nil {
		infra.Mailer = mailer.New(cfg.SMTP)
	}

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging, with redaction unless disabled for local work
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{middleware.HeaderIdempotencyKey},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics"))
	// Scrapers get plain text; promhttp would otherwise gzip on its own.
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{DisableCompression: true})))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, handlers.IdempotencyLookup(db)))

	// 8) Token-bucket edge limiter per admin/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByAdminOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed", "Content-Disposition"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	apiBase := strings.TrimRight(cfg.APIBasePath, "/") // e.g. "/api/v1"

	// Security headers (HSTS only when enabled and request is HTTPS). Admin
	// and auth responses carry personal data and tokens: never cache them.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:      cfg.Security.EnableHSTS,
		HSTSMaxAge:      cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{apiBase + "/admin", apiBase + "/auth", apiBase + "/chat"},
		EnablePolicy:    true,
	}))

	// 10) Compression; the event stream must reach the client unbuffered.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/events$`})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/broker/mailer
	authSvc := services.NewAuthService(db, cfg.AdminSessionTTL)
	h := handlers.New(handlers.Deps{
		Chat:           services.NewChatService(db, infra.Broker, cfg.Chat.IsAdminEmail),
		Post:           services.NewPostService(db),
		Meeting:        services.NewMeetingService(db, infra.Mailer),
		Contact:        services.NewContactService(infra.Mailer, cfg.Contact.Inbox),
		Auth:           authSvc,
		DB:             db,
		Broker:         infra.Broker,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Heartbeat:      cfg.Chat.StreamHeartbeat,
	})

	createLimit := middleware.WindowLimit(ratelimit.New(infra.LimitStore, cfg.Chat.CreateLimit, cfg.Chat.CreateWindow), "chat_create")
	contactLimit := middleware.WindowLimit(ratelimit.New(infra.LimitStore, cfg.Contact.Limit, cfg.Contact.Window), "contact")
	requireAdmin := middleware.RequireAdmin(authSvc)

	api := groupWithPrefix(r, apiBase)
	{
		// Chat: public, admin replies resolved from an optional bearer token
		chat := api.Group("/chat", middleware.OptionalAdmin(authSvc))
		chat.POST("/conversations", createLimit, h.CreateConversation)
		chat.GET("/conversations", requireAdmin, h.ListConversations)
		chat.GET("/conversations/:id", h.GetConversation)
		chat.PUT("/conversations/:id", requireAdmin, h.UpdateConversation)
		chat.DELETE("/conversations/:id", h.DeleteConversation)
		chat.GET("/conversations/:id/events", h.StreamEvents)
		chat.POST("/messages", h.SendMessage)
		chat.GET("/messages", h.ListMessages)
		chat.PUT("/messages/read", h.MarkRead)

		// Blog
		api.GET("/posts", h.ListPublishedPosts)
		api.GET("/posts/slug/:slug", h.GetPostBySlug)

		// Contact form
		api.POST("/contact", contactLimit, h.SubmitContact)

		// Auth
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)
		api.GET("/auth/me", requireAdmin, h.Me)

		// Back office
		admin := api.Group("/admin", requireAdmin)
		admin.GET("/posts", h.ListAllPosts)
		admin.POST("/posts", h.CreatePost)
		admin.GET("/posts/:id", h.GetPost)
		admin.PUT("/posts/:id", h.UpdatePost)
		admin.DELETE("/posts/:id", h.DeletePost)

		admin.GET("/meetings", h.ListMeetings)
		admin.POST("/meetings", h.CreateMeeting)
		admin.GET("/meetings/export", h.ExportMeetings)
		admin.GET("/meetings/:id", h.GetMeeting)
		admin.PUT("/meetings/:id", h.UpdateMeeting)
		admin.DELETE("/meetings/:id", h.DeleteMeeting)
		admin.POST("/meetings/:id/invite", h.SendMeetingInvite)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
