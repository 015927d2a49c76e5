package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/danismanim/danismanim-backend/internal/config"
	"github.com/danismanim/danismanim-backend/internal/events"
	"github.com/danismanim/danismanim-backend/internal/http/handlers"
	"github.com/danismanim/danismanim-backend/internal/mailer"
	"github.com/danismanim/danismanim-backend/internal/repo"
	"github.com/danismanim/danismanim-backend/internal/services"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:     "/api/v1",
		RateRPS:         100,
		RateBurst:       50,
		LogRedact:       true,
		IdempotencyTTL:  time.Hour,
		AdminSessionTTL: time.Hour,
		Chat: config.ChatConfig{
			AdminEmails:     []string{"admin@danismanim.co"},
			CreateLimit:     2,
			CreateWindow:    time.Minute,
			StreamHeartbeat: 20 * time.Millisecond,
		},
		Contact: config.ContactConfig{Inbox: "info@danismanim.co", Limit: 1, Window: time.Minute},
		OTEL:    config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, Infra{Broker: events.NewMemoryBroker(), Mailer: mailer.LogMailer{}}, cfg)
	return r, db
}

func serve(r http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	// /health works
	w := serve(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	// /metrics is wired and never compressed
	w = serve(r, http.MethodGet, "/metrics", nil, "Accept-Encoding", "gzip")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}
	if w.Header().Get("Content-Encoding") == "gzip" {
		t.Fatalf("/metrics must not be gzipped")
	}

	// NoRoute → 404
	if w := serve(r, http.MethodGet, "/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	// NoMethod → 405 (POST /health)
	if w := serve(r, http.MethodPost, "/health", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://danismanim.co"}}
	r, _ := newRouter(t, cfg)

	w := serve(r, http.MethodGet, "/health", nil, "Origin", "https://danismanim.co")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://danismanim.co" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	if w := serve(r, http.MethodGet, "/api/v2/posts", nil); w.Code != http.StatusOK {
		t.Fatalf("custom base path not mounted: %d", w.Code)
	}
}

func TestRegisterRoutes_AdminRoutesRequireSession(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	for _, path := range []string{"/api/v1/chat/conversations", "/api/v1/admin/posts", "/api/v1/admin/meetings", "/api/v1/admin/meetings/export", "/api/v1/auth/me"} {
		w := serve(r, http.MethodGet, path, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s anonymous -> %d", path, w.Code)
		}
		if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
			t.Fatalf("GET %s Cache-Control = %q", path, cc)
		}
	}
	if w := serve(r, http.MethodGet, "/api/v1/posts", nil); w.Code != http.StatusOK {
		t.Fatalf("public posts -> %d", w.Code)
	}
}

func TestRegisterRoutes_AdminLoginUnlocksBackOffice(t *testing.T) {
	r, db := newRouter(t, testConfig())
	seedAdmin(t, db)

	w := serve(r, http.MethodPost, "/api/v1/auth/login", gin.H{"email": "admin@danismanim.co", "password": "s3cret-pass"})
	if w.Code != http.StatusOK {
		t.Fatalf("login -> %d %s", w.Code, w.Body.String())
	}
	var sess struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &sess)
	if sess.Token == "" {
		t.Fatalf("login returned no token: %s", w.Body.String())
	}

	if w := serve(r, http.MethodGet, "/api/v1/admin/meetings", nil, "Authorization", "Bearer "+sess.Token); w.Code != http.StatusOK {
		t.Fatalf("admin meetings -> %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/admin/meetings/export", nil, "Authorization", "Bearer "+sess.Token); w.Code != http.StatusOK {
		t.Fatalf("export must not be shadowed by /:id, got %d", w.Code)
	}
}

func TestRegisterRoutes_ConversationCreateWindow(t *testing.T) {
	r, _ := newRouter(t, testConfig())
	body := gin.H{"visitorId": "v-1", "visitorName": "Ali", "visitorEmail": "ali@example.com"}

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodPost, "/api/v1/chat/conversations", body); w.Code != http.StatusCreated {
			t.Fatalf("create #%d -> %d %s", i+1, w.Code, w.Body.String())
		}
	}
	w := serve(r, http.MethodPost, "/api/v1/chat/conversations", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third create expected 429, got %d", w.Code)
	}
	retryAfter := w.Header().Get("Retry-After")
	if retryAfter == "" {
		t.Fatalf("429 without Retry-After")
	}
	var limited handlers.RateLimitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &limited); err != nil {
		t.Fatalf("decode 429 body: %v", err)
	}
	if limited.Code != handlers.ErrCodeRateLimited || limited.ResetIn < 1 || strconv.Itoa(limited.ResetIn) != retryAfter {
		t.Fatalf("unexpected 429 body %+v (Retry-After %s)", limited, retryAfter)
	}

	// Another client is not affected.
	if w := serve(r, http.MethodPost, "/api/v1/chat/conversations", body, "X-Forwarded-For", "203.0.113.9"); w.Code != http.StatusCreated {
		t.Fatalf("other IP -> %d", w.Code)
	}
}

func TestRegisterRoutes_ContactWindow(t *testing.T) {
	r, _ := newRouter(t, testConfig())
	body := gin.H{"name": "Zeynep", "email": "zeynep@example.com", "phone": "+90 555 123 45 67", "country": "Kanada", "message": "Bilgi"}

	if w := serve(r, http.MethodPost, "/api/v1/contact", body); w.Code != http.StatusOK {
		t.Fatalf("first contact -> %d %s", w.Code, w.Body.String())
	}
	if w := serve(r, http.MethodPost, "/api/v1/contact", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second contact expected 429, got %d", w.Code)
	}
}

func TestRegisterRoutes_Gzip_SkipsEventStream(t *testing.T) {
	r, _ := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/posts", nil, "Accept-Encoding", "gzip")
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("posts listing should be gzipped")
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	plain, _ := io.ReadAll(zr)
	if !bytes.Contains(plain, []byte(`"posts"`)) {
		t.Fatalf("unexpected body %s", plain)
	}

	conv := serve(r, http.MethodPost, "/api/v1/chat/conversations", gin.H{"visitorId": "v-1", "visitorName": "Ali", "visitorEmail": "ali@example.com"})
	var created struct {
		Conversation struct {
			ID string `json:"id"`
		} `json:"conversation"`
	}
	_ = json.Unmarshal(conv.Body.Bytes(), &created)

	srv := httptest.NewServer(r)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/chat/conversations/"+created.Conversation.ID+"/events", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := srv.Client().Transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Encoding") == "gzip" {
		t.Fatalf("event stream must not be gzipped")
	}
}

func TestRegisterRoutes_Swagger(t *testing.T) {
	r, _ := newRouter(t, testConfig())
	if w := serve(r, http.MethodGet, "/swagger/index.html", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger disabled should 404, got %d", w.Code)
	}

	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r, _ = newRouter(t, cfg)
	if w := serve(r, http.MethodGet, "/swagger/index.html", nil); w.Code != http.StatusOK {
		t.Fatalf("swagger enabled -> %d", w.Code)
	}
}

func TestRegisterRoutes_IdempotencyKeyValidated(t *testing.T) {
	r, _ := newRouter(t, testConfig())
	w := serve(r, http.MethodPost, "/api/v1/chat/messages", gin.H{}, "Idempotency-Key", "not valid!")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed key -> %d", w.Code)
	}
}

func TestRegisterRoutes_IdempotencyLookup_ClosedDB(t *testing.T) {
	r, db := newRouter(t, testConfig())

	// Force queries to fail; the lookup must degrade to "no replay".
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()

	w := serve(r, http.MethodPost, "/health", gin.H{}, "Idempotency-Key", "force-error")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := serve(r, http.MethodGet, path, nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}

func seedAdmin(t *testing.T, db *gorm.DB) {
	t.Helper()
	if _, err := services.NewAuthService(db, time.Hour).CreateAdmin(context.Background(), "admin@danismanim.co", "s3cret-pass", "Danışman"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
}
