package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/events"
	"github.com/danismanim/danismanim-backend/internal/http/middleware"
	"github.com/danismanim/danismanim-backend/internal/mailer"
	"github.com/danismanim/danismanim-backend/internal/repo"
	"github.com/danismanim/danismanim-backend/internal/services"
)

// ---------- test DB + environment ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

const testAdminEmail = "admin@danismanim.co"

type testEnv struct {
	db     *gorm.DB
	broker *events.MemoryBroker
	mail   *captureMailer
	h      *Handlers
	r      *gin.Engine
	token  string
}

// newTestEnv wires real services over an in-memory database and mounts the
// handlers the way the router does, minus rate limiting.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	broker := events.NewMemoryBroker()
	mail := &captureMailer{}
	chat := services.NewChatService(db, broker, func(e string) bool { return strings.EqualFold(e, testAdminEmail) })
	auth := services.NewAuthService(db, time.Hour)

	ctx := context.Background()
	if _, err := auth.CreateAdmin(ctx, testAdminEmail, "s3cret-pass", "Admin"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	sess, err := auth.Login(ctx, testAdminEmail, "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	h := New(Deps{
		Chat:      chat,
		Post:      services.NewPostService(db),
		Meeting:   services.NewMeetingService(db, mail),
		Contact:   services.NewContactService(mail, "info@danismanim.co"),
		Auth:      auth,
		DB:        db,
		Broker:    broker,
		Heartbeat: 20 * time.Millisecond,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, IdempotencyLookup(db)))

	pub := r.Group("", middleware.OptionalAdmin(auth))
	pub.POST("/chat/conversations", h.CreateConversation)
	pub.GET("/chat/conversations/:id", h.GetConversation)
	pub.DELETE("/chat/conversations/:id", h.DeleteConversation)
	pub.GET("/chat/conversations/:id/events", h.StreamEvents)
	pub.POST("/chat/messages", h.SendMessage)
	pub.GET("/chat/messages", h.ListMessages)
	pub.PUT("/chat/messages/read", h.MarkRead)
	pub.GET("/posts", h.ListPublishedPosts)
	pub.GET("/posts/slug/:slug", h.GetPostBySlug)
	pub.POST("/contact", h.SubmitContact)
	pub.POST("/auth/login", h.Login)
	pub.POST("/auth/logout", h.Logout)
	pub.GET("/auth/me", h.Me)

	adm := r.Group("", middleware.RequireAdmin(auth))
	adm.GET("/chat/conversations", h.ListConversations)
	adm.PUT("/chat/conversations/:id", h.UpdateConversation)
	adm.GET("/admin/posts", h.ListAllPosts)
	adm.POST("/admin/posts", h.CreatePost)
	adm.GET("/admin/posts/:id", h.GetPost)
	adm.PUT("/admin/posts/:id", h.UpdatePost)
	adm.DELETE("/admin/posts/:id", h.DeletePost)
	adm.GET("/admin/meetings", h.ListMeetings)
	adm.POST("/admin/meetings", h.CreateMeeting)
	adm.GET("/admin/meetings/export", h.ExportMeetings)
	adm.GET("/admin/meetings/:id", h.GetMeeting)
	adm.PUT("/admin/meetings/:id", h.UpdateMeeting)
	adm.DELETE("/admin/meetings/:id", h.DeleteMeeting)
	adm.POST("/admin/meetings/:id/invite", h.SendMeetingInvite)

	return &testEnv{db: db, broker: broker, mail: mail, h: h, r: r, token: sess.Token}
}

// do performs a request. A non-empty token is sent as bearer; extra headers
// come in name/value pairs.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func (e *testEnv) openConversation(t *testing.T, name string) *domain.Conversation {
	t.Helper()
	w := e.do(t, http.MethodPost, "/chat/conversations", gin.H{"visitorName": name, "visitorEmail": "visitor@example.com"}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create conversation: %d %s", w.Code, w.Body.String())
	}
	return decode[ConversationResponse](t, w).Conversation
}

// ---------- helpers ----------

func Test_clampPagination_and_newPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=-5&pageSize=9999", nil)
	if p, ps := clampPagination(c); p != 1 || ps != 100 {
		t.Fatalf("clamp bounds got p=%d ps=%d", p, ps)
	}
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=&pageSize=0", nil)
	if p, ps := clampPagination(c); p != 1 || ps != 1 {
		t.Fatalf("clamp defaults got p=%d ps=%d", p, ps)
	}
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if p, ps := clampPagination(c); p != 1 || ps != 10 {
		t.Fatalf("defaults got p=%d ps=%d", p, ps)
	}

	pg := newPagination(2, 10, 21)
	if pg.TotalPages != 3 || !pg.HasNext {
		t.Fatalf("pagination = %+v", pg)
	}
	if pg := newPagination(3, 10, 21); pg.HasNext {
		t.Fatalf("last page must not have next: %+v", pg)
	}
}

// ---------- conversations ----------

func TestCreateConversation(t *testing.T) {
	e := newTestEnv(t)

	if w := e.do(t, http.MethodPost, "/chat/conversations", "{bad", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json -> %d", w.Code)
	}

	w := e.do(t, http.MethodPost, "/chat/conversations", gin.H{"visitorName": "   "}, "")
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeBadRequest {
		t.Fatalf("blank name -> %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/chat/conversations", gin.H{"visitorName": "Mallory", "visitorEmail": "ADMIN@danismanim.co"}, "")
	if w.Code != http.StatusForbidden || decode[ErrorResponse](t, w).Code != ErrCodeForbidden {
		t.Fatalf("admin email -> %d %s", w.Code, w.Body.String())
	}

	first := e.openConversation(t, " Ayşe ")
	if first.ID == "" || first.VisitorName != "Ayşe" || first.Status != domain.ConversationActive {
		t.Fatalf("unexpected conversation: %+v", first)
	}
	second := e.openConversation(t, "Ayşe")
	if second.ID == first.ID {
		t.Fatalf("a new session must never reuse an earlier conversation")
	}
}

func TestListConversations_AdminOnly_ETag(t *testing.T) {
	e := newTestEnv(t)
	e.openConversation(t, "Ali")
	e.openConversation(t, "Veli")

	if w := e.do(t, http.MethodGet, "/chat/conversations", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list -> %d", w.Code)
	}

	w := e.do(t, http.MethodGet, "/chat/conversations", nil, e.token)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d %s", w.Code, w.Body.String())
	}
	if got := len(decode[ListConversationsResponse](t, w).Conversations); got != 2 {
		t.Fatalf("want 2 conversations, got %d", got)
	}
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"conversations:2:`) {
		t.Fatalf("unexpected ETag %q", etag)
	}

	if w := e.do(t, http.MethodGet, "/chat/conversations", nil, e.token, "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("matching ETag -> %d", w.Code)
	}

	e.openConversation(t, "Deniz")
	if w := e.do(t, http.MethodGet, "/chat/conversations", nil, e.token, "If-None-Match", etag); w.Code != http.StatusOK {
		t.Fatalf("stale ETag -> %d", w.Code)
	}
}

func TestGetConversation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/chat/conversations/"+uuid.NewString(), nil, "")
	if w.Code != http.StatusNotFound || decode[ErrorResponse](t, w).Code != ErrCodeNotFound {
		t.Fatalf("missing -> %d %s", w.Code, w.Body.String())
	}

	conv := e.openConversation(t, "Ali")
	e.do(t, http.MethodPost, "/chat/messages", gin.H{"conversationId": conv.ID, "sender": "visitor", "senderName": "Ali", "message": "Merhaba"}, "")

	w = e.do(t, http.MethodGet, "/chat/conversations/"+conv.ID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get -> %d", w.Code)
	}
	got := decode[ConversationDetailResponse](t, w)
	if got.Conversation.ID != conv.ID || len(got.Messages) != 1 || got.Conversation.LastMessage != "Merhaba" {
		t.Fatalf("unexpected detail: %+v", got)
	}
}

func TestUpdateConversation_CloseBlocksSending(t *testing.T) {
	e := newTestEnv(t)
	conv := e.openConversation(t, "Ali")
	path := "/chat/conversations/" + conv.ID

	if w := e.do(t, http.MethodPut, path, gin.H{"status": "closed"}, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous update -> %d", w.Code)
	}
	if w := e.do(t, http.MethodPut, path, gin.H{"status": "archived"}, e.token); w.Code != http.StatusBadRequest {
		t.Fatalf("bad status -> %d", w.Code)
	}
	if w := e.do(t, http.MethodPut, path, gin.H{"unreadCount": -1}, e.token); w.Code != http.StatusBadRequest {
		t.Fatalf("negative unread -> %d", w.Code)
	}
	if w := e.do(t, http.MethodPut, "/chat/conversations/"+uuid.NewString(), gin.H{"status": "closed"}, e.token); w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}

	w := e.do(t, http.MethodPut, path, gin.H{"status": "closed"}, e.token)
	if w.Code != http.StatusOK || decode[ConversationResponse](t, w).Conversation.Status != domain.ConversationClosed {
		t.Fatalf("close -> %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/chat/messages", gin.H{"conversationId": conv.ID, "sender": "visitor", "senderName": "Ali", "message": "hala orada mısınız?"}, "")
	if w.Code != http.StatusConflict || decode[ErrorResponse](t, w).Code != ErrCodeConflict {
		t.Fatalf("send into closed -> %d %s", w.Code, w.Body.String())
	}
}

func TestDeleteConversation(t *testing.T) {
	e := newTestEnv(t)
	conv := e.openConversation(t, "Ali")
	path := "/chat/conversations/" + conv.ID

	if w := e.do(t, http.MethodDelete, path+"?by=admin", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("by=admin without session -> %d", w.Code)
	}

	w := e.do(t, http.MethodDelete, path+"?by=visitor", nil, "")
	if w.Code != http.StatusOK || !decode[SuccessResponse](t, w).Success {
		t.Fatalf("delete -> %d %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodGet, path, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete -> %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, path, nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete -> %d", w.Code)
	}
}

// ---------- events stream ----------

func TestStreamEvents_NotFoundAndUnavailable(t *testing.T) {
	e := newTestEnv(t)
	if w := e.do(t, http.MethodGet, "/chat/conversations/"+uuid.NewString()+"/events", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing conversation -> %d", w.Code)
	}

	h := New(Deps{Chat: e.h.chatSvc})
	r := gin.New()
	r.GET("/events/:id", h.StreamEvents)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/x", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("no broker -> %d", w.Code)
	}
}

func TestStreamEvents_DeliversUntilEnded(t *testing.T) {
	e := newTestEnv(t)
	conv := e.openConversation(t, "Ali")

	srv := httptest.NewServer(e.r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/chat/conversations/"+conv.ID+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type %q", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.broker.Subscribers(conv.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	e.do(t, http.MethodPost, "/chat/messages", gin.H{"conversationId": conv.ID, "sender": "visitor", "senderName": "Ali", "message": "Merhaba"}, "")
	e.do(t, http.MethodDelete, "/chat/conversations/"+conv.ID+"?by=visitor", nil, "")

	// Heartbeat comments may interleave depending on timing; only the
	// event order is asserted.
	var types []string
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "data:") {
			var ev events.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &ev); err != nil {
				t.Fatalf("bad event payload %q: %v", line, err)
			}
			types = append(types, ev.Type)
			if ev.Type == events.TypeConversationEnded && ev.EndedBy != domain.SenderVisitor {
				t.Fatalf("endedBy = %q", ev.EndedBy)
			}
		}
	}

	if len(types) != 2 || types[0] != events.TypeMessageCreated || types[1] != events.TypeConversationEnded {
		t.Fatalf("events = %v", types)
	}
}
