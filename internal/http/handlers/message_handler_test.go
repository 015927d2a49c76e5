package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

func (e *testEnv) send(t *testing.T, convID, sender, text, token string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/chat/messages", gin.H{
		"conversationId": convID,
		"sender":         sender,
		"senderName":     sender + "-name",
		"message":        text,
	}, token)
}

func TestSendMessage_Validation(t *testing.T) {
	e := newTestEnv(t)
	conv := e.openConversation(t, "Ali")

	cases := []struct {
		name string
		body any
		want int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"missing message", gin.H{"conversationId": conv.ID, "sender": "visitor", "senderName": "Ali"}, http.StatusBadRequest},
		{"unknown sender", gin.H{"conversationId": conv.ID, "sender": "bot", "senderName": "Ali", "message": "x"}, http.StatusBadRequest},
		{"unknown conversation", gin.H{"conversationId": uuid.NewString(), "sender": "visitor", "senderName": "Ali", "message": "x"}, http.StatusNotFound},
		{"admin without session", gin.H{"conversationId": conv.ID, "sender": "admin", "senderName": "Danışman", "message": "x"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		if w := e.do(t, http.MethodPost, "/chat/messages", tc.body, ""); w.Code != tc.want {
			t.Errorf("%s: got %d want %d (%s)", tc.name, w.Code, tc.want, w.Body.String())
		}
	}
}

func TestSendMessage_VisitorBumpsUnread_AdminDoesNot(t *testing.T) {
	e := newTestEnv(t)
	conv := e.openConversation(t, "Ali")

	w := e.send(t, conv.ID, "visitor", "Merhaba", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("visitor send -> %d %s", w.Code, w.Body.String())
	}
	m := decode[MessageResponse](t, w).Message
	if m.Sender != domain.SenderVisitor || m.Read || m.ConversationID != conv.ID {
		t.Fatalf("unexpected message %+v", m)
	}

	if w := e.send(t, conv.ID, "admin", "Hoş geldiniz", e.token); w.Code != http.StatusCreated {
		t.Fatalf("admin send -> %d %s", w.Code, w.Body.String())
	}

	got := decode[ConversationDetailResponse](t, e.do(t, http.MethodGet, "/chat/conversations/"+conv.ID, nil, ""))
	if got.Conversation.UnreadCount != 1 {
		t.Fatalf("unreadCount = %d, want 1", got.Conversation.UnreadCount)
	}
	if got.Conversation.LastMessage != "Hoş geldiniz" || len(got.Messages) != 2 {
		t.Fatalf("unexpected detail %+v", got)
	}
}

func TestSendMessage_IdempotentReplay(t *testing.T) {
	e := newTestEnv(t)
	conv := e.openConversation(t, "Ali")
	body := gin.H{"conversationId": conv.ID, "sender": "visitor", "senderName": "Ali", "message": "tekrar"}
	key := uuid.NewString()

	w1 := e.do(t, http.MethodPost, "/chat/messages", body, "", "Idempotency-Key", key)
	if w1.Code != http.StatusCreated || w1.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("first -> %d replayed=%q", w1.Code, w1.Header().Get("Idempotency-Replayed"))
	}
	w2 := e.do(t, http.MethodPost, "/chat/messages", body, "", "Idempotency-Key", key)
	if w2.Code != http.StatusCreated || w2.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay -> %d replayed=%q", w2.Code, w2.Header().Get("Idempotency-Replayed"))
	}
	if a, b := decode[MessageResponse](t, w1).Message.ID, decode[MessageResponse](t, w2).Message.ID; a != b {
		t.Fatalf("replay returned a different message: %s vs %s", a, b)
	}

	var n int64
	e.db.Model(&domain.Message{}).Where("conversation_id = ?", conv.ID).Count(&n)
	if n != 1 {
		t.Fatalf("stored %d messages, want 1", n)
	}

	if w := e.do(t, http.MethodPost, "/chat/messages", body, "", "Idempotency-Key", "bad key!"); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed key -> %d", w.Code)
	}
}

func TestListMessages(t *testing.T) {
	e := newTestEnv(t)
	conv := e.openConversation(t, "Ali")
	e.send(t, conv.ID, "visitor", "bir", "")
	e.send(t, conv.ID, "visitor", "iki", "")

	if w := e.do(t, http.MethodGet, "/chat/messages", nil, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing conversationId -> %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/chat/messages?conversationId="+conv.ID+"&since=yesterday", nil, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad since -> %d", w.Code)
	}

	w := e.do(t, http.MethodGet, "/chat/messages?conversationId="+conv.ID, nil, "")
	msgs := decode[ListMessagesResponse](t, w).Messages
	if w.Code != http.StatusOK || len(msgs) != 2 || msgs[0].Message != "bir" || msgs[1].Message != "iki" {
		t.Fatalf("all -> %d %+v", w.Code, msgs)
	}

	past := url.QueryEscape(time.Now().Add(-time.Hour).UTC().Format(time.RFC3339Nano))
	if got := decode[ListMessagesResponse](t, e.do(t, http.MethodGet, "/chat/messages?conversationId="+conv.ID+"&since="+past, nil, "")).Messages; len(got) != 2 {
		t.Fatalf("since past -> %d messages", len(got))
	}
	future := url.QueryEscape(time.Now().Add(time.Hour).UTC().Format(time.RFC3339Nano))
	if got := decode[ListMessagesResponse](t, e.do(t, http.MethodGet, "/chat/messages?conversationId="+conv.ID+"&since="+future, nil, "")).Messages; len(got) != 0 {
		t.Fatalf("since future -> %d messages", len(got))
	}

	w = e.do(t, http.MethodGet, "/chat/messages?conversationId="+uuid.NewString(), nil, "")
	if w.Code != http.StatusOK || w.Body.String() != `{"messages":[]}` {
		t.Fatalf("unknown conversation -> %d %s", w.Code, w.Body.String())
	}
}

func TestMarkRead(t *testing.T) {
	e := newTestEnv(t)
	conv := e.openConversation(t, "Ali")
	e.send(t, conv.ID, "visitor", "bir", "")
	e.send(t, conv.ID, "visitor", "iki", "")

	read := func(sender, token string) *httptest.ResponseRecorder {
		return e.do(t, http.MethodPut, "/chat/messages/read", gin.H{"conversationId": conv.ID, "sender": sender}, token)
	}

	if w := read("admin", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("admin read without session -> %d", w.Code)
	}
	if w := e.do(t, http.MethodPut, "/chat/messages/read", gin.H{"conversationId": conv.ID}, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing sender -> %d", w.Code)
	}
	if w := e.do(t, http.MethodPut, "/chat/messages/read", gin.H{"conversationId": uuid.NewString(), "sender": "visitor"}, ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown conversation -> %d", w.Code)
	}

	// The visitor reading changes nothing: there are no admin messages.
	if got := decode[MarkReadResponse](t, read("visitor", "")); !got.Success || got.Updated != 0 {
		t.Fatalf("visitor read = %+v", got)
	}

	w := read("admin", e.token)
	if got := decode[MarkReadResponse](t, w); w.Code != http.StatusOK || got.Updated != 2 {
		t.Fatalf("admin read -> %d %+v", w.Code, got)
	}
	if got := decode[MarkReadResponse](t, read("admin", e.token)); got.Updated != 0 {
		t.Fatalf("second admin read must be a no-op, got %+v", got)
	}

	detail := decode[ConversationDetailResponse](t, e.do(t, http.MethodGet, "/chat/conversations/"+conv.ID, nil, ""))
	if detail.Conversation.UnreadCount != 0 {
		t.Fatalf("unreadCount = %d after admin read", detail.Conversation.UnreadCount)
	}
	for _, m := range detail.Messages {
		if !m.Read {
			t.Fatalf("message %s still unread", m.ID)
		}
	}
}
