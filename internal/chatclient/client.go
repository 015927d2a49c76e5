// Package chatclient is a small HTTP client for the live chat API plus the
// polling loop the visitor widget and the admin console run against it.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// ErrConversationGone is returned when the server answers 404 for a
// conversation: the other party deleted it.
var ErrConversationGone = errors.New("conversation no longer exists")

// APIError is a non-2xx answer in the server's error envelope.
type APIError struct {
	Status    int    `json:"-"`
	RequestID string `json:"requestId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Config configures a Client.
type Config struct {
	// BaseURL including the API prefix, e.g. "https://api.danismanim.co/api/v1".
	BaseURL string
	// Token is an admin bearer token; empty for visitors.
	Token string
	// Timeout bounds each request. Defaults to 10s.
	Timeout time.Duration
}

// Client talks to the chat endpoints.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// New returns a Client for cfg.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		base:  strings.TrimRight(cfg.BaseURL, "/"),
		token: cfg.Token,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

// NewVisitor describes a visitor opening a conversation.
type NewVisitor struct {
	VisitorID    string `json:"visitorId,omitempty"`
	VisitorName  string `json:"visitorName"`
	VisitorEmail string `json:"visitorEmail,omitempty"`
}

// CreateConversation opens a new conversation.
func (c *Client) CreateConversation(ctx context.Context, v NewVisitor) (*domain.Conversation, error) {
	var out struct {
		Conversation *domain.Conversation `json:"conversation"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat/conversations", v, nil, &out); err != nil {
		return nil, err
	}
	return out.Conversation, nil
}

// ListConversations returns every conversation, most recent activity first.
// Admin only.
func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var out struct {
		Conversations []domain.Conversation `json:"conversations"`
	}
	if err := c.do(ctx, http.MethodGet, "/chat/conversations", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// GetConversation fetches a conversation with its full history. A deleted
// conversation yields ErrConversationGone.
func (c *Client) GetConversation(ctx context.Context, id string) (*domain.Conversation, []domain.Message, error) {
	var out struct {
		Conversation *domain.Conversation `json:"conversation"`
		Messages     []domain.Message     `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, "/chat/conversations/"+url.PathEscape(id), nil, nil, &out)
	if isNotFound(err) {
		return nil, nil, ErrConversationGone
	}
	if err != nil {
		return nil, nil, err
	}
	return out.Conversation, out.Messages, nil
}

// EndConversation deletes the conversation on behalf of by ("visitor" or "admin").
func (c *Client) EndConversation(ctx context.Context, id, by string) error {
	q := url.Values{"by": {by}}
	err := c.do(ctx, http.MethodDelete, "/chat/conversations/"+url.PathEscape(id)+"?"+q.Encode(), nil, nil, nil)
	if isNotFound(err) {
		return ErrConversationGone
	}
	return err
}

// Outgoing is a message to send.
type Outgoing struct {
	ConversationID string `json:"conversationId"`
	Sender         string `json:"sender"`
	SenderName     string `json:"senderName"`
	Message        string `json:"message"`
}

// SendMessage posts a message. Every call carries a fresh Idempotency-Key so a
// transport-level retry by a proxy cannot store it twice.
func (c *Client) SendMessage(ctx context.Context, m Outgoing) (*domain.Message, error) {
	var out struct {
		Message *domain.Message `json:"message"`
	}
	hdr := http.Header{"Idempotency-Key": {uuid.NewString()}}
	if err := c.do(ctx, http.MethodPost, "/chat/messages", m, hdr, &out); err != nil {
		return nil, err
	}
	return out.Message, nil
}

// ListMessages returns messages created strictly after since; a zero since
// returns the whole history.
func (c *Client) ListMessages(ctx context.Context, conversationID string, since time.Time) ([]domain.Message, error) {
	q := url.Values{"conversationId": {conversationID}}
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339Nano))
	}
	var out struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/chat/messages?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// MarkRead marks the other party's messages as read by reader and returns how
// many changed.
func (c *Client) MarkRead(ctx context.Context, conversationID, reader string) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	body := map[string]string{"conversationId": conversationID, "sender": reader}
	err := c.do(ctx, http.MethodPut, "/chat/messages/read", body, nil, &out)
	if isNotFound(err) {
		return 0, ErrConversationGone
	}
	return out.Updated, err
}

func (c *Client) do(ctx context.Context, method, path string, in any, hdr http.Header, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range hdr {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Code == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
