package chatclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionTTL is how long a saved visitor session may be resumed.
const SessionTTL = 24 * time.Hour

// Session is what a visitor needs to reattach to their conversation.
type Session struct {
	ConversationID string    `json:"conversationId"`
	VisitorName    string    `json:"visitorName"`
	VisitorEmail   string    `json:"visitorEmail,omitempty"`
	SavedAt        time.Time `json:"savedAt"`
}

// SessionStore keeps a single visitor session in a JSON file.
type SessionStore struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewSessionStore stores the session at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, ttl: SessionTTL, now: time.Now}
}

// Save writes s, stamping SavedAt. The file is replaced atomically.
func (s *SessionStore) Save(sess Session) error {
	sess.SavedAt = s.now().UTC()
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Load returns the saved session, or nil when there is none, it cannot be
// parsed, or it is older than the TTL. Stale and corrupt files are removed.
func (s *SessionStore) Load() (*Session, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if json.Unmarshal(b, &sess) != nil || sess.ConversationID == "" || s.now().Sub(sess.SavedAt) > s.ttl {
		return nil, s.Clear()
	}
	return &sess, nil
}

// Clear forgets the session. Missing files are not an error.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
