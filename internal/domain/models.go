// Package domain defines the persistence models for live chat, the blog,
// meetings and admin accounts. These types are mapped with GORM and form the
// core data layer of the consultancy backend.
package domain

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Conversation statuses.
const (
	ConversationActive = "active"
	ConversationClosed = "closed"
)

// Message senders.
const (
	SenderVisitor = "visitor"
	SenderAdmin   = "admin"
)

// Conversation represents one chat session between a visitor and the business.
// A new row is created for every session; nothing merges conversations by
// visitor identity.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - VisitorID: opaque client-side identifier, optional.
//   - VisitorName: display name supplied by the visitor (required).
//   - VisitorEmail: optional contact address.
//   - Status: "active" or "closed" (enforced by DB constraint).
//   - LastMessage / LastMessageAt: preview of the newest message, written in
//     the same transaction as the message insert.
//   - UnreadCount: visitor messages the admin has not read yet (never negative).
type Conversation struct {
	ID            string     `json:"id"            gorm:"type:char(36);primaryKey"`
	VisitorID     string     `json:"visitorId"     gorm:"type:varchar(64);index"`
	VisitorName   string     `json:"visitorName"   gorm:"type:varchar(255);not null"`
	VisitorEmail  string     `json:"visitorEmail,omitempty" gorm:"type:varchar(255)"`
	Status        string     `json:"status"        gorm:"type:varchar(16);not null;default:'active';check:status IN ('active','closed')"`
	LastMessage   string     `json:"lastMessage"   gorm:"type:text"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" gorm:"index"`
	UnreadCount   int        `json:"unreadCount"   gorm:"not null;default:0;check:unread_count >= 0"`
	CreatedAt     time.Time  `json:"createdAt"     gorm:"index"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// IsClosed reports whether the conversation reached the closed state.
func (c *Conversation) IsClosed() bool { return c.Status == ConversationClosed }

// Message is a single chat utterance within a conversation.
//
// Messages are ordered by (CreatedAt ASC, ID ASC); the ID tiebreak keeps the
// order stable for equal timestamps.
type Message struct {
	ID             string    `json:"id"             gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversationId" gorm:"type:char(36);not null;index:idx_conv_msgs,priority:1"`
	Sender         string    `json:"sender"         gorm:"type:varchar(16);not null;check:sender IN ('visitor','admin')"`
	SenderName     string    `json:"senderName"     gorm:"type:varchar(255);not null"`
	Message        string    `json:"message"        gorm:"type:text;not null"`
	Read           bool      `json:"read"           gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"createdAt"      gorm:"index:idx_conv_msgs,priority:2"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Conversation is the parent. Messages are cascade-deleted with it.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// OppositeSender returns the other party of a conversation, or "" for an
// unknown sender.
func OppositeSender(sender string) string {
	switch sender {
	case SenderVisitor:
		return SenderAdmin
	case SenderAdmin:
		return SenderVisitor
	}
	return ""
}

// ValidSender reports whether s is a known sender role.
func ValidSender(s string) bool { return s == SenderVisitor || s == SenderAdmin }

// Blog post statuses.
const (
	PostDraft     = "draft"
	PostPublished = "published"
)

// BlogPost is an article of the consultancy blog. Slugs are unique and
// lowercase; only published posts are visible to the public API.
type BlogPost struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title"       gorm:"type:varchar(255);not null"`
	Slug        string    `json:"slug"        gorm:"type:varchar(255);not null;uniqueIndex:ux_posts_slug"`
	Content     string    `json:"content"     gorm:"type:text;not null"`
	BannerImage string    `json:"bannerImage,omitempty" gorm:"type:varchar(1024)"`
	Status      string    `json:"status"      gorm:"type:varchar(16);not null;default:'draft';index;check:status IN ('draft','published')"`
	Author      string    `json:"author,omitempty" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"   gorm:"index"`
}

// TableName returns the database table name for BlogPost.
func (BlogPost) TableName() string { return "blog_posts" }

// Meeting statuses.
const (
	MeetingScheduled = "scheduled"
	MeetingCompleted = "completed"
	MeetingCancelled = "cancelled"
)

// DefaultMeetingDuration is used when a meeting is created without a duration.
const DefaultMeetingDuration = 30

// Meeting is a consultation appointment with a client. Date and time are kept
// as the strings the admin entered (YYYY-MM-DD and HH:MM, Istanbul local time).
type Meeting struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	ClientName  string    `json:"clientName"  gorm:"type:varchar(255);not null"`
	ClientEmail string    `json:"clientEmail" gorm:"type:varchar(255);not null"`
	ClientPhone string    `json:"clientPhone,omitempty" gorm:"type:varchar(64)"`
	MeetingDate string    `json:"meetingDate" gorm:"type:varchar(10);not null;index:idx_meeting_when,priority:1"`
	MeetingTime string    `json:"meetingTime" gorm:"type:varchar(5);not null;index:idx_meeting_when,priority:2"`
	Duration    int       `json:"duration"    gorm:"not null;default:30"`
	MeetLink    string    `json:"googleMeetLink" gorm:"type:varchar(1024);not null"`
	Notes       string    `json:"notes,omitempty" gorm:"type:text"`
	Status      string    `json:"status"      gorm:"type:varchar(16);not null;default:'scheduled';check:status IN ('scheduled','completed','cancelled')"`
	EmailSent   bool      `json:"emailSent"   gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Meeting.
func (Meeting) TableName() string { return "meetings" }

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a back-office account. Passwords are stored as bcrypt hashes.
type User struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email"     gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Password  string    `json:"-"         gorm:"type:varchar(255);not null"`
	Name      string    `json:"name"      gorm:"type:varchar(255)"`
	Role      string    `json:"role"      gorm:"type:varchar(16);not null;default:'admin'"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// SetPassword hashes and stores the plain-text password.
func (u *User) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// AdminSession is an opaque bearer token issued on login.
type AdminSession struct {
	Token     string    `gorm:"type:char(64);primaryKey"`
	UserID    string    `gorm:"type:char(36);not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time

	User User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for AdminSession.
func (AdminSession) TableName() string { return "admin_sessions" }
