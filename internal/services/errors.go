// Package services defines the business logic for live chat, the blog,
// meetings, the contact form and admin authentication. This file centralizes
// the service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Chat errors.
var (
	// ErrConversationNotFound indicates the conversation does not exist. For
	// chat clients this is also the signal that the other party ended it.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConversationClosed is returned when sending into a closed conversation.
	ErrConversationClosed = errors.New("conversation is closed")

	// ErrVisitorNameRequired is returned when a conversation is opened without
	// a visitor name.
	ErrVisitorNameRequired = errors.New("visitor name is required")

	// ErrAdminEmail is returned when a visitor tries to open a conversation
	// with an address reserved for the admin.
	ErrAdminEmail = errors.New("admin email cannot start a visitor chat")

	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrMissingFields is returned when a required field is empty.
	ErrMissingFields = errors.New("all fields are required")

	// ErrInvalidSender is returned for a sender other than visitor or admin.
	ErrInvalidSender = errors.New("sender must be visitor or admin")

	// ErrInvalidStatus is returned for an unknown conversation status.
	ErrInvalidStatus = errors.New("status must be active or closed")

	// ErrInvalidUnread is returned for a negative unread counter.
	ErrInvalidUnread = errors.New("unreadCount must be >= 0")

	// ErrMessageTooLong is returned when a message exceeds the length limit.
	ErrMessageTooLong = errors.New("message too long")
)

// Blog errors.
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrPostInvalid     = errors.New("title and content are required")
	ErrSlugTaken       = errors.New("slug already in use")
	ErrInvalidPostStat = errors.New("status must be draft or published")
)

// Meeting errors.
var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrMeetingInvalid  = errors.New("clientName, clientEmail, meetingDate, meetingTime and googleMeetLink are required")
	ErrMeetingSchedule = errors.New("meetingDate must be YYYY-MM-DD and meetingTime HH:MM")
	ErrMeetingStatus   = errors.New("status must be scheduled, completed or cancelled")

	// ErrMailFailed wraps a delivery failure of the mail relay.
	ErrMailFailed = errors.New("mail delivery failed")
)

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("missing or expired session")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)
