// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and form the stable, machine-readable part
// of the error envelope; clients branch on them, not on messages.
//
// Example response:
//
//	{
//	  "requestId": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "conversation is closed"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danismanim/danismanim-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeMailFailed   = "mail_failed"
	ErrCodeExportFailed = "export_failed"
)

// serviceErrors maps service sentinels to a status, a code and the message
// shown to clients. Checked in order with errors.Is.
var serviceErrors = []struct {
	err    error
	status int
	code   string
	msg    string
}{
	{services.ErrConversationNotFound, http.StatusNotFound, ErrCodeNotFound, "conversation not found"},
	{services.ErrConversationClosed, http.StatusConflict, ErrCodeConflict, "conversation is closed"},
	{services.ErrVisitorNameRequired, http.StatusBadRequest, ErrCodeBadRequest, "visitorName is required"},
	{services.ErrAdminEmail, http.StatusForbidden, ErrCodeForbidden, "admin addresses cannot open a visitor chat"},
	{services.ErrInvalidEmail, http.StatusBadRequest, ErrCodeBadRequest, "invalid email address"},
	{services.ErrMissingFields, http.StatusBadRequest, ErrCodeBadRequest, "missing required fields"},
	{services.ErrInvalidSender, http.StatusBadRequest, ErrCodeBadRequest, "sender must be visitor or admin"},
	{services.ErrInvalidStatus, http.StatusBadRequest, ErrCodeBadRequest, "status must be active or closed"},
	{services.ErrInvalidUnread, http.StatusBadRequest, ErrCodeBadRequest, "unreadCount must be >= 0"},
	{services.ErrMessageTooLong, http.StatusBadRequest, ErrCodeBadRequest, "message is too long"},

	{services.ErrPostNotFound, http.StatusNotFound, ErrCodeNotFound, "post not found"},
	{services.ErrPostInvalid, http.StatusBadRequest, ErrCodeBadRequest, "title and content are required"},
	{services.ErrSlugTaken, http.StatusConflict, ErrCodeConflict, "a post with this slug already exists"},
	{services.ErrInvalidPostStat, http.StatusBadRequest, ErrCodeBadRequest, "status must be draft or published"},

	{services.ErrMeetingNotFound, http.StatusNotFound, ErrCodeNotFound, "meeting not found"},
	{services.ErrMeetingInvalid, http.StatusBadRequest, ErrCodeBadRequest, "missing required meeting fields"},
	{services.ErrMeetingSchedule, http.StatusBadRequest, ErrCodeBadRequest, "meetingDate must be YYYY-MM-DD and meetingTime HH:MM"},
	{services.ErrMeetingStatus, http.StatusBadRequest, ErrCodeBadRequest, "status must be scheduled, completed or cancelled"},
	{services.ErrMailFailed, http.StatusBadGateway, ErrCodeMailFailed, "email could not be delivered"},

	{services.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password"},
	{services.ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized, "admin session required"},
	{services.ErrUserExists, http.StatusConflict, ErrCodeConflict, "user already exists"},
	{services.ErrWeakPassword, http.StatusBadRequest, ErrCodeBadRequest, "password must be at least 8 characters"},
}

// failErr maps a service error to the envelope. Unknown errors become a 500
// with a generic message; the cause is logged by fail.
func failErr(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				_ = c.Error(err)
			}
			fail(c, m.status, m.code, m.msg)
			return
		}
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}
