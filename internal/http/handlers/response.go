// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint. All
// errors leave through fail() so the envelope, the requestId and the logging
// of server-side failures stay uniform.
//
//	HTTP/1.1 404 Not Found
//	{
//	  "requestId": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "conversation not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danismanim/danismanim-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors (echo of X-Request-ID)
	RequestID string `json:"requestId,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"conversation not found"`
}

// RateLimitResponse is the 429 body of the fixed-window limiters.
type RateLimitResponse struct {
	ErrorResponse
	// Seconds until the client may try again
	ResetIn int `json:"resetIn" example:"240"`
}

// SuccessResponse acknowledges operations without a resource to return.
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Conversation deleted"`
}

// fail aborts with the error envelope. 5xx responses are logged with the
// request-scoped logger, including any errors attached to the context.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code)
		if len(c.Errors) > 0 {
			ev = ev.Str("cause", c.Errors.Last().Error())
		}
		ev.Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
