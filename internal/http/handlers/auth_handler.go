// Admin authentication handlers.
//
//   - POST /auth/login   (email + password, returns a bearer token)
//   - POST /auth/logout  (revokes the presented token)
//   - GET  /auth/me      (the admin behind the token)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/http/middleware"
	"github.com/danismanim/danismanim-backend/internal/services"
)

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Email    string `json:"email"    example:"admin@danismanim.co"`
	Password string `json:"password" example:"correct horse battery staple"`
}

// LoginResponse is an opened admin session.
type LoginResponse = services.Session

// MeResponse wraps the authenticated admin.
type MeResponse struct {
	User *domain.User `json:"user"`
}

// Login godoc
// @ID          login
// @Summary     Admin login
// @Description Returns an opaque bearer token for the admin API.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.LoginResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid email or password"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}

// Logout godoc
// @ID          logout
// @Summary     Admin logout
// @Tags        Auth
// @Security    BearerAuth
// @Success     204  {string}  string  "No Content"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if token := middleware.BearerToken(c); token != "" {
		if err := h.authSvc.Logout(c.Request.Context(), token); err != nil {
			failErr(c, err)
			return
		}
	}
	noContent(c)
}

// Me godoc
// @ID          me
// @Summary     Current admin
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.MeResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Admin session required"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	u := middleware.AdminFrom(c)
	if u == nil {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "admin session required")
		return
	}
	ok(c, http.StatusOK, MeResponse{User: u})
}
