package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danismanim/danismanim-backend/internal/mailer"
)

// ContactRequest is the public contact form. Every field is required.
type ContactRequest struct {
	Name    string `json:"name"    example:"Zeynep Kaya"`
	Email   string `json:"email"   example:"zeynep@example.com"`
	Phone   string `json:"phone"   example:"+90 555 123 45 67"`
	Country string `json:"country" example:"Kanada"`
	Message string `json:"message" example:"Lisans başvuruları hakkında görüşmek istiyorum."`
}

// SubmitContact godoc
// @ID          submitContact
// @Summary     Send the contact form
// @Description Mails the submission to the business inbox with Reply-To set to the sender. Limited per client IP.
// @Tags        Contact
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.ContactRequest  true  "Contact form"
// @Success     200   {object}  handlers.SuccessResponse
// @Failure     400   {object}  handlers.ErrorResponse      "Missing fields or bad email"
// @Failure     429   {object}  handlers.RateLimitResponse  "Too many submissions"
// @Failure     502   {object}  handlers.ErrorResponse      "Mail relay failed"
// @Router      /contact [post]
func (h *Handlers) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	err := h.contactSvc.Submit(c.Request.Context(), mailer.ContactForm{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Country: req.Country,
		Message: req.Message,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true, Message: "message sent"})
}
