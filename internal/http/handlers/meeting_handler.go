// Meeting HTTP handlers (admin only).
//
//   - GET    /admin/meetings
//   - POST   /admin/meetings
//   - GET    /admin/meetings/export      (xlsx workbook)
//   - GET    /admin/meetings/{id}
//   - PUT    /admin/meetings/{id}
//   - DELETE /admin/meetings/{id}
//   - POST   /admin/meetings/{id}/invite (email with QR code)
package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/export"
	"github.com/danismanim/danismanim-backend/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// MeetingRequest is the JSON payload for creating or updating a meeting.
// On update, omitted fields keep their stored value.
type MeetingRequest struct {
	ClientName  *string `json:"clientName,omitempty"     example:"Mehmet Demir"`
	ClientEmail *string `json:"clientEmail,omitempty"    example:"mehmet@example.com"`
	ClientPhone *string `json:"clientPhone,omitempty"    example:"+90 555 123 45 67"`
	MeetingDate *string `json:"meetingDate,omitempty"    example:"2026-11-03"`
	MeetingTime *string `json:"meetingTime,omitempty"    example:"14:30"`
	Duration    *int    `json:"duration,omitempty"       example:"30"`
	MeetLink    *string `json:"googleMeetLink,omitempty" example:"https://meet.google.com/abc-defg-hij"`
	Notes       *string `json:"notes,omitempty"`
	Status      *string `json:"status,omitempty"         example:"scheduled"`
}

// MeetingResponse wraps a single meeting.
type MeetingResponse struct {
	Meeting *domain.Meeting `json:"meeting"`
}

// ListMeetingsResponse wraps meetings in calendar order.
type ListMeetingsResponse struct {
	Meetings []domain.Meeting `json:"meetings"`
}

// ListMeetings godoc
// @ID          listMeetings
// @Summary     List meetings
// @Description Ordered by date, then time.
// @Tags        Meetings
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ListMeetingsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Admin session required"
// @Router      /admin/meetings [get]
func (h *Handlers) ListMeetings(c *gin.Context) {
	items, err := h.meetingSvc.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Meeting{}
	}
	ok(c, http.StatusOK, ListMeetingsResponse{Meetings: items})
}

// GetMeeting godoc
// @ID          getMeeting
// @Summary     Get a meeting
// @Tags        Meetings
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Meeting ID (UUID)"
// @Success     200  {object}  handlers.MeetingResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Meeting not found"
// @Router      /admin/meetings/{id} [get]
func (h *Handlers) GetMeeting(c *gin.Context) {
	m, err := h.meetingSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MeetingResponse{Meeting: m})
}

// CreateMeeting godoc
// @ID          createMeeting
// @Summary     Schedule a meeting
// @Description clientName, clientEmail, meetingDate, meetingTime and googleMeetLink are required; duration defaults to 30 minutes.
// @Tags        Meetings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body      handlers.MeetingRequest  true  "Meeting"
// @Success     201   {object}  handlers.MeetingResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing or malformed fields"
// @Router      /admin/meetings [post]
func (h *Handlers) CreateMeeting(c *gin.Context) {
	var req MeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	m, err := h.meetingSvc.Create(c.Request.Context(), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, MeetingResponse{Meeting: m})
}

// UpdateMeeting godoc
// @ID          updateMeeting
// @Summary     Update a meeting
// @Tags        Meetings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path      string  true  "Meeting ID (UUID)"
// @Param       body  body      handlers.MeetingRequest  true  "Fields to change"
// @Success     200   {object}  handlers.MeetingResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed fields"
// @Failure     404   {object}  handlers.ErrorResponse  "Meeting not found"
// @Router      /admin/meetings/{id} [put]
func (h *Handlers) UpdateMeeting(c *gin.Context) {
	var req MeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	m, err := h.meetingSvc.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MeetingResponse{Meeting: m})
}

// DeleteMeeting godoc
// @ID          deleteMeeting
// @Summary     Delete a meeting
// @Tags        Meetings
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Meeting ID (UUID)"
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Meeting not found"
// @Router      /admin/meetings/{id} [delete]
func (h *Handlers) DeleteMeeting(c *gin.Context) {
	if err := h.meetingSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true, Message: "meeting deleted"})
}

// SendMeetingInvite godoc
// @ID          sendMeetingInvite
// @Summary     Email the meeting invitation
// @Description Sends the invitation with a QR code of the meeting link and marks the meeting as notified. On delivery failure the flag is left untouched.
// @Tags        Meetings
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      string  true  "Meeting ID (UUID)"
// @Success     200  {object}  handlers.MeetingResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Meeting not found"
// @Failure     502  {object}  handlers.ErrorResponse  "Mail relay failed"
// @Router      /admin/meetings/{id}/invite [post]
func (h *Handlers) SendMeetingInvite(c *gin.Context) {
	m, err := h.meetingSvc.SendInvite(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, MeetingResponse{Meeting: m})
}

// ExportMeetings godoc
// @ID          exportMeetings
// @Summary     Download meetings as a spreadsheet
// @Tags        Meetings
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Success     200  {file}    file
// @Failure     500  {object}  handlers.ErrorResponse  "Export failed"
// @Router      /admin/meetings/export [get]
func (h *Handlers) ExportMeetings(c *gin.Context) {
	items, err := h.meetingSvc.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteMeetings(&buf, items); err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, "could not build the spreadsheet")
		return
	}
	name := "randevular-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (r MeetingRequest) input() services.MeetingInput {
	return services.MeetingInput{
		ClientName:  r.ClientName,
		ClientEmail: r.ClientEmail,
		ClientPhone: r.ClientPhone,
		MeetingDate: r.MeetingDate,
		MeetingTime: r.MeetingTime,
		Duration:    r.Duration,
		MeetLink:    r.MeetLink,
		Notes:       r.Notes,
		Status:      r.Status,
	}
}
